// Command seed loads staff and weekly timetables from a YAML file into Postgres.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/config"
	"github.com/spec-kit/cover-rota/internal/observability"
	"github.com/spec-kit/cover-rota/internal/persistence"
	"github.com/spec-kit/cover-rota/internal/timetable"
)

func main() {
	file := flag.String("file", "seed/timetable.example.yaml", "timetable YAML to import")
	migrate := flag.Bool("migrate", false, "apply schema migrations before importing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	if *migrate {
		if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("failed to open timetable", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()

	doc, err := timetable.Parse(f)
	if err != nil {
		logger.Fatal("invalid timetable", zap.String("file", *file), zap.Error(err))
	}

	importer := timetable.NewImporter(pool, logger.Named("seed"))
	sum, err := importer.Import(ctx, doc)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
	logger.Info("timetable imported", zap.Int("staff", sum.Staff), zap.Int("entries", sum.Entries))
}
