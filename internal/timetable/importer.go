package timetable

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/repository"
)

// TxBeginner opens a transaction. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Summary counts what an import wrote.
type Summary struct {
	Staff   int
	Entries int
}

// Importer writes a seed document through the repositories. Each staff member's timetable
// is replaced wholesale inside its own transaction; staff not in the file are left alone.
type Importer struct {
	db        TxBeginner
	staff     func(repository.DBTX) repository.StaffRepository
	schedules func(repository.DBTX) repository.ScheduleRepository
	logger    *zap.Logger
}

// NewImporter creates an importer over db.
func NewImporter(db TxBeginner, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		db:        db,
		staff:     repository.NewStaffRepository,
		schedules: repository.NewScheduleRepository,
		logger:    logger,
	}
}

// Import validates every record before writing anything.
func (im *Importer) Import(ctx context.Context, f *File) (Summary, error) {
	var sum Summary
	entries := make([][]domain.ScheduleEntry, len(f.Staff))
	for i, rec := range f.Staff {
		cells, err := rec.Entries()
		if err != nil {
			return sum, err
		}
		entries[i] = cells
	}

	for i, rec := range f.Staff {
		member := rec.Member()
		if err := im.importMember(ctx, &member, entries[i]); err != nil {
			return sum, err
		}
		sum.Staff++
		sum.Entries += len(entries[i])
		im.logger.Info("staff imported",
			zap.String("staff", member.Name),
			zap.Bool("specialist", member.IsSpecialist),
			zap.Int("entries", len(entries[i])))
	}
	return sum, nil
}

// importMember upserts member and replaces their timetable. A failure rolls both back, so
// nobody is left with a half-written week.
func (im *Importer) importMember(ctx context.Context, member *domain.StaffMember, entries []domain.ScheduleEntry) (err error) {
	tx, err := im.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin import of %s: %w", member.Name, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				im.logger.Warn("rollback failed", zap.String("staff", member.Name), zap.Error(rbErr))
			}
		}
	}()

	staff, schedules := im.staff(tx), im.schedules(tx)
	if err := staff.Upsert(ctx, member); err != nil {
		return fmt.Errorf("upsert staff %s: %w", member.Name, err)
	}
	if err := schedules.DeleteByStaff(ctx, member.ID); err != nil {
		return fmt.Errorf("clear timetable for %s: %w", member.Name, err)
	}
	for _, e := range entries {
		e.StaffID = member.ID
		if err := schedules.Upsert(ctx, &e); err != nil {
			return fmt.Errorf("write %s %s P%d: %w", member.Name, e.DayOfWeek, e.Period, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit import of %s: %w", member.Name, err)
	}
	return nil
}
