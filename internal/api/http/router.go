package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cover-rota/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Staff        *handlers.StaffHandler
	Absences     *handlers.AbsencesHandler
	Covers       *handlers.CoversHandler
	Availability *handlers.AvailabilityHandler
	Reports      *handlers.ReportsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Get("/staff", cfg.Staff.ListStaff)
	app.Get("/staff-schedule/:name", cfg.Staff.StaffSchedule)
	app.Get("/stats", cfg.Staff.Stats)

	app.Post("/absences", cfg.Absences.LogAbsence)

	app.Get("/availability", cfg.Availability.Availability)

	app.Get("/suggest-cover/:absence_id", cfg.Covers.SuggestCover)
	app.Post("/assign-cover", cfg.Covers.AssignCover)
	app.Delete("/unassign-cover", cfg.Covers.UnassignCover)
	app.Get("/covers/:absence_id", cfg.Covers.ListCovers)
	app.Get("/daily-rota", cfg.Covers.DailyRota)

	app.Get("/generate-report", cfg.Reports.GenerateReport)
}
