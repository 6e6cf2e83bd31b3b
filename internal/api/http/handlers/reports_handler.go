package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cover-rota/internal/api/dto"
	apperrors "github.com/spec-kit/cover-rota/pkg/util/errorutil"
)

// ReportGenerator answers free-text questions over history.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, query string) (string, error)
}

// ReportsHandler serves free-text reports.
type ReportsHandler struct {
	reports ReportGenerator
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports ReportGenerator) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// GenerateReport GET /generate-report?query=.
func (h *ReportsHandler) GenerateReport(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		return apperrors.NewValidationError("query is required", nil)
	}
	report, err := h.reports.GenerateReport(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ReportResponse{Report: report}})
}
