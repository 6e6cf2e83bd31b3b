package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cover-rota/internal/api/dto"
	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/service"
)

// AbsenceLogger records absences.
type AbsenceLogger interface {
	LogAbsence(ctx context.Context, in service.LogAbsenceInput) (*domain.Absence, error)
}

// AbsencesHandler accepts absence reports.
type AbsencesHandler struct {
	service AbsenceLogger
}

// NewAbsencesHandler constructs handler.
func NewAbsencesHandler(absenceService AbsenceLogger) *AbsencesHandler {
	return &AbsencesHandler{service: absenceService}
}

// LogAbsence POST /absences. Accepts a JSON body, query parameters, or both; query values win.
// Responds 201 for a new absence and 200 when an existing one for the same day was updated.
func (h *AbsencesHandler) LogAbsence(c *fiber.Ctx) error {
	var req dto.LogAbsenceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if v := c.Query("staff_name"); v != "" {
		req.StaffName = v
	}
	if v := c.Query("date"); v != "" {
		req.Date = v
	}
	if v := c.Query("span"); v != "" {
		req.Span = v
	}
	if v := c.Query("reason"); v != "" {
		req.Reason = &v
	}
	start, err := queryInt(c, "start_period")
	if err != nil {
		return err
	}
	if start != nil {
		req.StartPeriod = start
	}
	end, err := queryInt(c, "end_period")
	if err != nil {
		return err
	}
	if end != nil {
		req.EndPeriod = end
	}

	absence, err := h.service.LogAbsence(c.UserContext(), service.LogAbsenceInput{
		StaffName:   req.StaffName,
		Date:        strings.TrimSpace(req.Date),
		StartPeriod: req.StartPeriod,
		EndPeriod:   req.EndPeriod,
		Span:        req.Span,
		Reason:      req.Reason,
	})
	if err != nil {
		return err
	}
	status := http.StatusCreated
	if !absence.UpdatedAt.Equal(absence.CreatedAt) {
		status = http.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{"data": dto.NewAbsenceResponse(*absence)})
}
