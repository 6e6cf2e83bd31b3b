package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cover-rota/internal/api/dto"
	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/service"
	apperrors "github.com/spec-kit/cover-rota/pkg/util/errorutil"
)

// CoverOperations is the cover workflow used by CoversHandler.
type CoverOperations interface {
	SuggestCover(ctx context.Context, absenceID int64, day string) (*service.CoverSuggestion, error)
	AssignCover(ctx context.Context, in service.AssignCoverInput) ([]domain.CoverAssignment, error)
	UnassignCover(ctx context.Context, absenceID int64, period domain.Period) (bool, error)
	ListCovers(ctx context.Context, absenceID int64) ([]domain.CoverAssignment, error)
	DailyRota(ctx context.Context, date string) ([]service.RotaEntry, error)
}

// CoversHandler serves cover suggestion and the cover ledger.
type CoversHandler struct {
	service CoverOperations
}

// NewCoversHandler constructs handler.
func NewCoversHandler(coverService CoverOperations) *CoversHandler {
	return &CoversHandler{service: coverService}
}

// SuggestCover GET /suggest-cover/:absence_id. A generation failure still answers 200 with
// the message in suggestions.
func (h *CoversHandler) SuggestCover(c *fiber.Ctx) error {
	id, err := paramID(c, "absence_id")
	if err != nil {
		return err
	}
	s, err := h.service.SuggestCover(c.UserContext(), id, c.Query("day"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CoverSuggestionResponse{
		AbsenceID:     s.AbsenceID,
		AbsentTeacher: s.AbsentName,
		Day:           s.Day.String(),
		Date:          dto.FormatDate(s.Date),
		TargetPeriods: dto.Ints(s.TargetPeriods),
		Candidates:    s.Candidates,
		Suggestions:   s.Suggestions,
	}})
}

// AssignCover POST /assign-cover.
func (h *CoversHandler) AssignCover(c *fiber.Ctx) error {
	var req dto.AssignCoverRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	id, ok, err := queryID(c, "absence_id")
	if err != nil {
		return err
	}
	if ok {
		req.AbsenceID = id
	}
	if v := c.Query("staff_name"); v != "" {
		req.StaffName = v
	}
	if c.Query("periods") != "" {
		periods, err := queryPeriods(c, "periods")
		if err != nil {
			return err
		}
		req.Periods = periods
	}
	if v := c.Query("reason"); v != "" {
		req.Reason = &v
	}
	if req.AbsenceID <= 0 || strings.TrimSpace(req.StaffName) == "" {
		return apperrors.NewValidationError("absence_id and staff_name are required", nil)
	}

	assigned, err := h.service.AssignCover(c.UserContext(), service.AssignCoverInput{
		AbsenceID: req.AbsenceID,
		StaffName: req.StaffName,
		Periods:   req.Periods,
		Reason:    req.Reason,
	})
	if err != nil {
		return err
	}
	covers := make([]dto.CoverResponse, 0, len(assigned))
	for _, a := range assigned {
		covers = append(covers, dto.NewCoverResponse(a))
	}
	name := req.StaffName
	if len(assigned) > 0 {
		name = assigned[0].CoveringStaffName
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"message": fmt.Sprintf("Assigned %s to periods %s", name, joinInts(dto.Ints(req.Periods))),
		"covers":  covers,
	}})
}

// UnassignCover DELETE /unassign-cover?absence_id=&period=.
func (h *CoversHandler) UnassignCover(c *fiber.Ctx) error {
	id, ok, err := queryID(c, "absence_id")
	if err != nil {
		return err
	}
	period, err := queryInt(c, "period")
	if err != nil {
		return err
	}
	if !ok || period == nil {
		return apperrors.NewValidationError("absence_id and period are required", nil)
	}
	if !domain.Period(*period).Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown period %d", *period), nil)
	}

	removed, err := h.service.UnassignCover(c.UserContext(), id, domain.Period(*period))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"message":    fmt.Sprintf("Unassigned period %d", *period),
		"absence_id": id,
		"period":     *period,
		"removed":    removed,
	}})
}

// ListCovers GET /covers/:absence_id.
func (h *CoversHandler) ListCovers(c *fiber.Ctx) error {
	id, err := paramID(c, "absence_id")
	if err != nil {
		return err
	}
	covers, err := h.service.ListCovers(c.UserContext(), id)
	if err != nil {
		return err
	}
	items := make([]dto.CoverResponse, 0, len(covers))
	for _, cv := range covers {
		items = append(items, dto.NewCoverResponse(cv))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DailyRota GET /daily-rota?date=.
func (h *CoversHandler) DailyRota(c *fiber.Ctx) error {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		return apperrors.NewValidationError("date is required", nil)
	}
	rota, err := h.service.DailyRota(c.UserContext(), date)
	if err != nil {
		return err
	}
	items := make([]dto.RotaEntryResponse, 0, len(rota))
	for _, r := range rota {
		covers := make([]dto.CoverResponse, 0, len(r.Covers))
		for _, cv := range r.Covers {
			covers = append(covers, dto.NewCoverResponse(cv))
		}
		items = append(items, dto.RotaEntryResponse{
			AbsenceID:   r.Absence.ID,
			StaffName:   r.Absence.StaffName,
			StartPeriod: int(r.Absence.StartPeriod),
			EndPeriod:   int(r.Absence.EndPeriod),
			Covers:      covers,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func joinInts(nums []int) string {
	parts := make([]string, 0, len(nums))
	for _, n := range nums {
		parts = append(parts, fmt.Sprint(n))
	}
	return strings.Join(parts, ",")
}
