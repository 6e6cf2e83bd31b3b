package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cover-rota/internal/api/dto"
	"github.com/spec-kit/cover-rota/internal/service"
)

// AvailabilityChecker answers who is free.
type AvailabilityChecker interface {
	Check(ctx context.Context, q service.AvailabilityQuery) (*service.AvailabilityResult, error)
}

// AvailabilityHandler serves the availability board.
type AvailabilityHandler struct {
	availability AvailabilityChecker
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(availability AvailabilityChecker) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// Availability GET /availability?periods=1,2&day=&date=&include_busy=.
func (h *AvailabilityHandler) Availability(c *fiber.Ctx) error {
	periods, err := queryPeriods(c, "periods")
	if err != nil {
		return err
	}
	includeBusy, err := queryBool(c, "include_busy")
	if err != nil {
		return err
	}
	q := service.AvailabilityQuery{
		Periods: periods,
		Day:     strings.TrimSpace(c.Query("day")),
		Date:    strings.TrimSpace(c.Query("date")),
	}
	if includeBusy != nil {
		q.IncludeBusy = *includeBusy
	}

	res, err := h.availability.Check(c.UserContext(), q)
	if err != nil {
		return err
	}
	staff := make([]dto.AvailabilityEntry, 0, len(res.Listings))
	for _, l := range res.Listings {
		entry := dto.AvailabilityEntry{
			Name:         l.Staff.Name,
			Profile:      l.Staff.Profile,
			IsPriority:   l.Staff.IsPriority,
			IsSpecialist: l.Staff.IsSpecialist,
			IsFree:       l.IsFree,
			Activity:     l.Activity,
			Source:       string(l.Verdict.Source),
		}
		if !l.IsFree {
			p := int(l.Verdict.Period)
			entry.BusyPeriod = &p
		}
		staff = append(staff, entry)
	}
	return c.JSON(fiber.Map{"data": dto.AvailabilityResponse{
		Day:     res.Day.String(),
		Date:    dto.FormatDate(res.Date),
		Periods: dto.Ints(periods),
		Staff:   staff,
	}})
}
