package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cover-rota/internal/api/dto"
	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/service"
)

// StaffQueries is the read side used by StaffHandler.
type StaffQueries interface {
	ListStaff(ctx context.Context, filters service.StaffListFilters) ([]domain.StaffMember, error)
	StaffSchedule(ctx context.Context, name, day string) (*domain.StaffMember, []domain.ScheduleEntry, error)
	Stats(ctx context.Context) (*service.Stats, error)
}

// StaffHandler serves staff listings, timetables and counts.
type StaffHandler struct {
	service StaffQueries
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService StaffQueries) *StaffHandler {
	return &StaffHandler{service: staffService}
}

// ListStaff GET /staff.
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	active, err := queryBool(c, "active")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return err
	}
	filters := service.StaffListFilters{Active: active}
	if limit != nil {
		filters.Limit = *limit
	}
	if offset != nil {
		filters.Offset = *offset
	}

	staff, err := h.service.ListStaff(c.UserContext(), filters)
	if err != nil {
		return err
	}
	items := make([]dto.StaffResponse, 0, len(staff))
	for _, m := range staff {
		items = append(items, dto.NewStaffResponse(m))
	}
	return c.JSON(fiber.Map{"data": items})
}

// StaffSchedule GET /staff-schedule/:name.
func (h *StaffHandler) StaffSchedule(c *fiber.Ctx) error {
	member, entries, err := h.service.StaffSchedule(c.UserContext(), c.Params("name"), c.Query("day"))
	if err != nil {
		return err
	}
	schedule := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for _, e := range entries {
		schedule = append(schedule, dto.NewScheduleEntryResponse(e))
	}
	return c.JSON(fiber.Map{"data": dto.StaffScheduleResponse{Name: member.Name, Schedule: schedule}})
}

// Stats GET /stats.
func (h *StaffHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		Staff:    stats.StaffCount,
		Absences: stats.AbsenceCount,
		Covers:   stats.CoverCount,
	}})
}
