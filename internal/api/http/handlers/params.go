package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cover-rota/internal/domain"
	apperrors "github.com/spec-kit/cover-rota/pkg/util/errorutil"
)

func paramID(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(name+" must be a positive integer", map[string]any{name: raw})
	}
	return id, nil
}

func queryID(c *fiber.Ctx, name string) (int64, bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, apperrors.NewValidationError(name+" must be a positive integer", map[string]any{name: raw})
	}
	return id, true, nil
}

func queryInt(c *fiber.Ctx, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(name+" must be an integer", map[string]any{name: raw})
	}
	return &n, nil
}

func queryBool(c *fiber.Ctx, name string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(name+" must be true or false", map[string]any{name: raw})
	}
	return &v, nil
}

func queryPeriods(c *fiber.Ctx, name string) ([]domain.Period, error) {
	periods, err := domain.ParsePeriods(c.Query(name))
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{name: c.Query(name)})
	}
	return periods, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	return nil
}
