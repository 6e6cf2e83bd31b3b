package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/domain"
	"github.com/spec-kit/cover-rota/internal/repository"
)

const warmTimeout = 2 * time.Minute

// StaffLister lists staff members.
type StaffLister interface {
	List(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error)
}

// FeedReader reads a feed's busy periods, populating the calendar cache as a side effect.
type FeedReader interface {
	BusyPeriods(ctx context.Context, source string, date time.Time) domain.BusyMap
}

// CalendarWarmer pre-fetches today's calendar feeds so the first availability check of the
// day does not pay for every fetch.
type CalendarWarmer struct {
	staff    StaffLister
	calendar FeedReader
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewCalendarWarmer creates a warmer. A nil location means UTC.
func NewCalendarWarmer(staff StaffLister, calendar FeedReader, loc *time.Location, logger *zap.Logger) *CalendarWarmer {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarWarmer{staff: staff, calendar: calendar, loc: loc, logger: logger, now: time.Now}
}

// WarmToday reads today's feed for every active staff member with a calendar and returns
// how many feeds were read.
func (w *CalendarWarmer) WarmToday(ctx context.Context) (int, error) {
	active := true
	staff, err := w.staff.List(ctx, repository.StaffFilter{Active: &active})
	if err != nil {
		return 0, fmt.Errorf("list staff: %w", err)
	}
	today := domain.DateIn(w.now().In(w.loc), w.loc)

	warmed := 0
	for _, member := range staff {
		if !member.HasCalendar() {
			continue
		}
		if ctx.Err() != nil {
			return warmed, ctx.Err()
		}
		busy := w.calendar.BusyPeriods(ctx, *member.CalendarURL, today)
		warmed++
		w.logger.Debug("calendar warmed",
			zap.String("staff", member.Name),
			zap.Int("busy_periods", len(busy)))
	}
	return warmed, nil
}

// Start schedules WarmToday on a standard five-field cron spec in the school timezone.
func (w *CalendarWarmer) Start(spec string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cron != nil {
		return fmt.Errorf("calendar warmer already started")
	}

	c := cron.New(cron.WithLocation(w.loc))
	if _, err := c.AddFunc(spec, w.run); err != nil {
		return fmt.Errorf("invalid warm schedule %q: %w", spec, err)
	}
	c.Start()
	w.cron = c
	w.logger.Info("calendar warmer scheduled", zap.String("schedule", spec))
	return nil
}

// Stop halts the schedule and waits for a running warm-up to finish.
func (w *CalendarWarmer) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (w *CalendarWarmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()

	started := time.Now()
	n, err := w.WarmToday(ctx)
	if err != nil {
		w.logger.Warn("calendar warm-up failed", zap.Int("warmed", n), zap.Error(err))
		return
	}
	w.logger.Info("calendar warm-up finished",
		zap.Int("warmed", n),
		zap.Duration("took", time.Since(started)))
}
