package availability

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/domain"
)

const (
	labelFree    = "Free"
	labelVarious = "Various Activities"
)

// Listing is one row of the availability board.
type Listing struct {
	Staff    domain.StaffMember
	IsFree   bool
	Activity string
	Verdict  Verdict
}

// Eligible drops inactive staff, and duty-only staff when any teaching period is requested.
func Eligible(staff []domain.StaffMember, periods []domain.Period) []domain.StaffMember {
	out := make([]domain.StaffMember, 0, len(staff))
	for _, s := range staff {
		if !s.Active || !s.CanCover(periods) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Board resolves availability for every eligible staff member over periods. Free staff are
// always listed; busy specialists are listed with their reason; busy non-specialists are
// listed only when includeBusy is set.
func (r *Resolver) Board(ctx context.Context, staff []domain.StaffMember, day time.Weekday, periods []domain.Period, date time.Time, ledger domain.Ledger, includeBusy bool) ([]Listing, error) {
	out := make([]Listing, 0)
	for _, s := range Eligible(staff, periods) {
		verdict, schedule, err := r.evaluate(ctx, s, day, periods, date, ledger)
		if err != nil {
			return nil, err
		}
		if verdict.IsFree {
			out = append(out, Listing{Staff: s, IsFree: true, Activity: freeLabel(s, schedule, periods), Verdict: verdict})
			continue
		}
		if s.IsSpecialist || includeBusy {
			out = append(out, Listing{Staff: s, IsFree: false, Activity: verdict.Reason, Verdict: verdict})
			continue
		}
		r.logger.Debug("hiding busy form teacher",
			zap.String("staff", s.Name),
			zap.Stringer("period", verdict.Period),
			zap.String("source", string(verdict.Source)))
	}
	return out, nil
}

// freeLabel tells a released form teacher apart from one with a genuinely empty slot.
// A free cell that still names an activity is the specialist override at work.
func freeLabel(s domain.StaffMember, schedule domain.DaySchedule, periods []domain.Period) string {
	if s.IsSpecialist {
		return labelFree
	}
	activities := make([]string, 0)
	for _, p := range periods {
		entry, ok := schedule[p]
		if !ok || domain.IsFreeCell(entry.Activity) {
			continue
		}
		activities = append(activities, strings.TrimSpace(entry.Activity))
	}
	switch len(activities) {
	case 0:
		return labelFree
	case 1:
		return "class doing " + activities[0]
	default:
		return labelVarious
	}
}
