package repository

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/cover-rota/internal/domain"
)

// ScheduleRepository persists the recurring weekly timetable.
type ScheduleRepository interface {
	Upsert(ctx context.Context, entry *domain.ScheduleEntry) error
	DeleteByStaff(ctx context.Context, staffID int64) error
	DaySchedule(ctx context.Context, staffID int64, day time.Weekday) (domain.DaySchedule, error)
	ListByStaff(ctx context.Context, staffID int64, day *time.Weekday) ([]domain.ScheduleEntry, error)
}

type scheduleRepository struct {
	db DBTX
}

// NewScheduleRepository instantiates the repository.
func NewScheduleRepository(db DBTX) ScheduleRepository {
	return &scheduleRepository{db: db}
}

// Upsert writes one timetable cell; the (staff, day, period) slot is unique.
func (r *scheduleRepository) Upsert(ctx context.Context, entry *domain.ScheduleEntry) error {
	const query = `
        INSERT INTO schedule_entries (staff_id, day_of_week, period, activity, location, is_free)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (staff_id, day_of_week, period) DO UPDATE
        SET activity=EXCLUDED.activity, location=EXCLUDED.location, is_free=EXCLUDED.is_free
        RETURNING id`

	return r.db.QueryRow(ctx, query,
		entry.StaffID,
		entry.DayOfWeek.String(),
		int(entry.Period),
		entry.Activity,
		entry.Location,
		entry.IsFree,
	).Scan(&entry.ID)
}

func (r *scheduleRepository) DeleteByStaff(ctx context.Context, staffID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM schedule_entries WHERE staff_id=$1`, staffID)
	return err
}

func (r *scheduleRepository) DaySchedule(ctx context.Context, staffID int64, day time.Weekday) (domain.DaySchedule, error) {
	entries, err := r.ListByStaff(ctx, staffID, &day)
	if err != nil {
		return nil, err
	}
	return domain.NewDaySchedule(entries), nil
}

// ListByStaff returns a staff member's timetable ordered by day and period. A nil day
// returns the whole week.
func (r *scheduleRepository) ListByStaff(ctx context.Context, staffID int64, day *time.Weekday) ([]domain.ScheduleEntry, error) {
	query := `
        SELECT id, staff_id, day_of_week, period, activity, location, is_free
        FROM schedule_entries WHERE staff_id=$1`
	args := []any{staffID}
	if day != nil {
		args = append(args, day.String())
		query += ` AND lower(day_of_week)=lower($2)`
	}
	query += ` ORDER BY period ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.ScheduleEntry, 0)
	for rows.Next() {
		var (
			entry  domain.ScheduleEntry
			dayRaw string
			period int
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.StaffID,
			&dayRaw,
			&period,
			&entry.Activity,
			&entry.Location,
			&entry.IsFree,
		); err != nil {
			return nil, err
		}
		d, err := domain.ParseWeekday(dayRaw)
		if err != nil {
			return nil, err
		}
		entry.DayOfWeek = d
		entry.Period = domain.Period(period)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if day == nil {
		sortWeek(result)
	}
	return result, nil
}

// sortWeek orders entries Monday first, then by period.
func sortWeek(entries []domain.ScheduleEntry) {
	rank := func(d time.Weekday) int { return (int(d) + 6) % 7 }
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].DayOfWeek != entries[j].DayOfWeek {
			return rank(entries[i].DayOfWeek) < rank(entries[j].DayOfWeek)
		}
		return entries[i].Period < entries[j].Period
	})
}
