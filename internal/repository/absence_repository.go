package repository

import (
	"context"
	"time"

	"github.com/spec-kit/cover-rota/internal/domain"
)

// AbsenceRepository persists absences. There is at most one absence per staff member and date.
type AbsenceRepository interface {
	Upsert(ctx context.Context, absence *domain.Absence) error
	GetByID(ctx context.Context, id int64) (*domain.Absence, error)
	ListByDate(ctx context.Context, date time.Time) ([]domain.Absence, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Absence, error)
	Count(ctx context.Context) (int, error)
}

type absenceRepository struct {
	db DBTX
}

// NewAbsenceRepository instantiates the repository.
func NewAbsenceRepository(db DBTX) AbsenceRepository {
	return &absenceRepository{db: db}
}

const absenceSelect = `
        SELECT a.id, a.staff_id, s.name, a.date, a.start_period, a.end_period, a.reason, a.created_at, a.updated_at
        FROM absences a
        JOIN staff_members s ON s.id = a.staff_id`

// Upsert records the absence, or updates the period range and reason of the existing
// absence for the same staff member and date.
func (r *absenceRepository) Upsert(ctx context.Context, absence *domain.Absence) error {
	const query = `
        INSERT INTO absences (staff_id, date, start_period, end_period, reason)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (staff_id, date) DO UPDATE
        SET start_period=EXCLUDED.start_period, end_period=EXCLUDED.end_period,
            reason=COALESCE(EXCLUDED.reason, absences.reason), updated_at=NOW()
        RETURNING id, reason, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		absence.StaffID,
		civilDate(absence.Date),
		int(absence.StartPeriod),
		int(absence.EndPeriod),
		absence.Reason,
	).Scan(&absence.ID, &absence.Reason, &absence.CreatedAt, &absence.UpdatedAt)
}

func (r *absenceRepository) GetByID(ctx context.Context, id int64) (*domain.Absence, error) {
	return scanAbsence(r.db.QueryRow(ctx, absenceSelect+` WHERE a.id=$1`, id))
}

func (r *absenceRepository) ListByDate(ctx context.Context, date time.Time) ([]domain.Absence, error) {
	return r.list(ctx, absenceSelect+` WHERE a.date=$1 ORDER BY s.name ASC`, civilDate(date))
}

// ListRecent returns the latest absences by date, newest first.
func (r *absenceRepository) ListRecent(ctx context.Context, limit int) ([]domain.Absence, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, absenceSelect+` ORDER BY a.date DESC, a.id DESC LIMIT $1`, limit)
}

func (r *absenceRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM absences`).Scan(&n)
	return n, err
}

func (r *absenceRepository) list(ctx context.Context, query string, args ...any) ([]domain.Absence, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Absence, 0)
	for rows.Next() {
		absence, err := scanAbsence(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *absence)
	}
	return result, rows.Err()
}

func scanAbsence(row rowScanner) (*domain.Absence, error) {
	var (
		absence    domain.Absence
		start, end int
	)
	if err := row.Scan(
		&absence.ID,
		&absence.StaffID,
		&absence.StaffName,
		&absence.Date,
		&start,
		&end,
		&absence.Reason,
		&absence.CreatedAt,
		&absence.UpdatedAt,
	); err != nil {
		return nil, err
	}
	absence.StartPeriod = domain.Period(start)
	absence.EndPeriod = domain.Period(end)
	return &absence, nil
}

// civilDate drops the clock and zone so a DATE column stores the calendar day the caller meant.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
