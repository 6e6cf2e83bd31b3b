package repository

import (
	"context"
	"time"

	"github.com/spec-kit/cover-rota/internal/domain"
)

// CoverRepository persists cover assignments. There is at most one per absence and period.
type CoverRepository interface {
	Upsert(ctx context.Context, cover *domain.CoverAssignment) error
	Delete(ctx context.Context, absenceID int64, period domain.Period) (bool, error)
	ListByAbsence(ctx context.Context, absenceID int64) ([]domain.CoverAssignment, error)
	LedgerForDate(ctx context.Context, date time.Time) ([]domain.LedgerEntry, error)
	ListRecent(ctx context.Context, limit int) ([]domain.LedgerEntry, error)
	Count(ctx context.Context) (int, error)
}

type coverRepository struct {
	db DBTX
}

// NewCoverRepository instantiates the repository.
func NewCoverRepository(db DBTX) CoverRepository {
	return &coverRepository{db: db}
}

// Upsert assigns the period, replacing whoever covered it before.
func (r *coverRepository) Upsert(ctx context.Context, cover *domain.CoverAssignment) error {
	const query = `
        INSERT INTO cover_assignments (absence_id, period, covering_staff_id, status, reason_for_selection)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (absence_id, period) DO UPDATE
        SET covering_staff_id=EXCLUDED.covering_staff_id, status=EXCLUDED.status,
            reason_for_selection=EXCLUDED.reason_for_selection
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		cover.AbsenceID,
		int(cover.Period),
		cover.CoveringStaffID,
		string(cover.Status),
		cover.ReasonForSelection,
	).Scan(&cover.ID, &cover.CreatedAt)
}

// Delete removes the assignment for the period and reports whether a row existed.
func (r *coverRepository) Delete(ctx context.Context, absenceID int64, period domain.Period) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM cover_assignments WHERE absence_id=$1 AND period=$2`, absenceID, int(period))
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *coverRepository) ListByAbsence(ctx context.Context, absenceID int64) ([]domain.CoverAssignment, error) {
	const query = `
        SELECT c.id, c.absence_id, c.period, c.covering_staff_id, s.name, c.status, c.reason_for_selection, c.created_at
        FROM cover_assignments c
        JOIN staff_members s ON s.id = c.covering_staff_id
        WHERE c.absence_id=$1
        ORDER BY c.period ASC`

	rows, err := r.db.Query(ctx, query, absenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.CoverAssignment, 0)
	for rows.Next() {
		var (
			cover  domain.CoverAssignment
			period int
			status string
		)
		if err := rows.Scan(
			&cover.ID,
			&cover.AbsenceID,
			&period,
			&cover.CoveringStaffID,
			&cover.CoveringStaffName,
			&status,
			&cover.ReasonForSelection,
			&cover.CreatedAt,
		); err != nil {
			return nil, err
		}
		cover.Period = domain.Period(period)
		cover.Status = domain.CoverStatus(status)
		result = append(result, cover)
	}
	return result, rows.Err()
}

const ledgerSelect = `
        SELECT c.absence_id, a.date, c.period, c.covering_staff_id, cs.name, a.staff_id, ast.name
        FROM cover_assignments c
        JOIN absences a ON a.id = c.absence_id
        JOIN staff_members cs ON cs.id = c.covering_staff_id
        JOIN staff_members ast ON ast.id = a.staff_id`

// LedgerForDate returns every live cover commitment on date. Rejected assignments are excluded.
func (r *coverRepository) LedgerForDate(ctx context.Context, date time.Time) ([]domain.LedgerEntry, error) {
	return r.ledger(ctx, ledgerSelect+` WHERE a.date=$1 AND c.status <> 'rejected' ORDER BY c.period ASC`, civilDate(date))
}

// ListRecent returns the latest cover assignments, newest first.
func (r *coverRepository) ListRecent(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.ledger(ctx, ledgerSelect+` ORDER BY a.date DESC, c.id DESC LIMIT $1`, limit)
}

func (r *coverRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cover_assignments`).Scan(&n)
	return n, err
}

func (r *coverRepository) ledger(ctx context.Context, query string, args ...any) ([]domain.LedgerEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var (
			entry  domain.LedgerEntry
			period int
		)
		if err := rows.Scan(
			&entry.AbsenceID,
			&entry.Date,
			&period,
			&entry.CoveringStaffID,
			&entry.CoveringName,
			&entry.AbsentStaffID,
			&entry.AbsentName,
		); err != nil {
			return nil, err
		}
		entry.Period = domain.Period(period)
		result = append(result, entry)
	}
	return result, rows.Err()
}
