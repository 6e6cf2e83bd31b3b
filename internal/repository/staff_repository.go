package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/cover-rota/internal/domain"
)

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Upsert(ctx context.Context, staff *domain.StaffMember) error
	GetByID(ctx context.Context, id int64) (*domain.StaffMember, error)
	GetByName(ctx context.Context, name string) (*domain.StaffMember, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error)
	Count(ctx context.Context) (int, error)
}

// StaffFilter defines query params for staff listing. A zero Limit lists everyone.
type StaffFilter struct {
	Active          *bool
	CanCoverPeriods *bool
	Limit           int
	Offset          int
}

type staffRepository struct {
	db DBTX
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(db DBTX) StaffRepository {
	return &staffRepository{db: db}
}

const staffColumns = `id, name, role, profile, is_priority, is_specialist, is_active, can_cover_periods, calendar_url, created_at, updated_at`

// Upsert inserts a staff member or updates the existing row with the same name, ignoring case.
func (r *staffRepository) Upsert(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        INSERT INTO staff_members (name, role, profile, is_priority, is_specialist, is_active, can_cover_periods, calendar_url)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT ((lower(name))) DO UPDATE
        SET role=EXCLUDED.role, profile=EXCLUDED.profile, is_priority=EXCLUDED.is_priority,
            is_specialist=EXCLUDED.is_specialist, is_active=EXCLUDED.is_active,
            can_cover_periods=EXCLUDED.can_cover_periods, calendar_url=EXCLUDED.calendar_url, updated_at=NOW()
        RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		staff.Name,
		string(staff.Role),
		staff.Profile,
		staff.IsPriority,
		staff.IsSpecialist,
		staff.Active,
		staff.CanCoverPeriods,
		staff.CalendarURL,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
}

func (r *staffRepository) GetByID(ctx context.Context, id int64) (*domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE id=$1`
	return scanStaff(r.db.QueryRow(ctx, query, id))
}

// GetByName looks a staff member up by name, ignoring case and surrounding whitespace.
func (r *staffRepository) GetByName(ctx context.Context, name string) (*domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE lower(name)=lower($1)`
	return scanStaff(r.db.QueryRow(ctx, query, domain.CanonicalName(name)))
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	query := `SELECT ` + staffColumns + ` FROM staff_members`
	args := []any{}
	clauses := []string{}

	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("is_active=$%d", len(args)))
	}
	if filter.CanCoverPeriods != nil {
		args = append(args, *filter.CanCoverPeriods)
		clauses = append(clauses, fmt.Sprintf("can_cover_periods=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name ASC"
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.StaffMember, 0)
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *staff)
	}
	return result, rows.Err()
}

func (r *staffRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM staff_members`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStaff(row rowScanner) (*domain.StaffMember, error) {
	var (
		staff domain.StaffMember
		role  string
	)
	if err := row.Scan(
		&staff.ID,
		&staff.Name,
		&role,
		&staff.Profile,
		&staff.IsPriority,
		&staff.IsSpecialist,
		&staff.Active,
		&staff.CanCoverPeriods,
		&staff.CalendarURL,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	staff.Role = domain.StaffRole(role)
	return &staff, nil
}
