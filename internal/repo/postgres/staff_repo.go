package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evacdesk/rollcall/internal/domain"
)

type StaffRepo interface {
	// ReplaceRoster discards the whole roster and installs entries in one
	// transaction. Dependent check-ins and absences cascade away with the
	// old rows; access-code assignments are detached.
	ReplaceRoster(ctx context.Context, entries []domain.RosterEntry) error
	// FindByCode looks up a staff member by canonical (upper-case) code.
	// Returns nil when no match.
	FindByCode(ctx context.Context, code string) (*domain.StaffMember, error)
	ListAll(ctx context.Context) ([]domain.StaffMember, error)
}

type StaffRepoImpl struct{ pool *pgxpool.Pool }

func NewStaffRepo(pool *pgxpool.Pool) *StaffRepoImpl { return &StaffRepoImpl{pool: pool} }

const staffCols = `id, code, first_name, last_name, work_area, non_working_days, created_at, updated_at`

func (r *StaffRepoImpl) ReplaceRoster(ctx context.Context, entries []domain.RosterEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM staff`); err != nil {
		return err
	}

	const q = `INSERT INTO staff (id, code, first_name, last_name, work_area, non_working_days)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, e := range entries {
		days := e.NonWorkingDays
		if days == nil {
			days = []string{}
		}
		if _, err := tx.Exec(ctx, q, uuid.NewString(), e.Code, e.FirstName, e.LastName, e.WorkArea, days); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *StaffRepoImpl) FindByCode(ctx context.Context, code string) (*domain.StaffMember, error) {
	const q = `SELECT ` + staffCols + ` FROM staff WHERE code = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.StaffMember
	err := r.pool.QueryRow(ctx, q, code).Scan(
		&s.ID, &s.Code, &s.FirstName, &s.LastName, &s.WorkArea,
		&s.NonWorkingDays, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepoImpl) ListAll(ctx context.Context) ([]domain.StaffMember, error) {
	const q = `SELECT ` + staffCols + ` FROM staff ORDER BY last_name, first_name`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []domain.StaffMember
	for rows.Next() {
		var s domain.StaffMember
		if err := rows.Scan(
			&s.ID, &s.Code, &s.FirstName, &s.LastName, &s.WorkArea,
			&s.NonWorkingDays, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		staff = append(staff, s)
	}
	return staff, rows.Err()
}

var _ StaffRepo = (*StaffRepoImpl)(nil)
