package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type AdminRepo interface {
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	// Ensure seeds or updates the admin account from configuration.
	Ensure(ctx context.Context, email, passwordHash string) error
}

type AdminRepoImpl struct{ pool *pgxpool.Pool }

func NewAdminRepo(pool *pgxpool.Pool) *AdminRepoImpl { return &AdminRepoImpl{pool: pool} }

func (r *AdminRepoImpl) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	const q = `SELECT id, email, password_hash, created_at FROM admins WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a Admin
	err := r.pool.QueryRow(ctx, q, email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AdminRepoImpl) Ensure(ctx context.Context, email, passwordHash string) error {
	const q = `INSERT INTO admins (id, email, password_hash) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, uuid.NewString(), email, passwordHash)
	return err
}

var _ AdminRepo = (*AdminRepoImpl)(nil)
