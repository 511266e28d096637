package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evacdesk/rollcall/internal/domain"
)

type AccessCodeRepo interface {
	// Verify reports whether an access code exists for (code, day). It is an
	// admission check only and never mutates state.
	Verify(ctx context.Context, code, day string) (bool, error)
	// UpsertCodes inserts or overwrites on (code, day). Re-applying the same
	// batch is a no-op.
	UpsertCodes(ctx context.Context, entries []domain.AccessCodeEntry) error
}

type AccessCodeRepoImpl struct{ pool *pgxpool.Pool }

func NewAccessCodeRepo(pool *pgxpool.Pool) *AccessCodeRepoImpl {
	return &AccessCodeRepoImpl{pool: pool}
}

func (r *AccessCodeRepoImpl) Verify(ctx context.Context, code, day string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM crt_codes WHERE code = $1 AND date = $2::date)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var ok bool
	err := r.pool.QueryRow(ctx, q, code, day).Scan(&ok)
	return ok, err
}

func (r *AccessCodeRepoImpl) UpsertCodes(ctx context.Context, entries []domain.AccessCodeEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO crt_codes (id, code, date) VALUES ($1, $2, $3::date)
		ON CONFLICT (code, date) DO NOTHING`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, q, uuid.NewString(), e.Code, e.Date); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

var _ AccessCodeRepo = (*AccessCodeRepoImpl)(nil)
