package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the schema on startup. Statements are idempotent so a
// restart against an existing database is a no-op.
//
// Roster replacement cascades: deleting a staff row removes its check-ins and
// absence markers, and detaches any access-code assignment. The swap runs in
// one transaction, so readers see either the old roster with its dependents
// or the new roster with none.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS staff (
		id UUID PRIMARY KEY,
		code TEXT UNIQUE NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		work_area TEXT NOT NULL,
		non_working_days JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_staff_code ON staff (code)`,

	`CREATE TABLE IF NOT EXISTS attendance_logs (
		id UUID PRIMARY KEY,
		staff_id UUID NOT NULL REFERENCES staff(id) ON DELETE CASCADE,
		check_in_time TIMESTAMPTZ NOT NULL DEFAULT now(),
		check_out_time TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_logs_check_in ON attendance_logs (check_in_time)`,

	`CREATE TABLE IF NOT EXISTS visitors (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		check_in_time TIMESTAMPTZ NOT NULL DEFAULT now(),
		check_out_time TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS crt_codes (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL,
		date DATE NOT NULL DEFAULT CURRENT_DATE,
		assigned_to UUID REFERENCES staff(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (code, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_crt_codes_date ON crt_codes (date)`,

	`CREATE TABLE IF NOT EXISTS daily_absences (
		id UUID PRIMARY KEY,
		staff_id UUID NOT NULL REFERENCES staff(id) ON DELETE CASCADE,
		date DATE NOT NULL DEFAULT CURRENT_DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (staff_id, date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_daily_absences_date ON daily_absences (date)`,

	`CREATE TABLE IF NOT EXISTS admins (
		id UUID PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS rate_limits (
		key TEXT PRIMARY KEY,
		count INT NOT NULL,
		window_start TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
