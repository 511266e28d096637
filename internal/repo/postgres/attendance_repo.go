package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evacdesk/rollcall/internal/domain"
)

type AttendanceRepo interface {
	// RecordCheckIn appends a check-in event timestamped now. Multiple
	// check-ins per staff member per day are fine; resolution only needs
	// "at least one today".
	RecordCheckIn(ctx context.Context, staffID string) error
	// CheckedInIDs returns the set of staff IDs with a check-in on day.
	CheckedInIDs(ctx context.Context, day string) (map[string]bool, error)
	RecordVisitor(ctx context.Context, name string) error
	VisitorCount(ctx context.Context, day string) (int, error)
	// UpsertAbsences inserts or overwrites absence markers on (staff, day).
	// Every entry must reference an existing staff member; otherwise the
	// whole batch is rejected with a ValidationError naming each bad row.
	UpsertAbsences(ctx context.Context, entries []domain.AbsenceEntry) error
	// AbsentIDs returns the set of staff IDs with an absence marker on day.
	AbsentIDs(ctx context.Context, day string) (map[string]bool, error)
	// ResetDay deletes check-ins, visitors, and absence markers for day
	// only. Roster and access-code history are untouched.
	ResetDay(ctx context.Context, day string) error
	// ExportDay projects staff check-ins and visitor check-ins for day into
	// a unified record list, staff first, each ordered by arrival time.
	ExportDay(ctx context.Context, day string) ([]domain.ExportRecord, error)
}

type AttendanceRepoImpl struct{ pool *pgxpool.Pool }

func NewAttendanceRepo(pool *pgxpool.Pool) *AttendanceRepoImpl {
	return &AttendanceRepoImpl{pool: pool}
}

func (r *AttendanceRepoImpl) RecordCheckIn(ctx context.Context, staffID string) error {
	const q = `INSERT INTO attendance_logs (id, staff_id) VALUES ($1, $2)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, uuid.NewString(), staffID)
	return err
}

func (r *AttendanceRepoImpl) CheckedInIDs(ctx context.Context, day string) (map[string]bool, error) {
	// check_in_time::date buckets in the session time zone, which the pool
	// pins to the application zone; day comes from the same zone via the
	// clock. The other day-scoped queries below rely on the same agreement.
	const q = `SELECT DISTINCT staff_id FROM attendance_logs WHERE check_in_time::date = $1::date`
	return r.idSet(ctx, q, day)
}

func (r *AttendanceRepoImpl) AbsentIDs(ctx context.Context, day string) (map[string]bool, error) {
	const q = `SELECT staff_id FROM daily_absences WHERE date = $1::date`
	return r.idSet(ctx, q, day)
}

func (r *AttendanceRepoImpl) idSet(ctx context.Context, q, day string) (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (r *AttendanceRepoImpl) RecordVisitor(ctx context.Context, name string) error {
	const q = `INSERT INTO visitors (id, name) VALUES ($1, $2)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, uuid.NewString(), name)
	return err
}

func (r *AttendanceRepoImpl) VisitorCount(ctx context.Context, day string) (int, error) {
	const q = `SELECT COUNT(*) FROM visitors WHERE check_in_time::date = $1::date`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, q, day).Scan(&count)
	return count, err
}

func (r *AttendanceRepoImpl) UpsertAbsences(ctx context.Context, entries []domain.AbsenceEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Resolve which referenced staff rows exist before writing anything.
	ids := make([]string, 0, len(entries))
	verr := &domain.ValidationError{}
	for i, e := range entries {
		if _, err := uuid.Parse(e.StaffID); err != nil {
			verr.Add(i, "staff_id", "not a valid staff id")
			continue
		}
		ids = append(ids, e.StaffID)
	}

	known := make(map[string]bool, len(ids))
	if len(ids) > 0 {
		rows, err := tx.Query(ctx, `SELECT id FROM staff WHERE id = ANY($1::uuid[])`, ids)
		if err != nil {
			return err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			known[id] = true
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
	}

	for i, e := range entries {
		if _, err := uuid.Parse(e.StaffID); err == nil && !known[e.StaffID] {
			verr.Add(i, "staff_id", "unknown staff id")
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	const q = `INSERT INTO daily_absences (id, staff_id, date) VALUES ($1, $2, $3::date)
		ON CONFLICT (staff_id, date) DO NOTHING`
	for _, e := range entries {
		if _, err := tx.Exec(ctx, q, uuid.NewString(), e.StaffID, e.Date); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *AttendanceRepoImpl) ResetDay(ctx context.Context, day string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM attendance_logs WHERE check_in_time::date = $1::date`, day); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM visitors WHERE check_in_time::date = $1::date`, day); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM daily_absences WHERE date = $1::date`, day); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *AttendanceRepoImpl) ExportDay(ctx context.Context, day string) ([]domain.ExportRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	const staffQ = `SELECT
			to_char(al.check_in_time, 'YYYY-MM-DD'),
			to_char(al.check_in_time, 'HH24:MI:SS'),
			COALESCE(to_char(al.check_out_time, 'HH24:MI:SS'), ''),
			s.code, s.first_name, s.last_name, s.work_area
		FROM attendance_logs al
		JOIN staff s ON s.id = al.staff_id
		WHERE al.check_in_time::date = $1::date
		ORDER BY al.check_in_time`

	records := []domain.ExportRecord{}
	rows, err := r.pool.Query(ctx, staffQ, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		rec := domain.ExportRecord{Kind: domain.KindStaff}
		if err := rows.Scan(&rec.Date, &rec.TimeIn, &rec.TimeOut,
			&rec.StaffCode, &rec.FirstName, &rec.LastName, &rec.WorkArea); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const visitorQ = `SELECT
			to_char(check_in_time, 'YYYY-MM-DD'),
			to_char(check_in_time, 'HH24:MI:SS'),
			COALESCE(to_char(check_out_time, 'HH24:MI:SS'), ''),
			name
		FROM visitors
		WHERE check_in_time::date = $1::date
		ORDER BY check_in_time`

	vrows, err := r.pool.Query(ctx, visitorQ, day)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()
	for vrows.Next() {
		// Visitors carry the free-text name in first_name, like the CSV
		// the admin tooling has always produced.
		rec := domain.ExportRecord{Kind: domain.KindVisitor}
		if err := vrows.Scan(&rec.Date, &rec.TimeIn, &rec.TimeOut, &rec.FirstName); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, vrows.Err()
}

var _ AttendanceRepo = (*AttendanceRepoImpl)(nil)
