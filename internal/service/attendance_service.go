package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/evacdesk/rollcall/internal/clock"
	"github.com/evacdesk/rollcall/internal/domain"
	"github.com/evacdesk/rollcall/internal/platform/mailer"
	"github.com/evacdesk/rollcall/internal/repo/postgres"
	"github.com/evacdesk/rollcall/internal/status"
	"github.com/evacdesk/rollcall/internal/utils"
	"github.com/evacdesk/rollcall/pkg/events"
	"github.com/evacdesk/rollcall/pkg/logger"
)

// Broadcaster pushes a mutation event to every live observer. Delivery is
// fire-and-forget; it must never block or fail the calling request.
type Broadcaster interface {
	Broadcast(evt domain.Event)
}

type AttendanceService interface {
	StaffStatus(ctx context.Context) ([]domain.StaffStatusRow, error)
	FindStaff(ctx context.Context, code string) (*domain.StaffMember, error)
	VisitorCount(ctx context.Context) (int, error)
	CheckInStaff(ctx context.Context, code string) error
	CheckInCRT(ctx context.Context, code string) error
	CheckInVisitor(ctx context.Context, name string) error
	UploadRoster(ctx context.Context, entries []domain.RosterEntry) error
	UploadAccessCodes(ctx context.Context, entries []domain.AccessCodeEntry) error
	UploadAbsences(ctx context.Context, entries []domain.AbsenceEntry) error
	Reset(ctx context.Context) error
	Export(ctx context.Context) ([]domain.ExportRecord, error)
}

type attendanceService struct {
	staff      postgres.StaffRepo
	attendance postgres.AttendanceRepo
	access     postgres.AccessCodeRepo
	clock      *clock.Clock
	hub        Broadcaster
	bus        events.Publisher
	mailer     mailer.Service
	reportTo   string
}

func NewAttendanceService(
	staff postgres.StaffRepo,
	attendance postgres.AttendanceRepo,
	access postgres.AccessCodeRepo,
	clk *clock.Clock,
	hub Broadcaster,
	bus events.Publisher,
	mail mailer.Service,
	reportTo string,
) AttendanceService {
	return &attendanceService{
		staff:      staff,
		attendance: attendance,
		access:     access,
		clock:      clk,
		hub:        hub,
		bus:        bus,
		mailer:     mail,
		reportTo:   reportTo,
	}
}

// emit fans the event out to observers and mirrors it to the bus. Neither
// path may fail the mutation that produced the event.
func (s *attendanceService) emit(ctx context.Context, evt domain.Event) {
	s.hub.Broadcast(evt)
	if err := s.bus.Publish(ctx, events.Subject(string(evt.Type)), evt); err != nil {
		logger.ErrorContext(ctx, "failed to mirror event to bus", "error", err, "type", evt.Type)
	}
}

func (s *attendanceService) StaffStatus(ctx context.Context) ([]domain.StaffStatusRow, error) {
	day, weekday := s.clock.Today(), s.clock.Weekday()

	staff, err := s.staff.ListAll(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "list staff", Err: err}
	}
	checkedIn, err := s.attendance.CheckedInIDs(ctx, day)
	if err != nil {
		return nil, &domain.StorageError{Op: "load check-ins", Err: err}
	}
	absent, err := s.attendance.AbsentIDs(ctx, day)
	if err != nil {
		return nil, &domain.StorageError{Op: "load absences", Err: err}
	}

	return status.Resolve(staff, checkedIn, absent, weekday), nil
}

func (s *attendanceService) FindStaff(ctx context.Context, code string) (*domain.StaffMember, error) {
	code = utils.NormalizeCode(code)
	member, err := s.staff.FindByCode(ctx, code)
	if err != nil {
		return nil, &domain.StorageError{Op: "find staff", Err: err}
	}
	if member == nil {
		return nil, &domain.NotFoundError{Resource: "staff", Key: code}
	}
	return member, nil
}

func (s *attendanceService) VisitorCount(ctx context.Context) (int, error) {
	count, err := s.attendance.VisitorCount(ctx, s.clock.Today())
	if err != nil {
		return 0, &domain.StorageError{Op: "count visitors", Err: err}
	}
	return count, nil
}

func (s *attendanceService) CheckInStaff(ctx context.Context, code string) error {
	code = utils.NormalizeCode(code)
	if code == "" {
		return domain.Invalid("staffCode", "staff code is required")
	}

	member, err := s.staff.FindByCode(ctx, code)
	if err != nil {
		return &domain.StorageError{Op: "find staff", Err: err}
	}
	if member == nil {
		return &domain.NotFoundError{Resource: "staff code", Key: code}
	}

	if err := s.attendance.RecordCheckIn(ctx, member.ID); err != nil {
		return &domain.StorageError{Op: "record check-in", Err: err}
	}

	s.emit(ctx, domain.StaffCheckinEvent(code))
	return nil
}

// CheckInCRT verifies a day-scoped access code. It deliberately records no
// attendance event and changes no status; presenting a valid code is an
// admission check, nothing more.
func (s *attendanceService) CheckInCRT(ctx context.Context, code string) error {
	code = utils.NormalizeCode(code)
	if code == "" {
		return domain.Invalid("crtCode", "CRT code is required")
	}

	ok, err := s.access.Verify(ctx, code, s.clock.Today())
	if err != nil {
		return &domain.StorageError{Op: "verify access code", Err: err}
	}
	if !ok {
		return &domain.NotFoundError{Resource: "CRT code for today", Key: code}
	}

	s.emit(ctx, domain.CRTCheckinEvent(code))
	return nil
}

func (s *attendanceService) CheckInVisitor(ctx context.Context, name string) error {
	name = utils.NormalizeName(name)
	if name == "" {
		return domain.Invalid("name", "visitor name is required")
	}

	if err := s.attendance.RecordVisitor(ctx, name); err != nil {
		return &domain.StorageError{Op: "record visitor", Err: err}
	}

	s.emit(ctx, domain.VisitorCheckinEvent(name))
	return nil
}

func (s *attendanceService) UploadRoster(ctx context.Context, entries []domain.RosterEntry) error {
	verr := &domain.ValidationError{}
	seen := make(map[string]int, len(entries))
	normalized := make([]domain.RosterEntry, 0, len(entries))

	for i, e := range entries {
		e.Code = utils.NormalizeCode(e.Code)
		e.FirstName = strings.TrimSpace(e.FirstName)
		e.LastName = strings.TrimSpace(e.LastName)
		e.WorkArea = strings.TrimSpace(e.WorkArea)

		if e.Code == "" {
			verr.Add(i, "code", "code is required")
		} else if prev, dup := seen[e.Code]; dup {
			verr.Add(i, "code", fmt.Sprintf("duplicate of row %d", prev))
		} else {
			seen[e.Code] = i
		}
		if e.FirstName == "" {
			verr.Add(i, "first_name", "first name is required")
		}
		if e.LastName == "" {
			verr.Add(i, "last_name", "last name is required")
		}
		if e.WorkArea == "" {
			verr.Add(i, "work_area", "work area is required")
		}

		days := make([]string, 0, len(e.NonWorkingDays))
		for _, d := range e.NonWorkingDays {
			canonical, ok := utils.CanonicalWeekday(d)
			if !ok {
				verr.Add(i, "non_working_days", fmt.Sprintf("unknown weekday %q", d))
				continue
			}
			days = append(days, canonical)
		}
		e.NonWorkingDays = days

		normalized = append(normalized, e)
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if err := s.staff.ReplaceRoster(ctx, normalized); err != nil {
		return &domain.StorageError{Op: "replace roster", Err: err}
	}

	s.emit(ctx, domain.StaffUploadEvent(len(normalized)))
	return nil
}

func (s *attendanceService) UploadAccessCodes(ctx context.Context, entries []domain.AccessCodeEntry) error {
	verr := &domain.ValidationError{}
	normalized := make([]domain.AccessCodeEntry, 0, len(entries))

	for i, e := range entries {
		e.Code = utils.NormalizeCode(e.Code)
		if e.Code == "" {
			verr.Add(i, "code", "code is required")
		}
		if e.Date == "" {
			e.Date = s.clock.Today()
		} else if !utils.IsValidDay(e.Date) {
			verr.Add(i, "date", "not a YYYY-MM-DD day")
		}
		normalized = append(normalized, e)
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if err := s.access.UpsertCodes(ctx, normalized); err != nil {
		return &domain.StorageError{Op: "upsert access codes", Err: err}
	}

	s.emit(ctx, domain.CRTUploadEvent(len(normalized)))
	return nil
}

func (s *attendanceService) UploadAbsences(ctx context.Context, entries []domain.AbsenceEntry) error {
	verr := &domain.ValidationError{}
	normalized := make([]domain.AbsenceEntry, 0, len(entries))

	for i, e := range entries {
		e.StaffID = strings.TrimSpace(e.StaffID)
		if e.StaffID == "" {
			verr.Add(i, "staff_id", "staff id is required")
		}
		if e.Date == "" {
			e.Date = s.clock.Today()
		} else if !utils.IsValidDay(e.Date) {
			verr.Add(i, "date", "not a YYYY-MM-DD day")
		}
		normalized = append(normalized, e)
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	// The repo validates staff references inside the same transaction and
	// returns a ValidationError of its own for unknown ids.
	if err := s.attendance.UpsertAbsences(ctx, normalized); err != nil {
		if domain.IsValidation(err) {
			return err
		}
		return &domain.StorageError{Op: "upsert absences", Err: err}
	}

	s.emit(ctx, domain.AbsenceUploadEvent(len(normalized)))
	return nil
}

func (s *attendanceService) Reset(ctx context.Context) error {
	day := s.clock.Today()

	// Archive the day by mail before wiping it, when configured. A failed
	// send is logged, not fatal: reset is an emergency-drill control.
	if s.reportTo != "" {
		records, err := s.attendance.ExportDay(ctx, day)
		if err != nil {
			logger.ErrorContext(ctx, "failed to export day before reset", "error", err, "day", day)
		} else if err := s.mailer.SendDailyReport(s.reportTo, day, records); err != nil {
			logger.ErrorContext(ctx, "failed to mail daily report", "error", err, "day", day)
		}
	}

	if err := s.attendance.ResetDay(ctx, day); err != nil {
		return &domain.StorageError{Op: "reset day", Err: err}
	}

	s.emit(ctx, domain.ResetAttendanceEvent())
	return nil
}

func (s *attendanceService) Export(ctx context.Context) ([]domain.ExportRecord, error) {
	records, err := s.attendance.ExportDay(ctx, s.clock.Today())
	if err != nil {
		return nil, &domain.StorageError{Op: "export day", Err: err}
	}
	return records, nil
}
