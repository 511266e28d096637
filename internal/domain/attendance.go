package domain

import "time"

type Status string

const (
	StatusPresent     Status = "present"
	StatusAbsent      Status = "absent"
	StatusNonWorking  Status = "non_working"
	StatusUnaccounted Status = "unaccounted"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPresent, StatusAbsent, StatusNonWorking, StatusUnaccounted:
		return Status(s), true
	default:
		return "", false
	}
}

type StaffMember struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	WorkArea       string    `json:"work_area"`
	NonWorkingDays []string  `json:"non_working_days"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NonWorkingOn reports whether weekday (e.g. "Monday") is one of the staff
// member's non-working days. A missing set means no non-working days.
func (s *StaffMember) NonWorkingOn(weekday string) bool {
	for _, d := range s.NonWorkingDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// StaffStatusRow is one line of the resolved roll-call view.
type StaffStatusRow struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	WorkArea  string `json:"work_area"`
	Status    Status `json:"status"`
}

type CheckInEvent struct {
	ID           string     `json:"id"`
	StaffID      string     `json:"staff_id"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
}

type VisitorCheckIn struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
}

type AbsenceMarker struct {
	ID      string `json:"id"`
	StaffID string `json:"staff_id"`
	Date    string `json:"date"` // YYYY-MM-DD
}

// AccessCode is a day-scoped admission code ("CRT" code). Presenting a valid
// code is verified but never produces a check-in record.
type AccessCode struct {
	ID         string  `json:"id"`
	Code       string  `json:"code"`
	Date       string  `json:"date"` // YYYY-MM-DD
	AssignedTo *string `json:"assigned_to,omitempty"`
}

// Bulk upload rows. Uploads are all-or-nothing batches: one bad row fails the
// whole batch with every offending row reported.

type RosterEntry struct {
	Code           string   `json:"code"`
	FirstName      string   `json:"first_name"`
	LastName       string   `json:"last_name"`
	WorkArea       string   `json:"work_area"`
	NonWorkingDays []string `json:"non_working_days"`
}

type AccessCodeEntry struct {
	Code string `json:"code"`
	Date string `json:"date"` // YYYY-MM-DD, defaults to today when empty
}

type AbsenceEntry struct {
	StaffID string `json:"staff_id"`
	Date    string `json:"date"` // YYYY-MM-DD, defaults to today when empty
}

type RecordKind string

const (
	KindStaff   RecordKind = "Staff"
	KindVisitor RecordKind = "Visitor"
)

// ExportRecord is one row of the unified staff+visitor export for a day.
type ExportRecord struct {
	Date      string     `json:"date"`
	TimeIn    string     `json:"time_in"`
	TimeOut   string     `json:"time_out"`
	StaffCode string     `json:"staff_code"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	WorkArea  string     `json:"work_area"`
	Kind      RecordKind `json:"type"`
}
