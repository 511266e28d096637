package domain

type EventType string

const (
	EventStaffCheckin    EventType = "staff_checkin"
	EventCRTCheckin      EventType = "crt_checkin"
	EventVisitorCheckin  EventType = "visitor_checkin"
	EventStaffUpload     EventType = "staff_upload"
	EventCRTUpload       EventType = "crt_upload"
	EventAbsenceUpload   EventType = "absence_upload"
	EventResetAttendance EventType = "reset_attendance"
)

// Event is the push message sent to every observer on a mutation. The payload
// is a hint for logging; observers refetch the full status snapshot on receipt
// rather than trusting the payload.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

func StaffCheckinEvent(code string) Event {
	return Event{Type: EventStaffCheckin, Data: map[string]string{"staffCode": code}}
}

func CRTCheckinEvent(code string) Event {
	return Event{Type: EventCRTCheckin, Data: map[string]string{"crtCode": code}}
}

func VisitorCheckinEvent(name string) Event {
	return Event{Type: EventVisitorCheckin, Data: map[string]string{"name": name}}
}

func StaffUploadEvent(count int) Event {
	return Event{Type: EventStaffUpload, Data: map[string]int{"count": count}}
}

func CRTUploadEvent(count int) Event {
	return Event{Type: EventCRTUpload, Data: map[string]int{"count": count}}
}

func AbsenceUploadEvent(count int) Event {
	return Event{Type: EventAbsenceUpload, Data: map[string]int{"count": count}}
}

func ResetAttendanceEvent() Event {
	return Event{Type: EventResetAttendance, Data: map[string]string{}}
}
