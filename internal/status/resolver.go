// Package status classifies every staff member into exactly one status for a
// day. The cascade is strict: a check-in beats a recorded absence, which beats
// a non-working-day designation; anything else is unaccounted.
package status

import (
	"sort"

	"github.com/evacdesk/rollcall/internal/domain"
)

// Resolve computes one status per staff member. checkedIn and absent are sets
// of staff IDs with at least one check-in / an absence marker for the day.
// It never fails on missing data: nil sets and empty non-working-day lists
// simply fall through to unaccounted. Output order follows the input roster;
// sorting is the caller's concern.
func Resolve(staff []domain.StaffMember, checkedIn, absent map[string]bool, weekday string) []domain.StaffStatusRow {
	rows := make([]domain.StaffStatusRow, 0, len(staff))
	for i := range staff {
		s := &staff[i]
		rows = append(rows, domain.StaffStatusRow{
			ID:        s.ID,
			FirstName: s.FirstName,
			LastName:  s.LastName,
			WorkArea:  s.WorkArea,
			Status:    resolveOne(s, checkedIn, absent, weekday),
		})
	}
	return rows
}

func resolveOne(s *domain.StaffMember, checkedIn, absent map[string]bool, weekday string) domain.Status {
	switch {
	case checkedIn[s.ID]:
		return domain.StatusPresent
	case absent[s.ID]:
		return domain.StatusAbsent
	case s.NonWorkingOn(weekday):
		return domain.StatusNonWorking
	default:
		return domain.StatusUnaccounted
	}
}

// SortByName orders rows by family name then given name (the public display
// order).
func SortByName(rows []domain.StaffStatusRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LastName != rows[j].LastName {
			return rows[i].LastName < rows[j].LastName
		}
		return rows[i].FirstName < rows[j].FirstName
	})
}

// statusRank puts the people who still need chasing first.
var statusRank = map[domain.Status]int{
	domain.StatusUnaccounted: 0,
	domain.StatusAbsent:      1,
	domain.StatusNonWorking:  2,
	domain.StatusPresent:     3,
}

// SortByPriority orders rows unaccounted-first, then by name within each
// status (the admin display order).
func SortByPriority(rows []domain.StaffStatusRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := statusRank[rows[i].Status], statusRank[rows[j].Status]
		if ri != rj {
			return ri < rj
		}
		if rows[i].LastName != rows[j].LastName {
			return rows[i].LastName < rows[j].LastName
		}
		return rows[i].FirstName < rows[j].FirstName
	})
}
