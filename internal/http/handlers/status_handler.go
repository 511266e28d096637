package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evacdesk/rollcall/internal/domain"
	"github.com/evacdesk/rollcall/internal/http/response"
	"github.com/evacdesk/rollcall/internal/service"
	"github.com/evacdesk/rollcall/internal/status"
)

// StatusHandler serves the read side: the resolved board, the visitor
// counter, and the staff lookup the kiosk uses before check-in.
type StatusHandler struct {
	svc service.AttendanceService
}

func NewStatusHandler(svc service.AttendanceService) *StatusHandler {
	return &StatusHandler{svc: svc}
}

func (h *StatusHandler) Register(r chi.Router) {
	r.Get("/staff-status", h.staffStatus)
	r.Get("/visitor-count", h.visitorCount)
	r.Get("/staff/{code}", h.staffByCode)
}

func (h *StatusHandler) staffStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.StaffStatus(r.Context())
	if err != nil {
		response.Domain(w, r, err)
		return
	}

	// Alphabetical is the default; priority floats the people a marshal
	// still needs to find to the top of the board.
	if r.URL.Query().Get("sort") == "priority" {
		status.SortByPriority(rows)
	}

	if rows == nil {
		rows = []domain.StaffStatusRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *StatusHandler) visitorCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.svc.VisitorCount(r.Context())
	if err != nil {
		response.Domain(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *StatusHandler) staffByCode(w http.ResponseWriter, r *http.Request) {
	member, err := h.svc.FindStaff(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if domain.IsNotFound(err) {
			response.NotFound(w, "Staff not found")
			return
		}
		response.Domain(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": member.ID})
}
