package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evacdesk/rollcall/internal/http/response"
	"github.com/evacdesk/rollcall/internal/service"
)

// CheckinHandler serves the public kiosk endpoints. These sit behind the rate
// limiter but require no authentication: during a drill anyone must be able
// to tap a code.
type CheckinHandler struct {
	svc service.AttendanceService
}

func NewCheckinHandler(svc service.AttendanceService) *CheckinHandler {
	return &CheckinHandler{svc: svc}
}

func (h *CheckinHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/staff", h.staff)
	r.Post("/crt", h.crt)
	r.Post("/visitor", h.visitor)
	return r
}

func (h *CheckinHandler) staff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StaffCode string `json:"staffCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.svc.CheckInStaff(r.Context(), req.StaffCode); err != nil {
		response.Domain(w, r, err)
		return
	}

	writeSuccess(w, "Staff check-in successful")
}

func (h *CheckinHandler) crt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CRTCode string `json:"crtCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.svc.CheckInCRT(r.Context(), req.CRTCode); err != nil {
		response.Domain(w, r, err)
		return
	}

	writeSuccess(w, "CRT check-in successful")
}

func (h *CheckinHandler) visitor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.svc.CheckInVisitor(r.Context(), req.Name); err != nil {
		response.Domain(w, r, err)
		return
	}

	writeSuccess(w, "Visitor check-in successful")
}
