package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evacdesk/rollcall/internal/domain"
	"github.com/evacdesk/rollcall/internal/http/response"
	"github.com/evacdesk/rollcall/internal/service"
)

// AdminHandler serves the authenticated surface: roster and code uploads,
// the daily reset, and the CSV-shaped export.
type AdminHandler struct {
	svc service.AttendanceService
}

func NewAdminHandler(svc service.AttendanceService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/upload", func(r chi.Router) {
		r.Post("/staff", h.uploadStaff)
		r.Post("/crt", h.uploadCRT)
		r.Post("/absence", h.uploadAbsence)
	})
	r.Post("/reset", h.reset)
	r.Get("/export", h.export)
}

func (h *AdminHandler) uploadStaff(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StaffData []domain.RosterEntry `json:"staffData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if len(req.StaffData) == 0 {
		response.BadRequest(w, "staffData is required")
		return
	}

	if err := h.svc.UploadRoster(r.Context(), req.StaffData); err != nil {
		response.Domain(w, r, err)
		return
	}

	writeSuccess(w, fmt.Sprintf("Successfully processed %d staff records", len(req.StaffData)))
}

func (h *AdminHandler) uploadCRT(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CRTData []domain.AccessCodeEntry `json:"crtData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if len(req.CRTData) == 0 {
		response.BadRequest(w, "crtData is required")
		return
	}

	if err := h.svc.UploadAccessCodes(r.Context(), req.CRTData); err != nil {
		response.Domain(w, r, err)
		return
	}

	writeSuccess(w, fmt.Sprintf("Successfully processed %d CRT records", len(req.CRTData)))
}

func (h *AdminHandler) uploadAbsence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AbsenceData []domain.AbsenceEntry `json:"absenceData"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if len(req.AbsenceData) == 0 {
		response.BadRequest(w, "absenceData is required")
		return
	}

	if err := h.svc.UploadAbsences(r.Context(), req.AbsenceData); err != nil {
		response.Domain(w, r, err)
		return
	}

	writeSuccess(w, fmt.Sprintf("Successfully processed %d absence records", len(req.AbsenceData)))
}

func (h *AdminHandler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context()); err != nil {
		response.Domain(w, r, err)
		return
	}

	writeSuccess(w, "Successfully reset all attendance records for today")
}

func (h *AdminHandler) export(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Export(r.Context())
	if err != nil {
		response.Domain(w, r, err)
		return
	}

	if records == nil {
		records = []domain.ExportRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
