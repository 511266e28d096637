package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"

	"github.com/evacdesk/rollcall/internal/domain"
	apimw "github.com/evacdesk/rollcall/internal/http/middleware"
	"github.com/evacdesk/rollcall/internal/platform/auth"
	"github.com/evacdesk/rollcall/internal/repo/postgres"
)

// mockService is a scriptable AttendanceService.
type mockService struct {
	statusRows []domain.StaffStatusRow
	statusErr  error
	member     *domain.StaffMember
	findErr    error
	visitorN   int
	checkInErr error
	uploadErr  error
	resetErr   error
	exported   []domain.ExportRecord

	checkIns []string
	visitors []string
	rosters  [][]domain.RosterEntry
	resets   int
}

func (m *mockService) StaffStatus(ctx context.Context) ([]domain.StaffStatusRow, error) {
	return m.statusRows, m.statusErr
}

func (m *mockService) FindStaff(ctx context.Context, code string) (*domain.StaffMember, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.member, nil
}

func (m *mockService) VisitorCount(ctx context.Context) (int, error) {
	return m.visitorN, nil
}

func (m *mockService) CheckInStaff(ctx context.Context, code string) error {
	if m.checkInErr != nil {
		return m.checkInErr
	}
	m.checkIns = append(m.checkIns, code)
	return nil
}

func (m *mockService) CheckInCRT(ctx context.Context, code string) error {
	return m.checkInErr
}

func (m *mockService) CheckInVisitor(ctx context.Context, name string) error {
	if m.checkInErr != nil {
		return m.checkInErr
	}
	m.visitors = append(m.visitors, name)
	return nil
}

func (m *mockService) UploadRoster(ctx context.Context, entries []domain.RosterEntry) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.rosters = append(m.rosters, entries)
	return nil
}

func (m *mockService) UploadAccessCodes(ctx context.Context, entries []domain.AccessCodeEntry) error {
	return m.uploadErr
}

func (m *mockService) UploadAbsences(ctx context.Context, entries []domain.AbsenceEntry) error {
	return m.uploadErr
}

func (m *mockService) Reset(ctx context.Context) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	m.resets++
	return nil
}

func (m *mockService) Export(ctx context.Context) ([]domain.ExportRecord, error) {
	return m.exported, nil
}

// mockAdminRepo backs the login handler.
type mockAdminRepo struct {
	admin *postgres.Admin
}

func (m *mockAdminRepo) FindByEmail(ctx context.Context, email string) (*postgres.Admin, error) {
	if m.admin != nil && m.admin.Email == email {
		return m.admin, nil
	}
	return nil, nil
}

func (m *mockAdminRepo) Ensure(ctx context.Context, email, passwordHash string) error {
	return nil
}

var testTokens = auth.New("test-secret")

func newRouter(svc *mockService, admins postgres.AdminRepo) http.Handler {
	checkin := NewCheckinHandler(svc)
	status := NewStatusHandler(svc)
	admin := NewAdminHandler(svc)
	authH := NewAuthHandler(admins, testTokens, time.Hour)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		status.Register(r)
		r.Mount("/auth", authH.Routes())
		r.Mount("/checkin", checkin.Routes())
		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAdmin(testTokens))
			admin.Register(r)
		})
	})
	return r
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, h http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(into); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func adminHeader(t *testing.T) map[string]string {
	t.Helper()
	token, err := testTokens.NewAdminToken("admin@example.com", time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestStaffCheckin(t *testing.T) {
	svc := &mockService{}
	h := newRouter(svc, &mockAdminRepo{})

	w := postJSON(t, h, "/api/checkin/staff", map[string]string{"staffCode": "adac"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp successResponse
	decodeBody(t, w, &resp)
	if !resp.Success || resp.Message != "Staff check-in successful" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if len(svc.checkIns) != 1 || svc.checkIns[0] != "adac" {
		t.Errorf("expected the raw code passed through, got %v", svc.checkIns)
	}
}

func TestStaffCheckinUnknownCode(t *testing.T) {
	svc := &mockService{checkInErr: &domain.NotFoundError{Resource: "staff code", Key: "NOPE"}}
	h := newRouter(svc, &mockAdminRepo{})

	w := postJSON(t, h, "/api/checkin/staff", map[string]string{"staffCode": "NOPE"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown code, got %d", w.Code)
	}
}

func TestStaffCheckinMalformedBody(t *testing.T) {
	h := newRouter(&mockService{}, &mockAdminRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/checkin/staff", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestCRTCheckin(t *testing.T) {
	h := newRouter(&mockService{}, &mockAdminRepo{})

	w := postJSON(t, h, "/api/checkin/crt", map[string]string{"crtCode": "CRT7"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp successResponse
	decodeBody(t, w, &resp)
	if resp.Message != "CRT check-in successful" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
}

func TestVisitorCheckin(t *testing.T) {
	svc := &mockService{}
	h := newRouter(svc, &mockAdminRepo{})

	w := postJSON(t, h, "/api/checkin/visitor", map[string]string{"name": "Jane Doe"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(svc.visitors) != 1 {
		t.Errorf("expected one visitor recorded, got %v", svc.visitors)
	}
}

func TestStaffStatusSorting(t *testing.T) {
	svc := &mockService{statusRows: []domain.StaffStatusRow{
		{ID: "s1", FirstName: "Ada", LastName: "Lovelace", Status: domain.StatusPresent},
		{ID: "s2", FirstName: "Grace", LastName: "Hopper", Status: domain.StatusUnaccounted},
	}}
	h := newRouter(svc, &mockAdminRepo{})

	w := get(t, h, "/api/staff-status?sort=priority", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var rows []domain.StaffStatusRow
	decodeBody(t, w, &rows)
	if len(rows) != 2 || rows[0].ID != "s2" {
		t.Errorf("expected unaccounted first under priority sort, got %v", rows)
	}
}

func TestStaffStatusEmptyRosterIsEmptyArray(t *testing.T) {
	h := newRouter(&mockService{}, &mockAdminRepo{})

	w := get(t, h, "/api/staff-status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %s", body)
	}
}

func TestVisitorCount(t *testing.T) {
	h := newRouter(&mockService{visitorN: 4}, &mockAdminRepo{})

	w := get(t, h, "/api/visitor-count", nil)
	var resp map[string]int
	decodeBody(t, w, &resp)
	if resp["count"] != 4 {
		t.Errorf("expected count 4, got %v", resp)
	}
}

func TestStaffLookup(t *testing.T) {
	svc := &mockService{member: &domain.StaffMember{ID: "s1", Code: "ADAC"}}
	h := newRouter(svc, &mockAdminRepo{})

	w := get(t, h, "/api/staff/ADAC", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["id"] != "s1" {
		t.Errorf("expected id s1, got %v", resp)
	}
}

func TestStaffLookupNotFound(t *testing.T) {
	svc := &mockService{findErr: &domain.NotFoundError{Resource: "staff", Key: "NOPE"}}
	h := newRouter(svc, &mockAdminRepo{})

	w := get(t, h, "/api/staff/NOPE", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAdminEndpointsRequireToken(t *testing.T) {
	h := newRouter(&mockService{}, &mockAdminRepo{})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/upload/staff"},
		{http.MethodPost, "/api/upload/crt"},
		{http.MethodPost, "/api/upload/absence"},
		{http.MethodPost, "/api/reset"},
		{http.MethodGet, "/api/export"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, strings.NewReader("{}"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without token, got %d", p.method, p.path, w.Code)
		}
	}
}

func TestUploadStaff(t *testing.T) {
	svc := &mockService{}
	h := newRouter(svc, &mockAdminRepo{})

	body := map[string]interface{}{
		"staffData": []domain.RosterEntry{
			{Code: "A1", FirstName: "Ada", LastName: "Lovelace", WorkArea: "Office"},
			{Code: "A2", FirstName: "Grace", LastName: "Hopper", WorkArea: "Office"},
		},
	}
	w := postJSON(t, h, "/api/upload/staff", body, adminHeader(t))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp successResponse
	decodeBody(t, w, &resp)
	if resp.Message != "Successfully processed 2 staff records" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if len(svc.rosters) != 1 {
		t.Errorf("expected one roster upload, got %d", len(svc.rosters))
	}
}

func TestUploadStaffValidationErrorsIncludeRows(t *testing.T) {
	svc := &mockService{uploadErr: &domain.ValidationError{Rows: []domain.RowError{
		{Row: 1, Field: "code", Message: "code is required"},
	}}}
	h := newRouter(svc, &mockAdminRepo{})

	body := map[string]interface{}{
		"staffData": []domain.RosterEntry{{FirstName: "Ada"}},
	}
	w := postJSON(t, h, "/api/upload/staff", body, adminHeader(t))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var resp struct {
		Error string            `json:"error"`
		Code  string            `json:"code"`
		Rows  []domain.RowError `json:"rows"`
	}
	decodeBody(t, w, &resp)
	if resp.Code != "INVALID_INPUT" || len(resp.Rows) != 1 {
		t.Errorf("expected row-level detail, got %+v", resp)
	}
}

func TestUploadStaffEmptyBatch(t *testing.T) {
	h := newRouter(&mockService{}, &mockAdminRepo{})

	w := postJSON(t, h, "/api/upload/staff", map[string]interface{}{"staffData": []domain.RosterEntry{}}, adminHeader(t))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty batch, got %d", w.Code)
	}
}

func TestReset(t *testing.T) {
	svc := &mockService{}
	h := newRouter(svc, &mockAdminRepo{})

	w := postJSON(t, h, "/api/reset", map[string]string{}, adminHeader(t))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp successResponse
	decodeBody(t, w, &resp)
	if resp.Message != "Successfully reset all attendance records for today" {
		t.Errorf("unexpected message: %q", resp.Message)
	}
	if svc.resets != 1 {
		t.Errorf("expected one reset, got %d", svc.resets)
	}
}

func TestExportEmptyDayIsEmptyArray(t *testing.T) {
	h := newRouter(&mockService{}, &mockAdminRepo{})

	w := get(t, h, "/api/export", adminHeader(t))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %s", body)
	}
}

func TestLogin(t *testing.T) {

	hash, err := argon2id.CreateHash("hunter2", argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	admins := &mockAdminRepo{admin: &postgres.Admin{Email: "admin@example.com", PasswordHash: hash}}
	h := newRouter(&mockService{}, admins)

	w := postJSON(t, h, "/api/auth/login", map[string]string{
		"email":    "Admin@Example.com",
		"password": "hunter2",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	decodeBody(t, w, &resp)
	if resp.Token == "" || resp.ExpiresIn != 3600 {
		t.Errorf("unexpected login response: %+v", resp)
	}

	claims, err := testTokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("minted token does not parse: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("expected admin role, got %q", claims.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {

	hash, err := argon2id.CreateHash("hunter2", argon2id.DefaultParams)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	admins := &mockAdminRepo{admin: &postgres.Admin{Email: "admin@example.com", PasswordHash: hash}}
	h := newRouter(&mockService{}, admins)

	w := postJSON(t, h, "/api/auth/login", map[string]string{
		"email":    "admin@example.com",
		"password": "wrong",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	h := newRouter(&mockService{}, &mockAdminRepo{})

	w := postJSON(t, h, "/api/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "whatever",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}
