package staff

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	repo := newMockRepo()
	svc := NewService(repo)
	return NewHandler(svc), repo, echo.New()
}

func seedUser(t *testing.T, repo *mockRepo, email, name, role string) *User {
	t.Helper()
	u := &User{Email: email, Name: name, Role: role, Active: true}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func identifiedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, ident auth.Identity) echo.Context {
	req = req.WithContext(auth.WithIdentity(req.Context(), ident))
	return e.NewContext(req, rec)
}

func TestStaffHandler_Create(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"email":"new@clinic.test","name":"New Dentist","role":"dentist"}`
	req := httptest.NewRequest(http.MethodPost, "/staff", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var got User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.ID == uuid.Nil || got.Email != "new@clinic.test" {
		t.Errorf("response = %+v", got)
	}
}

func TestStaffHandler_CreateInvalidRole(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"email":"x@clinic.test","name":"X","role":"janitor"}`
	req := httptest.NewRequest(http.MethodPost, "/staff", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), `"kind":"validation"`) {
		t.Errorf("body = %s, want validation kind", rec.Body.String())
	}
}

func TestStaffHandler_Get(t *testing.T) {
	h, repo, e := newTestHandler()
	u := seedUser(t, repo, "get@clinic.test", "Get Me", auth.RoleDentist)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/staff/:id")
	c.SetParamNames("id")
	c.SetParamValues(u.ID.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestStaffHandler_GetNotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/staff/:id")
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestStaffHandler_ListByRole(t *testing.T) {
	h, repo, e := newTestHandler()
	seedUser(t, repo, "d1@clinic.test", "D1", auth.RoleDentist)
	seedUser(t, repo, "r1@clinic.test", "R1", auth.RoleReceptionist)

	req := httptest.NewRequest(http.MethodGet, "/staff?role=dentist", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Data  []*User `json:"data"`
		Total int     `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Fatalf("got %d items (total %d), want 1", len(resp.Data), resp.Total)
	}
	if resp.Data[0].Role != auth.RoleDentist {
		t.Errorf("role = %q, want dentist", resp.Data[0].Role)
	}
}

func TestStaffHandler_Delete(t *testing.T) {
	h, repo, e := newTestHandler()
	u := seedUser(t, repo, "del@clinic.test", "Del", auth.RoleReceptionist)

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/staff/:id")
	c.SetParamNames("id")
	c.SetParamValues(u.ID.String())

	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestStaffHandler_DeleteDentistWithAppointments(t *testing.T) {
	h, repo, e := newTestHandler()
	u := seedUser(t, repo, "busy@clinic.test", "Busy", auth.RoleDentist)
	repo.appointments[u.ID] = 1

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/staff/:id")
	c.SetParamNames("id")
	c.SetParamValues(u.ID.String())

	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestStaffHandler_Me(t *testing.T) {
	h, repo, e := newTestHandler()
	u := seedUser(t, repo, "self@clinic.test", "Self", auth.RoleDentist)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	c := identifiedContext(e, req, rec, auth.Identity{ID: u.ID, Role: u.Role})

	if err := h.GetMe(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("id = %s, want %s", got.ID, u.ID)
	}
}

func TestStaffHandler_UpdateMe(t *testing.T) {
	h, repo, e := newTestHandler()
	u := seedUser(t, repo, "self2@clinic.test", "Old", auth.RoleReceptionist)

	body := `{"name":"New","phone":"555-0199","role":"admin"}`
	req := httptest.NewRequest(http.MethodPut, "/me", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := identifiedContext(e, req, rec, auth.Identity{ID: u.ID, Role: u.Role})

	if err := h.UpdateMe(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	stored := repo.items[u.ID]
	if stored.Name != "New" {
		t.Errorf("name = %q, want %q", stored.Name, "New")
	}
	// A stray role field in the payload is ignored on this path.
	if stored.Role != auth.RoleReceptionist {
		t.Errorf("role = %q, want unchanged", stored.Role)
	}
}

func TestStaffHandler_MeUnauthenticated(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.GetMe(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestStaffHandler_RouteRegistration(t *testing.T) {
	h, _, e := newTestHandler()
	api := e.Group("/api/v1")
	h.RegisterRoutes(api)

	expected := map[string]bool{
		"GET:/api/v1/staff":        false,
		"GET:/api/v1/staff/:id":    false,
		"POST:/api/v1/staff":       false,
		"PUT:/api/v1/staff/:id":    false,
		"DELETE:/api/v1/staff/:id": false,
		"GET:/api/v1/me":           false,
		"PUT:/api/v1/me":           false,
	}
	for _, r := range e.Routes() {
		key := r.Method + ":" + r.Path
		if _, ok := expected[key]; ok {
			expected[key] = true
		}
	}
	for key, found := range expected {
		if !found {
			t.Errorf("route %s not registered", key)
		}
	}
}
