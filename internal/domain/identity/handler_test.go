package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/internal/platform/validate"
)

func newTestHandler() (*Handler, *mockPatientRepo, *mockEmployeeRepo, *echo.Echo) {
	svc, pr, er := newTestService()
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(svc), pr, er, e
}

func newRequest(method, body string, p *auth.Principal) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/", nil)
	} else {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req.WithContext(auth.WithPrincipal(context.Background(), p))
}

func TestHandler_GetPatientByUserID(t *testing.T) {
	h, pr, _, e := newTestHandler()
	pr.Create(context.Background(), &Patient{UserID: "u-alice"})

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodGet, "", patientAlice), rec)
	c.SetParamNames("userId")
	c.SetParamValues("u-alice")

	if err := h.GetPatientByUserID(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var dto PatientDTO
	json.Unmarshal(rec.Body.Bytes(), &dto)
	if dto.FullName != "" || dto.UserID != "u-alice" {
		t.Errorf("unexpected body %+v", dto)
	}
}

func TestHandler_GetPatient_InvalidID(t *testing.T) {
	h, _, _, e := newTestHandler()
	c := e.NewContext(newRequest(http.MethodGet, "", employeeIda), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")

	var ve *apperr.ValidationError
	if err := h.GetPatient(c); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandler_UpdatePatient(t *testing.T) {
	h, pr, _, e := newTestHandler()
	p := &Patient{UserID: "u-alice"}
	pr.Create(context.Background(), p)

	body := `{"patientId":` + strconv.Itoa(p.ID) + `,"fullName":"Alice Berg","address":"Storgata 1","dateOfBirth":"1950-01-02","phonenumber":"+4798765432","healthRelated_info":"None"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodPut, body, patientAlice), rec)
	c.SetParamNames("id")
	c.SetParamValues(strconv.Itoa(p.ID))

	if err := h.UpdatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	stored, _ := pr.GetByID(context.Background(), p.ID)
	if stored.FullName != "Alice Berg" || stored.DateOfBirth == nil {
		t.Errorf("unexpected stored patient %+v", stored)
	}
}

func TestHandler_UpdatePatient_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"bad name", `{"patientId":1,"fullName":"x","address":"a","dateOfBirth":"1950-01-02","healthRelated_info":"h"}`, "fullName"},
		{"bad phone", `{"patientId":1,"fullName":"Alice","address":"a","dateOfBirth":"1950-01-02","phonenumber":"12345","healthRelated_info":"h"}`, "phonenumber"},
		{"missing address", `{"patientId":1,"fullName":"Alice","dateOfBirth":"1950-01-02","healthRelated_info":"h"}`, "address"},
		{"missing birth date", `{"patientId":1,"fullName":"Alice","address":"a","healthRelated_info":"h"}`, "dateOfBirth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, pr, _, e := newTestHandler()
			pr.Create(context.Background(), &Patient{UserID: "u-alice"})
			c := e.NewContext(newRequest(http.MethodPut, tt.body, patientAlice), httptest.NewRecorder())
			c.SetParamNames("id")
			c.SetParamValues("1")

			err := h.UpdatePatient(c)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Fields[0].Field != tt.field {
				t.Errorf("expected field %s, got %+v", tt.field, ve.Fields)
			}
			if pr.updates != 0 {
				t.Error("repository updated despite invalid input")
			}
		})
	}
}

func TestHandler_ListEmployees(t *testing.T) {
	h, _, er, e := newTestHandler()
	er.Create(context.Background(), &Employee{FullName: "Ida Johansen", UserID: "u-ida"})
	er.Create(context.Background(), &Employee{FullName: "Per Andersen", UserID: "u-per"})

	rec := httptest.NewRecorder()
	c := e.NewContext(newRequest(http.MethodGet, "", patientAlice), rec)
	if err := h.ListEmployees(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out []EmployeeDTO
	json.Unmarshal(rec.Body.Bytes(), &out)
	if len(out) != 2 || out[0].FullName != "Ida Johansen" {
		t.Errorf("unexpected list %+v", out)
	}
}

func TestHandler_GetEmployee_NotFound(t *testing.T) {
	h, _, _, e := newTestHandler()
	c := e.NewContext(newRequest(http.MethodGet, "", patientAlice), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("7")

	if err := h.GetEmployee(c); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRoutes_PatientListRequiresEmployee(t *testing.T) {
	h, _, _, e := newTestHandler()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		status, body := apperr.Render(err)
		c.JSON(status, body)
	}
	issuer := auth.NewTokenIssuer(auth.JWTConfig{SigningKey: []byte("route-test-key")})
	api := e.Group("/api", auth.Optional(issuer))
	h.RegisterRoutes(api)

	tests := []struct {
		name   string
		roles  []string
		status int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"patient", []string{auth.RolePatient}, http.StatusForbidden},
		{"employee", []string{auth.RoleEmployee}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/patient", nil)
			if tt.roles != nil {
				tok, _ := issuer.Issue(auth.Account{ID: "u-1", Username: "x", Roles: tt.roles})
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}
