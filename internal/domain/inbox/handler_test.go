package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/pkg/pagination"
)

func newContext(e *echo.Echo, method, target string, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(auth.WithPrincipal(context.Background(), p))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_ListNotifications(t *testing.T) {
	svc, repo := newTestService()
	seed(repo, "u-kari", 3)
	h := NewHandler(svc)
	e := echo.New()

	c, rec := newContext(e, http.MethodGet, "/?limit=2", kari)
	if err := h.ListNotifications(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Header().Get(pagination.TotalCountHeader) != "3" {
		t.Errorf("expected total 3, got %q", rec.Header().Get(pagination.TotalCountHeader))
	}
	var out []NotificationDTO
	json.Unmarshal(rec.Body.Bytes(), &out)
	if len(out) != 2 || out[0].Type != "appointment" || out[0].UserID != "u-kari" {
		t.Errorf("unexpected body %+v", out)
	}
}

func TestHandler_UnreadCount(t *testing.T) {
	svc, repo := newTestService()
	seed(repo, "u-kari", 2)
	h := NewHandler(svc)
	e := echo.New()

	c, rec := newContext(e, http.MethodGet, "/", kari)
	if err := h.UnreadCount(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := rec.Body.String(); body != "2\n" {
		t.Errorf("expected bare number, got %q", body)
	}
}

func TestHandler_MarkRead(t *testing.T) {
	svc, repo := newTestService()
	seed(repo, "u-kari", 1)
	h := NewHandler(svc)
	e := echo.New()

	c, rec := newContext(e, http.MethodPut, "/", kari)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.MarkRead(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	c, _ = newContext(e, http.MethodPut, "/", kari)
	c.SetParamNames("id")
	c.SetParamValues("x")
	var ve *apperr.ValidationError
	if err := h.MarkRead(c); !errors.As(err, &ve) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRoutes_RequireAuth(t *testing.T) {
	svc, _ := newTestService()
	e := echo.New()
	issuer := auth.NewTokenIssuer(auth.JWTConfig{SigningKey: []byte("route-test-key")})
	NewHandler(svc).RegisterRoutes(e.Group("/api", auth.Optional(issuer)))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notification/unread-count", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
