package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lims/lims/internal/domain/accounts"
	"github.com/lims/lims/pkg/laberr"
)

var testCfg = TokenConfig{
	SigningKey: []byte("0123456789abcdef0123456789abcdef"),
	TTL:        time.Hour,
}

func TestIssueParseRoundTrip(t *testing.T) {
	id := uuid.New()
	token, err := Issue(testCfg, id, "doctor")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := Parse(testCfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != id.String() || claims.Role != "doctor" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	cfg := TokenConfig{SigningKey: testCfg.SigningKey, TTL: -time.Minute}
	token, err := Issue(cfg, uuid.New(), "doctor")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(testCfg, token); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, err := Issue(testCfg, uuid.New(), "doctor")
	if err != nil {
		t.Fatal(err)
	}
	other := TokenConfig{SigningKey: []byte("ffffffffffffffffffffffffffffffff"), TTL: time.Hour}
	if _, err := Parse(other, token); err == nil {
		t.Fatal("expected signature error")
	}
}

type stubSource struct {
	users map[uuid.UUID]*accounts.User
}

func (s *stubSource) GetAccount(_ context.Context, id uuid.UUID) (*accounts.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, laberr.NotFound("user", id.String())
	}
	return u, nil
}

func TestMiddlewareResolvesActor(t *testing.T) {
	u := &accounts.User{ID: uuid.New(), Username: "doc", Role: accounts.RoleDoctor, IsActive: true}
	source := &stubSource{users: map[uuid.UUID]*accounts.User{u.ID: u}}
	token, _ := Issue(testCfg, u.ID, string(u.Role))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *accounts.User
	h := Middleware(testCfg, source)(func(c echo.Context) error {
		got = accounts.ActorFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatal("actor not placed on context")
	}
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Middleware(testCfg, &stubSource{})(func(c echo.Context) error { return nil })
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestMiddlewareRejectsUnknownAccount(t *testing.T) {
	token, _ := Issue(testCfg, uuid.New(), "doctor")

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := Middleware(testCfg, &stubSource{users: map[uuid.UUID]*accounts.User{}})(func(c echo.Context) error { return nil })
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
