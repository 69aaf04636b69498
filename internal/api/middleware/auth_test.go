package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/logbook/logbook-service/internal/core/domain"
)

type stubTokens struct {
	sessions   map[string]domain.Session
	resolved   []string
	resolveErr error
}

func (s *stubTokens) Issue(*domain.Account) (string, error) { return "", nil }

func (s *stubTokens) Resolve(_ context.Context, token string) (domain.Session, error) {
	s.resolved = append(s.resolved, token)
	if s.resolveErr != nil {
		return domain.Session{}, s.resolveErr
	}
	session, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, domain.ErrUnauthenticated
	}
	return session, nil
}

func runSession(t *testing.T, header string, tokens *stubTokens) (domain.Session, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		got    domain.Session
		found  bool
		called bool
	)
	mw := Session(tokens, zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		called = true
		got, found = SessionFrom(c)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	return got, found
}

func TestSessionMiddleware_ValidToken(t *testing.T) {
	tokens := &stubTokens{sessions: map[string]domain.Session{
		"good": {Username: "alice", Role: domain.RoleAdmin, FullName: "Alice"},
	}}

	s, ok := runSession(t, "Bearer good", tokens)
	if !ok {
		t.Fatalf("expected a session")
	}
	if s.Username != "alice" || s.Role != domain.RoleAdmin {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestSessionMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	tokens := &stubTokens{sessions: map[string]domain.Session{"good": {Username: "bob", Role: domain.RoleUser}}}

	if _, ok := runSession(t, "bearer good", tokens); !ok {
		t.Fatalf("expected a session")
	}
}

func TestSessionMiddleware_MissingHeader(t *testing.T) {
	tokens := &stubTokens{}

	if _, ok := runSession(t, "", tokens); ok {
		t.Fatalf("expected anonymous request")
	}
	if len(tokens.resolved) != 0 {
		t.Fatalf("no token should be resolved")
	}
}

func TestSessionMiddleware_InvalidHeader(t *testing.T) {
	tokens := &stubTokens{}

	if _, ok := runSession(t, "Token abc", tokens); ok {
		t.Fatalf("expected anonymous request")
	}
	if len(tokens.resolved) != 0 {
		t.Fatalf("malformed header must not be resolved")
	}
}

func TestSessionMiddleware_InvalidToken(t *testing.T) {
	tokens := &stubTokens{}

	if _, ok := runSession(t, "Bearer forged", tokens); ok {
		t.Fatalf("expected anonymous request")
	}
	if len(tokens.resolved) != 1 || tokens.resolved[0] != "forged" {
		t.Fatalf("expected the token to be resolved once, got %v", tokens.resolved)
	}
}

func TestSessionMiddleware_StoreFailureIsNotAnonymous(t *testing.T) {
	storeErr := errors.New("mongo unavailable")
	tokens := &stubTokens{resolveErr: fmt.Errorf("resolve session: %w", storeErr)}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	req.Header.Set("Authorization", "Bearer good")
	c := e.NewContext(req, httptest.NewRecorder())

	called := false
	handler := Session(tokens, zerolog.Nop())(func(c echo.Context) error {
		called = true
		return nil
	})

	err := handler(c)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected the store error to be returned, got %v", err)
	}
	if called {
		t.Fatalf("next must not run when the session cannot be resolved")
	}
}
