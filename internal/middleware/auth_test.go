package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tmcf/paceline/internal/config"
	"github.com/tmcf/paceline/internal/session"
)

func testSessions(t *testing.T) *session.Service {
	t.Helper()

	svc, err := session.NewService(&config.Config{
		SessionSecret: strings.Repeat("s", 32),
		SessionTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("session.NewService error: %v", err)
	}
	return svc
}

func protectedEcho(t *testing.T, sessions *session.Service) http.Handler {
	t.Helper()

	return SessionAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := AthleteID(r)
		if !ok {
			t.Error("expected athlete ID in context")
		}
		if id != 42 {
			t.Errorf("expected athlete 42, got %d", id)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestSessionAuthAcceptsValidToken(t *testing.T) {
	sessions := testSessions(t)
	handler := protectedEcho(t, sessions)

	token, err := sessions.Issue(42)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/athlete", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestSessionAuthRejectsMissingHeader(t *testing.T) {
	handler := protectedEcho(t, testSessions(t))

	req := httptest.NewRequest(http.MethodGet, "/api/athlete", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestSessionAuthRejectsGarbageToken(t *testing.T) {
	handler := protectedEcho(t, testSessions(t))

	for _, header := range []string{"Bearer garbage", "Basic dXNlcjpwYXNz", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/athlete", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rr.Code)
		}
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := NewChain(mw("first"), mw("second")).ThenFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	want := []string{"first", "second", "handler"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}
