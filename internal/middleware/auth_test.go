package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/cliplink/cliplink-api/internal/pkg/jwt"
)

func authedRequest(t *testing.T, svc *jwt.Service, userID uuid.UUID, role string) *http.Request {
	t.Helper()
	token, err := svc.GenerateAccessToken(userID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthPassesClaimsToContext(t *testing.T) {
	svc := jwt.NewService("test-secret", time.Minute)
	userID := uuid.New()

	var gotID uuid.UUID
	var gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
	})

	rec := httptest.NewRecorder()
	Auth(svc)(next).ServeHTTP(rec, authedRequest(t, svc, userID, jwt.RoleCreator))

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	if gotID != userID {
		t.Fatalf("user id = %s, want %s", gotID, userID)
	}
	if gotRole != jwt.RoleCreator {
		t.Fatalf("role = %q, want %q", gotRole, jwt.RoleCreator)
	}
}

func TestAuthRejectsBadTokens(t *testing.T) {
	svc := jwt.NewService("test-secret", time.Minute)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})
	handler := Auth(svc)(next)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("got %d, want 401", rec.Code)
			}
		})
	}
}

func TestAuthRejectsTokenFromOtherSecret(t *testing.T) {
	issuer := jwt.NewService("other-secret", time.Minute)
	svc := jwt.NewService("test-secret", time.Minute)

	rec := httptest.NewRecorder()
	Auth(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, authedRequest(t, issuer, uuid.New(), jwt.RoleAdmin))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	svc := jwt.NewService("test-secret", time.Minute)

	handler := Auth(svc)(RequireRole(jwt.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(t, svc, uuid.New(), jwt.RoleCreator))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("creator got %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(t, svc, uuid.New(), jwt.RoleAdmin))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin got %d, want 204", rec.Code)
	}
}
