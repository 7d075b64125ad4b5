package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apiContext "spaces/internal/api/context"
	"spaces/internal/platform/auth"
	"spaces/internal/platform/config"
)

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenService(config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour})
	valid, err := tokens.GenerateAccessToken("usr_1", "ada@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"no token", "Bearer", http.StatusUnauthorized},
	}

	m := NewAuthMiddleware(tokens)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			m.Handle(func(w http.ResponseWriter, r *http.Request) {
				claims, ok := apiContext.ClaimsFrom(r.Context())
				if !ok || claims.UserID != "usr_1" {
					t.Errorf("Expected claims for usr_1, got %+v", claims)
				}
				w.WriteHeader(http.StatusOK)
			}).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, rr.Code)
			}
		})
	}
}
