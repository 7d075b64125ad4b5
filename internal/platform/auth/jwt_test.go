package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"spaces/internal/platform/config"
)

func newService() *TokenService {
	return NewTokenService(config.JWTConfig{
		Secret:         "test-secret",
		Issuer:         "spaces-test",
		AccessTokenTTL: time.Hour,
	})
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newService()

	token, err := svc.GenerateAccessToken("usr_1", "ada@example.com")
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != "usr_1" {
		t.Errorf("Expected user usr_1, got %s", claims.UserID)
	}
	if claims.Email != "ada@example.com" {
		t.Errorf("Expected email ada@example.com, got %s", claims.Email)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	svc := newService()

	other := NewTokenService(config.JWTConfig{Secret: "other", Issuer: "spaces-test", AccessTokenTTL: time.Hour})
	foreign, _ := other.GenerateAccessToken("usr_1", "")

	expiredSvc := newService()
	expiredSvc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredSvc.GenerateAccessToken("usr_1", "")

	wrongIssuer := NewTokenService(config.JWTConfig{Secret: "test-secret", Issuer: "elsewhere", AccessTokenTTL: time.Hour})
	misissued, _ := wrongIssuer.GenerateAccessToken("usr_1", "")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "usr_1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", expired},
		{"wrong issuer", misissued},
		{"unsigned", unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ValidateToken(tt.token); err == nil {
				t.Errorf("Expected %s token to be rejected", tt.name)
			}
		})
	}
}
