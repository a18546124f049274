package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing"

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("stream-deck", RoleOperator, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "stream-deck" {
		t.Errorf("Subject = %q", claims.Subject)
	}
	if claims.Role != RoleOperator {
		t.Errorf("Role = %q", claims.Role)
	}
	if claims.ID == "" {
		t.Error("JTI should not be empty")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("lifetime = %v, want 1h", got)
	}
}

func TestGenerateTokenDefaults(t *testing.T) {
	token, err := GenerateToken("cli", RoleViewer, testSecret, 0)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != DefaultTokenTTL {
		t.Errorf("lifetime = %v, want %v", got, DefaultTokenTTL)
	}
}

func TestGenerateTokenErrors(t *testing.T) {
	if _, err := GenerateToken("x", RoleViewer, "", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Errorf("empty secret error = %v", err)
	}
	if _, err := GenerateToken("x", Role("owner"), testSecret, time.Hour); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bad role error = %v", err)
	}
}

func TestParseTokenRejects(t *testing.T) {
	valid, err := GenerateToken("x", RoleViewer, testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	sign := func(c Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, c).SignedString(key)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	now := time.Now()
	base := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "x",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	expired := base
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	foreign := base
	foreign.Issuer = "someone-else"
	noSubject := base
	noSubject.Subject = ""
	noExpiry := base
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"garbage", "not-a-jwt", testSecret},
		{"wrong secret", valid, "other-secret"},
		{"expired", sign(Claims{RegisteredClaims: expired, Role: RoleViewer}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"foreign issuer", sign(Claims{RegisteredClaims: foreign, Role: RoleViewer}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"missing subject", sign(Claims{RegisteredClaims: noSubject, Role: RoleViewer}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"missing expiry", sign(Claims{RegisteredClaims: noExpiry, Role: RoleViewer}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"unknown role", sign(Claims{RegisteredClaims: base, Role: "owner"}, jwt.SigningMethodHS256, []byte(testSecret)), testSecret},
		{"hs512", sign(Claims{RegisteredClaims: base, Role: RoleViewer}, jwt.SigningMethodHS512, []byte(testSecret)), testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseToken(tt.token, tt.secret); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}

	if _, err := ParseToken(valid, ""); !errors.Is(err, ErrNoSecret) {
		t.Errorf("empty secret error = %v, want ErrNoSecret", err)
	}
}

func TestRole(t *testing.T) {
	if _, err := ParseRole("viewer"); err != nil {
		t.Errorf("ParseRole(viewer) = %v", err)
	}
	if _, err := ParseRole("admin"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("ParseRole(admin) = %v", err)
	}
	if RoleViewer.CanWrite() || !RoleOperator.CanWrite() {
		t.Error("CanWrite mismatch")
	}
}
