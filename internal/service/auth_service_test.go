package service

import (
	"strings"
	"testing"
	"time"

	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

func testAuthService(expiry time.Duration) *AuthService {
	return NewAuthService(&config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  expiry,
		BcryptCost: 4,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testAuthService(time.Hour)
	user := &model.User{ID: 42, Email: "ana@example.com", Role: model.RoleUser}

	token, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "ana@example.com" || claims.Role != model.RoleUser {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.IsAdmin() {
		t.Fatal("regular user claims must not report admin")
	}
}

func TestValidateTokenFailsClosed(t *testing.T) {
	svc := testAuthService(time.Hour)
	user := &model.User{ID: 7, Email: "x@example.com", Role: model.RoleAdmin}

	token, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	cases := map[string]string{
		"garbage":          "not-a-jwt",
		"empty":            "",
		"tampered payload": tamper(token),
	}
	for name, tok := range cases {
		if _, err := svc.ValidateToken(tok); err == nil {
			t.Errorf("%s: expected validation error, got none", name)
		}
	}

	other := testAuthService(time.Hour)
	other.cfg.JWTSecret = "different-secret"
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := testAuthService(-time.Minute)
	user := &model.User{ID: 7, Email: "x@example.com", Role: model.RoleUser}

	token, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("expired token must not validate")
	}
}

func TestPasswordHashAndCheck(t *testing.T) {
	svc := testAuthService(time.Hour)

	hash, err := svc.HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := svc.CheckPassword(hash, "s3cret!"); err != nil {
		t.Fatalf("CheckPassword with correct password: %v", err)
	}
	if err := svc.CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("CheckPassword must reject a wrong password")
	}
}

// tamper flips a character inside the payload segment of a JWT.
func tamper(token string) string {
	parts := strings.SplitN(token, ".", 3)
	if len(parts) != 3 || len(parts[1]) == 0 {
		return token + "x"
	}
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	return parts[0] + "." + string(payload) + "." + parts[2]
}
