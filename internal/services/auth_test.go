package services

import (
	"testing"

	"github.com/planhive/planhive/backend/internal/config"
	"github.com/planhive/planhive/backend/internal/utils"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	utils.SetJWTSecret("test-secret")
	return NewAuthService(setupTestDB(t), &config.JWTConfig{
		Secret:            "test-secret",
		ExpireHour:        1,
		RefreshExpireHour: 24,
	})
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc := newAuthService(t)

	user, err := svc.SignUp(&SignUpRequest{Name: "alice", Email: "alice@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if user.ID == 0 {
		t.Error("user should be persisted with an id")
	}

	_, err = svc.SignUp(&SignUpRequest{Name: "alice2", Email: "alice@example.com", Password: "secret456"})
	if !IsKind(err, KindValidation) {
		t.Errorf("duplicate SignUp error = %v, expected KindValidation", err)
	}
}

func TestLogin_IssuesTokenPair(t *testing.T) {
	svc := newAuthService(t)

	if _, err := svc.SignUp(&SignUpRequest{Name: "alice", Email: "alice@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	result, err := svc.Login(&LoginRequest{Email: "alice@example.com", Password: "secret123"}, "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.AccessToken == "" {
		t.Error("access token should be issued")
	}
	if result.RefreshToken == "" {
		t.Error("refresh token should be issued")
	}

	claims, err := utils.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("issued token failed to parse: %v", err)
	}
	if claims.Name != "alice" {
		t.Errorf("claims name = %q, expected %q", claims.Name, "alice")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := newAuthService(t)

	if _, err := svc.SignUp(&SignUpRequest{Name: "alice", Email: "alice@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	_, err := svc.Login(&LoginRequest{Email: "alice@example.com", Password: "wrong"}, "127.0.0.1", "test")
	if !IsKind(err, KindValidation) {
		t.Errorf("wrong password error = %v, expected KindValidation", err)
	}

	_, err = svc.Login(&LoginRequest{Email: "nobody@example.com", Password: "secret123"}, "127.0.0.1", "test")
	if !IsKind(err, KindValidation) {
		t.Errorf("unknown email error = %v, expected KindValidation", err)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc := newAuthService(t)

	if _, err := svc.SignUp(&SignUpRequest{Name: "alice", Email: "alice@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	login, err := svc.Login(&LoginRequest{Email: "alice@example.com", Password: "secret123"}, "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rotated, err := svc.Refresh(login.RefreshToken, "127.0.0.1", "test")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if rotated.RefreshToken == login.RefreshToken {
		t.Error("refresh should rotate the token")
	}

	// the old token is revoked and cannot be replayed
	if _, err := svc.Refresh(login.RefreshToken, "127.0.0.1", "test"); err == nil {
		t.Error("replaying a rotated refresh token should fail")
	}

	// the new token still works
	if _, err := svc.Refresh(rotated.RefreshToken, "127.0.0.1", "test"); err != nil {
		t.Errorf("rotated token should be usable: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newAuthService(t)

	user, err := svc.SignUp(&SignUpRequest{Name: "alice", Email: "alice@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	err = svc.ChangePassword(user.ID, &ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newsecret1"})
	if !IsKind(err, KindValidation) {
		t.Errorf("wrong old password error = %v, expected KindValidation", err)
	}

	if err := svc.ChangePassword(user.ID, &ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret1"}); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := svc.Login(&LoginRequest{Email: "alice@example.com", Password: "newsecret1"}, "127.0.0.1", "test"); err != nil {
		t.Errorf("login with new password failed: %v", err)
	}
}
