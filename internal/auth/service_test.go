package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/consultacpf/consulta-clientes/internal/account"
	"github.com/consultacpf/consulta-clientes/internal/config"
)

func newTestAuth(t *testing.T) (*Service, account.Account) {
	t.Helper()
	repo := account.NewMemoryRepository()
	acc, err := repo.Create(context.Background(), account.Account{Username: "ana", PasswordHash: "x", Role: account.RoleAdmin})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	cfg := config.Config{
		JWTSecret:       "access",
		RefreshSecret:   "refresh",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
	return NewService(cfg, repo), acc
}

func TestLoginAuthorizeAndLogout(t *testing.T) {
	svc, acc := newTestAuth(t)
	ctx := context.Background()

	pair, err := svc.Login(acc)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	got, err := svc.Authorize(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if got.ID != acc.ID || got.Role != account.RoleAdmin {
		t.Fatalf("unexpected account %+v", got)
	}

	// access and refresh tokens are signed with different secrets
	if _, err := svc.Authorize(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected refresh token to be rejected as access token, got %v", err)
	}

	refreshed, _, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := svc.Authorize(ctx, refreshed); err != nil {
		t.Fatalf("authorize refreshed token: %v", err)
	}

	if err := svc.Logout(ctx, acc.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authorize(ctx, pair.AccessToken); !errors.Is(err, ErrTokenInvalidated) {
		t.Fatalf("expected ErrTokenInvalidated after logout, got %v", err)
	}
	if _, _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrTokenInvalidated) {
		t.Fatalf("expected refresh to fail after logout, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := SignHS256(map[string]any{"sub": "1", "exp": time.Now().Add(-time.Second).Unix()}, []byte("s"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, []byte("s")); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTamperedToken(t *testing.T) {
	token, err := SignHS256(map[string]any{"sub": "1"}, []byte("s"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, []byte("other")); err == nil {
		t.Fatalf("expected signature mismatch")
	}
	if _, err := ParseAndVerifyHS256("a.b", []byte("s")); err == nil {
		t.Fatalf("expected format error")
	}
}
