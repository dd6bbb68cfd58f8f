package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/consultacpf/consulta-clientes/internal/account"
	"github.com/consultacpf/consulta-clientes/internal/config"
)

// Keys under which the JWT middleware stores the caller in fiber locals.
const (
	LocalAccountID = "account_id"
	LocalRole      = "role"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenInvalidated = errors.New("token version invalidated")
)

// Claims is the verified content of an access or refresh token.
type Claims struct {
	AccountID int64
	Role      string
	Version   int
}

// Service issues and verifies tokens for accounts.
type Service struct {
	cfg      config.Config
	accounts account.Repository
}

func NewService(cfg config.Config, accounts account.Repository) *Service {
	return &Service{cfg: cfg, accounts: accounts}
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login issues a token pair for an already authenticated account.
func (s *Service) Login(acc account.Account) (TokenPair, error) {
	access, err := s.sign(acc, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(acc, s.cfg.RefreshSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: int64(s.cfg.AccessTokenTTL.Seconds())}, nil
}

func (s *Service) sign(acc account.Account, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := map[string]any{
		"sub":  strconv.FormatInt(acc.ID, 10),
		"role": acc.Role,
		"ver":  acc.TokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return SignHS256(claims, []byte(secret))
}

// Authorize verifies an access token against the stored token version and
// returns the current account.
func (s *Service) Authorize(ctx context.Context, accessToken string) (account.Account, error) {
	return s.verify(ctx, accessToken, s.cfg.JWTSecret)
}

// Refresh verifies the refresh token and returns a new access token if valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, int64, error) {
	acc, err := s.verify(ctx, refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		return "", 0, err
	}
	signed, err := s.sign(acc, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.cfg.AccessTokenTTL.Seconds()), nil
}

// Logout increments the token version so older tokens become invalid.
func (s *Service) Logout(ctx context.Context, accountID int64) error {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	return s.accounts.UpdateTokenVersion(ctx, acc.ID, acc.TokenVersion+1)
}

func (s *Service) verify(ctx context.Context, token, secret string) (account.Account, error) {
	claims, err := parseClaims(token, secret)
	if err != nil {
		return account.Account{}, err
	}
	acc, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		return account.Account{}, ErrInvalidToken
	}
	if acc.TokenVersion != claims.Version {
		return account.Account{}, ErrTokenInvalidated
	}
	return acc, nil
}

func parseClaims(token, secret string) (Claims, error) {
	raw, err := ParseAndVerifyHS256(token, []byte(secret))
	if errors.Is(err, ErrTokenExpired) {
		return Claims{}, err
	}
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	sub, _ := raw["sub"].(string)
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	role, _ := raw["role"].(string)
	ver, _ := raw["ver"].(float64)
	return Claims{AccountID: id, Role: role, Version: int(ver)}, nil
}
