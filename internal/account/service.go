package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// Service manages operator accounts.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new account service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create registers an account with a bcrypt-hashed password. Role defaults
// to user.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return Account{}, ErrInvalidUsername
	}
	role := in.Role
	if role == "" {
		role = RoleUser
	}
	if !validRole(role) {
		return Account{}, ErrInvalidRole
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return Account{}, err
	}

	return s.repo.Create(ctx, Account{Username: username, PasswordHash: hash, Role: role})
}

// Authenticate verifies a username and password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Account, error) {
	acc, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	return s.repo.FindByID(ctx, id)
}

// Update renames an account and optionally resets its password or role.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Account, error) {
	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}

	if username := strings.TrimSpace(in.Username); username != "" {
		acc.Username = username
	} else if in.Username != "" {
		return Account{}, ErrInvalidUsername
	}

	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return Account{}, err
		}
		acc.PasswordHash = hash
	}

	if in.Role != "" && in.Role != acc.Role {
		if !validRole(in.Role) {
			return Account{}, ErrInvalidRole
		}
		if acc.IsAdmin() {
			if err := s.ensureAnotherAdmin(ctx); err != nil {
				return Account{}, err
			}
		}
		acc.Role = in.Role
	}

	if err := s.repo.Update(ctx, acc); err != nil {
		return Account{}, err
	}
	return acc, nil
}

// Delete removes an account. The last admin cannot be removed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if acc.IsAdmin() {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}
	return s.repo.Delete(ctx, id)
}

// EnsureAdmin seeds an admin account when none exists. An empty password is
// replaced by a random one that is logged once. If the username is already
// taken by a regular account, that account is promoted instead.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.repo.CountByRole(ctx, RoleAdmin)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	generated := password == ""
	if generated {
		password = uuid.NewString()
	}

	acc, err := s.Create(ctx, CreateInput{Username: username, Password: password, Role: RoleAdmin})
	if errors.Is(err, ErrUsernameTaken) {
		existing, findErr := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
		if findErr != nil {
			return false, findErr
		}
		existing.Role = RoleAdmin
		if err := s.repo.Update(ctx, existing); err != nil {
			return false, fmt.Errorf("promote %s: %w", existing.Username, err)
		}
		s.logger.Warn("existing account promoted to admin", slog.String("username", existing.Username))
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	if generated {
		s.logger.Warn("admin account created with generated password",
			slog.String("username", acc.Username), slog.String("password", password))
	} else {
		s.logger.Info("admin account created", slog.String("username", acc.Username))
	}
	return true, nil
}

func (s *Service) ensureAnotherAdmin(ctx context.Context) error {
	n, err := s.repo.CountByRole(ctx, RoleAdmin)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("%w: need at least %d characters", ErrWeakPassword, minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func validRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
