package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/consultacpf/consulta-clientes/internal/store"
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, acc Account) (Account, error)
	FindByID(ctx context.Context, id int64) (Account, error)
	FindByUsername(ctx context.Context, username string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	Update(ctx context.Context, acc Account) error
	Delete(ctx context.Context, id int64) error
	UpdateTokenVersion(ctx context.Context, id int64, version int) error
	CountByRole(ctx context.Context, role string) (int, error)
}

const accountColumns = `id, username, password_hash, role, token_version`

// SQLRepository implements Repository on any store engine.
type SQLRepository struct {
	db store.DB
}

// NewSQLRepository builds a store-backed account repository.
func NewSQLRepository(db store.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// Create inserts the account and returns it with its generated id.
func (r *SQLRepository) Create(ctx context.Context, acc Account) (Account, error) {
	id, err := store.InsertReturningID(ctx, r.db,
		`INSERT INTO accounts (username, password_hash, role, token_version) VALUES (?, ?, ?, ?)`,
		acc.Username, acc.PasswordHash, acc.Role, acc.TokenVersion)
	if errors.Is(err, store.ErrUniqueViolation) {
		return Account{}, ErrUsernameTaken
	}
	if err != nil {
		return Account{}, fmt.Errorf("insert account: %w", err)
	}
	acc.ID = id
	return acc, nil
}

// FindByID fetches an account by id.
func (r *SQLRepository) FindByID(ctx context.Context, id int64) (Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
}

// FindByUsername fetches an account by its exact username.
func (r *SQLRepository) FindByUsername(ctx context.Context, username string) (Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
}

func (r *SQLRepository) findOne(ctx context.Context, query string, arg any) (Account, error) {
	var acc Account
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &acc.Role, &acc.TokenVersion)
	if errors.Is(err, store.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("find account: %w", err)
	}
	return acc, nil
}

// List returns every account ordered by id.
func (r *SQLRepository) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var acc Account
		if err := rows.Scan(&acc.ID, &acc.Username, &acc.PasswordHash, &acc.Role, &acc.TokenVersion); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

// Update overwrites username, password hash and role.
func (r *SQLRepository) Update(ctx context.Context, acc Account) error {
	n, err := r.db.Exec(ctx, `UPDATE accounts SET username = ?, password_hash = ?, role = ? WHERE id = ?`,
		acc.Username, acc.PasswordHash, acc.Role, acc.ID)
	if errors.Is(err, store.ErrUniqueViolation) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account.
func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTokenVersion stores a new token version, invalidating older tokens.
func (r *SQLRepository) UpdateTokenVersion(ctx context.Context, id int64, version int) error {
	n, err := r.db.Exec(ctx, `UPDATE accounts SET token_version = ? WHERE id = ?`, version, id)
	if err != nil {
		return fmt.Errorf("update token version: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByRole counts accounts holding role.
func (r *SQLRepository) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE role = ?`, role).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}
