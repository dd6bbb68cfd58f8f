package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/consultacpf/consulta-clientes/internal/normalize"
	"github.com/consultacpf/consulta-clientes/internal/store"
)

const (
	stmtFindByNationalID = `SELECT id, name, national_id FROM customers WHERE national_id = ?`
	stmtInsertCustomer   = `INSERT INTO customers (name, national_id) VALUES (?, ?)`
	stmtUpdateName       = `UPDATE customers SET name = ? WHERE id = ?`
	stmtListPhones       = `SELECT raw_value FROM phone_numbers WHERE customer_id = ? ORDER BY id`
	stmtInsertPhone      = `INSERT INTO phone_numbers (customer_id, raw_value) VALUES (?, ?)
        ON CONFLICT (customer_id, raw_value) DO NOTHING`
	stmtCountCustomers = `SELECT COUNT(*) FROM customers`
	stmtCountPhones    = `SELECT COUNT(*) FROM phone_numbers`

	// The phone clause mirrors normalize.PhoneForCompare.
	stmtMatchCandidates = `
        SELECT c.id, c.name, c.national_id
        FROM customers c
        WHERE c.national_id = ?
           OR LTRIM(c.national_id, '0') = LTRIM(?, '0')
           OR EXISTS (
                SELECT 1 FROM phone_numbers p
                WHERE p.customer_id = c.id
                  AND REPLACE(REPLACE(REPLACE(p.raw_value, ' ', ''), '-', ''), '(', '')
                      LIKE '%' || CAST(? AS TEXT) || '%'
           )
        ORDER BY c.id`
)

// Repository persists customers and their phone numbers. It is the only
// component that touches customer state.
type Repository struct {
	db store.DB
}

// NewRepository builds a repository on top of any store engine.
func NewRepository(db store.DB) *Repository {
	return &Repository{db: db}
}

// Upsert creates or renames the customer identified by nationalIDRaw and adds
// any phones it does not have yet. The customer write is committed before
// phones are touched, so a phone failure leaves it in place; in that case the
// result is still populated and the error wraps ErrPhoneInsert.
func (r *Repository) Upsert(ctx context.Context, name, nationalIDRaw string, phones []string) (UpsertResult, error) {
	nationalID := normalize.NationalID(nationalIDRaw)

	id, created, err := r.saveCustomer(ctx, name, nationalID)
	if err != nil {
		return UpsertResult{}, err
	}

	res := UpsertResult{CustomerID: id, Created: created}
	added, err := r.addPhones(ctx, id, phones)
	if err != nil {
		return res, fmt.Errorf("%w: customer %d: %w", ErrPhoneInsert, id, err)
	}
	res.PhonesAdded = added
	return res, nil
}

func (r *Repository) saveCustomer(ctx context.Context, name, nationalID string) (int64, bool, error) {
	existing, err := r.FindByNormalizedID(ctx, nationalID)
	switch {
	case err == nil:
		return existing.ID, false, r.updateName(ctx, existing.ID, name)
	case !errors.Is(err, ErrNotFound):
		return 0, false, err
	}

	id, err := store.InsertReturningID(ctx, r.db, stmtInsertCustomer, name, nationalID)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, store.ErrUniqueViolation) {
		return 0, false, fmt.Errorf("insert customer: %w", err)
	}

	// Another writer committed the same national id after our read: take the
	// update path once.
	existing, err = r.FindByNormalizedID(ctx, nationalID)
	if errors.Is(err, ErrNotFound) {
		return 0, false, fmt.Errorf("%w: national id %s", ErrConcurrentInsertConflict, nationalID)
	}
	if err != nil {
		return 0, false, err
	}
	return existing.ID, false, r.updateName(ctx, existing.ID, name)
}

func (r *Repository) updateName(ctx context.Context, id int64, name string) error {
	if _, err := r.db.Exec(ctx, stmtUpdateName, name, id); err != nil {
		return fmt.Errorf("update customer %d: %w", id, err)
	}
	return nil
}

// addPhones inserts, in one transaction, every non-blank phone that is not
// already stored for the customer or earlier in the same slice.
func (r *Repository) addPhones(ctx context.Context, customerID int64, phones []string) (int, error) {
	pending := make([]string, 0, len(phones))
	for _, p := range phones {
		if strings.TrimSpace(p) != "" {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	existing, err := listPhones(ctx, tx, customerID)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(existing)+len(pending))
	for _, p := range existing {
		seen[p] = struct{}{}
	}

	added := 0
	for _, p := range pending {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}

		n, err := tx.Exec(ctx, stmtInsertPhone, customerID, p)
		if err != nil {
			return 0, err
		}
		added += int(n)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return added, nil
}

// FindByNormalizedID returns the customer stored under an already normalized id.
func (r *Repository) FindByNormalizedID(ctx context.Context, nationalID string) (Customer, error) {
	var c Customer
	err := r.db.QueryRow(ctx, stmtFindByNationalID, nationalID).Scan(&c.ID, &c.Name, &c.NationalID)
	if errors.Is(err, store.ErrNoRows) {
		return Customer{}, ErrNotFound
	}
	if err != nil {
		return Customer{}, fmt.Errorf("find customer: %w", err)
	}
	return c, nil
}

// Phones lists a customer's phones in insertion order.
func (r *Repository) Phones(ctx context.Context, customerID int64) ([]string, error) {
	return listPhones(ctx, r.db, customerID)
}

// MatchCandidates returns, in storage order, the customers whose national id
// equals digits (with or without leading zeros) or that own a phone whose
// comparison form contains digits.
func (r *Repository) MatchCandidates(ctx context.Context, digits string) ([]Customer, error) {
	rows, err := r.db.Query(ctx, stmtMatchCandidates, digits, digits, digits)
	if err != nil {
		return nil, fmt.Errorf("match customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.NationalID); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Stats counts customers and phones.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if err := r.db.QueryRow(ctx, stmtCountCustomers).Scan(&s.Customers); err != nil {
		return Stats{}, fmt.Errorf("count customers: %w", err)
	}
	if err := r.db.QueryRow(ctx, stmtCountPhones).Scan(&s.Phones); err != nil {
		return Stats{}, fmt.Errorf("count phones: %w", err)
	}
	return s, nil
}

func listPhones(ctx context.Context, q store.Querier, customerID int64) ([]string, error) {
	rows, err := q.Query(ctx, stmtListPhones, customerID)
	if err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan phone: %w", err)
		}
		phones = append(phones, p)
	}
	return phones, rows.Err()
}
