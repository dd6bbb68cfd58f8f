package customer

import "errors"

var (
	// ErrNotFound means no customer has the requested national id.
	ErrNotFound = errors.New("customer not found")

	// ErrConcurrentInsertConflict is returned when an insert lost a race on the
	// national id constraint and the winning row could not be read back.
	ErrConcurrentInsertConflict = errors.New("concurrent insert conflict")

	// ErrPhoneInsert wraps a failure while adding phones. The customer row
	// itself has already been committed when this is returned.
	ErrPhoneInsert = errors.New("phone insert failed")
)

// Customer is a person keyed by a normalized CPF.
type Customer struct {
	ID         int64
	Name       string
	NationalID string
}

// PhoneNumber belongs to a customer; RawValue is stored exactly as imported.
type PhoneNumber struct {
	ID         int64
	CustomerID int64
	RawValue   string
}

// UpsertResult describes what Upsert did.
type UpsertResult struct {
	CustomerID  int64
	Created     bool
	PhonesAdded int
}

// Stats summarizes the stored customer base.
type Stats struct {
	Customers int64
	Phones    int64
}
