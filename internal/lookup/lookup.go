// Package lookup answers whether any customer matches a free-text CPF or
// phone query.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/consultacpf/consulta-clientes/internal/customer"
	"github.com/consultacpf/consulta-clientes/internal/normalize"
)

// NotFoundMessage is returned with every empty result.
const NotFoundMessage = "Nenhum registro encontrado."

// ErrEmptyQuery rejects queries without a single digit, which would
// otherwise match every phone.
var ErrEmptyQuery = errors.New("query has no digits")

// MatchedBy names the rule that matched the reported customer.
type MatchedBy string

const (
	MatchedByNationalID        MatchedBy = "national_id"
	MatchedByNationalIDNoZeros MatchedBy = "national_id_no_leading_zeros"
	MatchedByPhone             MatchedBy = "phone"
)

// Finder is the customer read side used by lookups.
type Finder interface {
	MatchCandidates(ctx context.Context, digits string) ([]customer.Customer, error)
	Phones(ctx context.Context, customerID int64) ([]string, error)
}

// MatchResult is the answer to a lookup.
type MatchResult struct {
	Found      bool      `json:"found"`
	Name       string    `json:"name,omitempty"`
	NationalID string    `json:"national_id,omitempty"`
	Phones     []string  `json:"phones"`
	MatchedBy  MatchedBy `json:"matched_by,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// Service runs lookups.
type Service struct {
	customers Finder
}

// NewService constructs a lookup service.
func NewService(customers Finder) *Service {
	return &Service{customers: customers}
}

// Lookup reduces rawQuery to digits and reports the first matching customer
// in storage order, together with the sorted union of the phones of every
// matching customer.
func (s *Service) Lookup(ctx context.Context, rawQuery string) (MatchResult, error) {
	digits := normalize.Digits(rawQuery)
	if digits == "" {
		return MatchResult{}, ErrEmptyQuery
	}

	matches, err := s.customers.MatchCandidates(ctx, digits)
	if err != nil {
		return MatchResult{}, err
	}
	if len(matches) == 0 {
		return MatchResult{Found: false, Phones: []string{}, Message: NotFoundMessage}, nil
	}

	first := matches[0]
	var firstPhones []string
	union := make(map[string]struct{})
	for i, m := range matches {
		phones, err := s.customers.Phones(ctx, m.ID)
		if err != nil {
			return MatchResult{}, fmt.Errorf("phones of customer %d: %w", m.ID, err)
		}
		if i == 0 {
			firstPhones = phones
		}
		for _, p := range phones {
			union[p] = struct{}{}
		}
	}

	phones := make([]string, 0, len(union))
	for p := range union {
		phones = append(phones, p)
	}
	sort.Strings(phones)

	return MatchResult{
		Found:      true,
		Name:       first.Name,
		NationalID: first.NationalID,
		Phones:     phones,
		MatchedBy:  matchedBy(first, firstPhones, digits),
	}, nil
}

func matchedBy(c customer.Customer, phones []string, digits string) MatchedBy {
	switch {
	case c.NationalID == digits:
		return MatchedByNationalID
	case strings.TrimLeft(c.NationalID, "0") == strings.TrimLeft(digits, "0"):
		return MatchedByNationalIDNoZeros
	}
	for _, p := range phones {
		if strings.Contains(normalize.PhoneForCompare(p), digits) {
			return MatchedByPhone
		}
	}
	// the store matched on a rule we could not reproduce here
	return ""
}
