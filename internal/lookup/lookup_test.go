package lookup

import (
	"context"
	"errors"
	"testing"

	"github.com/consultacpf/consulta-clientes/internal/customer"
	"github.com/consultacpf/consulta-clientes/internal/store/storetest"
)

func seededService(t *testing.T) *Service {
	t.Helper()
	repo := customer.NewRepository(storetest.NewSQLite(t))
	ctx := context.Background()

	seed := []struct {
		name, id string
		phones   []string
	}{
		{"Ana", "12345678909", []string{"(11) 99999-9999", "11 3333-0000"}},
		{"Bia", "00012345678", []string{"21 98888-7777"}},
		{"Caio", "98765432100", []string{"(11) 99999-9999", "31 2222-1111"}},
	}
	for _, s := range seed {
		if _, err := repo.Upsert(ctx, s.name, s.id, s.phones); err != nil {
			t.Fatalf("seed %s: %v", s.name, err)
		}
	}
	return NewService(repo)
}

func TestLookupMatchesPhoneSubstring(t *testing.T) {
	svc := seededService(t)

	res, err := svc.Lookup(context.Background(), "999999999")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !res.Found || res.Name != "Ana" || res.MatchedBy != MatchedByPhone {
		t.Fatalf("unexpected result %+v", res)
	}

	// Ana and Caio share the phone: first record wins, phones are the sorted union.
	want := []string{"(11) 99999-9999", "11 3333-0000", "31 2222-1111"}
	if len(res.Phones) != len(want) {
		t.Fatalf("expected phones %v, got %v", want, res.Phones)
	}
	for i := range want {
		if res.Phones[i] != want[i] {
			t.Fatalf("expected phones %v, got %v", want, res.Phones)
		}
	}
}

func TestLookupByFormattedNationalID(t *testing.T) {
	svc := seededService(t)

	res, err := svc.Lookup(context.Background(), "123.456.789-09")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !res.Found || res.NationalID != "12345678909" || res.MatchedBy != MatchedByNationalID {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLookupIgnoresLeadingZeros(t *testing.T) {
	svc := seededService(t)

	res, err := svc.Lookup(context.Background(), "123.456.78")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !res.Found || res.Name != "Bia" || res.MatchedBy != MatchedByNationalIDNoZeros {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Phones) != 1 || res.Phones[0] != "21 98888-7777" {
		t.Fatalf("unexpected phones %v", res.Phones)
	}
}

func TestLookupNotFound(t *testing.T) {
	svc := seededService(t)

	res, err := svc.Lookup(context.Background(), "555-0123")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if res.Found || res.Message != NotFoundMessage {
		t.Fatalf("expected not found, got %+v", res)
	}
	if res.Phones == nil || len(res.Phones) != 0 {
		t.Fatalf("expected empty phone list, got %v", res.Phones)
	}
}

func TestLookupRejectsQueryWithoutDigits(t *testing.T) {
	svc := seededService(t)

	for _, q := range []string{"", "   ", "abc-()"} {
		if _, err := svc.Lookup(context.Background(), q); !errors.Is(err, ErrEmptyQuery) {
			t.Fatalf("query %q: expected ErrEmptyQuery, got %v", q, err)
		}
	}
}
