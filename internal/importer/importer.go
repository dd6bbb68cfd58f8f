// Package importer loads customers and phone numbers from ';' separated CSV
// exports and upserts them row by row.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/consultacpf/consulta-clientes/internal/customer"
	"github.com/consultacpf/consulta-clientes/internal/normalize"
	"github.com/consultacpf/consulta-clientes/internal/notification"
)

var (
	// ErrSource means the file itself could not be read as an import source.
	// Nothing has been written when it is returned.
	ErrSource = errors.New("import source error")

	// ErrStoreUnavailable aborts an import midway. Rows processed before the
	// failure stay committed.
	ErrStoreUnavailable = errors.New("store unavailable during import")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Upserter is the customer write the importer depends on.
type Upserter interface {
	Upsert(ctx context.Context, name, nationalIDRaw string, phones []string) (customer.UpsertResult, error)
}

// RowFailure records a data row that was skipped or only partly applied.
type RowFailure struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result counts what an import did.
type Result struct {
	New      int          `json:"new"`
	Updated  int          `json:"updated"`
	Skipped  int          `json:"skipped"`
	Rows     int          `json:"rows"`
	Failures []RowFailure `json:"failures,omitempty"`
}

// Importer runs CSV imports against the customer repository.
type Importer struct {
	customers Upserter
	notifier  notification.Notifier
	logger    *slog.Logger
}

// New constructs an importer. A nil notifier disables completion messages.
func New(customers Upserter, notifier notification.Notifier, logger *slog.Logger) *Importer {
	return &Importer{customers: customers, notifier: notifier, logger: logger}
}

type record struct {
	line   int
	fields []string
}

// Import parses the whole source, then upserts each data row. Rows whose cpf
// cannot be normalized, or that lose an insert race, are skipped; phone
// failures are logged and the row still counts. Any other store error stops
// the import and is returned wrapped in ErrStoreUnavailable together with the
// counts reached so far.
func (im *Importer) Import(ctx context.Context, source io.Reader) (Result, error) {
	cols, records, err := parse(source)
	if err != nil {
		return Result{}, err
	}

	res := Result{Rows: len(records)}
	for _, rec := range records {
		nationalID, err := normalize.ImportedNationalID(cols.cell(rec.fields, cols.nationalID))
		if err != nil {
			res.Skipped++
			res.Failures = append(res.Failures, RowFailure{Line: rec.line, Reason: err.Error()})
			continue
		}

		name := strings.TrimSpace(cols.cell(rec.fields, cols.name))
		up, err := im.customers.Upsert(ctx, name, nationalID, cols.phoneValues(rec.fields))
		switch {
		case err == nil:
		case errors.Is(err, customer.ErrConcurrentInsertConflict):
			res.Skipped++
			res.Failures = append(res.Failures, RowFailure{Line: rec.line, Reason: err.Error()})
			continue
		case errors.Is(err, customer.ErrPhoneInsert):
			im.logger.Warn("import row phones not stored",
				slog.Int("line", rec.line), slog.Int64("customer_id", up.CustomerID), slog.Any("error", err))
			res.Failures = append(res.Failures, RowFailure{Line: rec.line, Reason: err.Error()})
		default:
			err = fmt.Errorf("%w: line %d: %w", ErrStoreUnavailable, rec.line, err)
			im.finish(ctx, res, err)
			return res, err
		}

		if up.Created {
			res.New++
		} else {
			res.Updated++
		}
	}

	im.finish(ctx, res, nil)
	return res, nil
}

func (im *Importer) finish(ctx context.Context, res Result, importErr error) {
	status := "ok"
	attrs := []any{
		slog.Int("rows", res.Rows), slog.Int("new", res.New),
		slog.Int("updated", res.Updated), slog.Int("skipped", res.Skipped),
	}
	if importErr != nil {
		status = "failed"
		im.logger.Error("import aborted", append(attrs, slog.Any("error", importErr))...)
	} else {
		im.logger.Info("import finished", attrs...)
	}

	if im.notifier == nil {
		return
	}
	msg := notification.Message{
		Kind: notification.KindImportCompleted,
		Body: status,
		Attributes: map[string]any{
			"rows":     res.Rows,
			"new":      res.New,
			"updated":  res.Updated,
			"skipped":  res.Skipped,
			"failures": len(res.Failures),
		},
	}
	if err := im.notifier.Send(ctx, msg); err != nil {
		im.logger.Warn("import notification failed", slog.Any("error", err))
	}
}

// parse reads the complete source before anything is written.
func parse(source io.Reader) (columns, []record, error) {
	data, err := io.ReadAll(source)
	if err != nil {
		return columns{}, nil, fmt.Errorf("%w: read: %v", ErrSource, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return columns{}, nil, fmt.Errorf("%w: file is not valid UTF-8", ErrSource)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return columns{}, nil, fmt.Errorf("%w: file is empty", ErrSource)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return columns{}, nil, fmt.Errorf("%w: header: %v", ErrSource, err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return columns{}, nil, err
	}

	var records []record
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return columns{}, nil, fmt.Errorf("%w: %v", ErrSource, err)
		}
		line, _ := cr.FieldPos(0)
		// short rows are padded with empty cells, long ones mean a broken file
		if len(fields) > len(header) {
			return columns{}, nil, fmt.Errorf("%w: line %d has %d fields, header has %d",
				ErrSource, line, len(fields), len(header))
		}
		records = append(records, record{line: line, fields: fields})
	}
	return cols, records, nil
}
