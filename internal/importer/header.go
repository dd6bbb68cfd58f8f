package importer

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	headerName       = "nome"
	headerNationalID = "cpf"
	headerPhoneMark  = "telefone"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldHeader lower-cases, trims and strips accents so "Telefone Célular" and
// "TELEFONE CELULAR" land on the same key.
func foldHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	folded, _, err := transform.String(stripAccents, h)
	if err != nil {
		return h
	}
	return folded
}

// columns maps the header row to the indexes the importer reads.
type columns struct {
	name       int
	nationalID int
	phones     []int
}

func resolveColumns(header []string) (columns, error) {
	cols := columns{name: -1, nationalID: -1}
	for i, h := range header {
		switch f := foldHeader(h); {
		case f == headerName && cols.name < 0:
			cols.name = i
		case f == headerNationalID && cols.nationalID < 0:
			cols.nationalID = i
		case strings.Contains(f, headerPhoneMark):
			cols.phones = append(cols.phones, i)
		}
	}

	if cols.nationalID < 0 {
		return columns{}, fmt.Errorf("%w: header %q has no %q column (is the file ';' separated?)",
			ErrSource, strings.Join(header, ";"), headerNationalID)
	}
	return cols, nil
}

func (c columns) cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

// phoneValues returns the trimmed non-empty phone cells in column order.
func (c columns) phoneValues(record []string) []string {
	var phones []string
	for _, i := range c.phones {
		if v := strings.TrimSpace(c.cell(record, i)); v != "" {
			phones = append(phones, v)
		}
	}
	return phones
}
