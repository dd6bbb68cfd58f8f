// Package normalize canonicalizes loosely formatted identifiers (CPF, phone
// numbers) into comparison-stable strings.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NationalIDLength is the width of a normalized CPF.
const NationalIDLength = 11

// ErrNormalization reports an imported identifier that cannot be turned into digits.
var ErrNormalization = errors.New("national id normalization failed")

// Digits keeps only the ASCII digits of raw.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// NationalID strips every non-digit and left-pads with zeros up to
// NationalIDLength. Longer values are returned unpadded and untruncated.
func NationalID(raw string) string {
	digits := Digits(raw)
	if len(digits) < NationalIDLength {
		digits = strings.Repeat("0", NationalIDLength-len(digits)) + digits
	}
	return digits
}

// ImportedNationalID converts a CSV cell into a digit string. Spreadsheet
// exports turn CPFs into floats ("123456789.0", "1.2345E10"), so those are
// read as numbers first. Unlike NationalID it never pads and fails instead of
// producing an empty identifier.
func ImportedNationalID(cell string) (string, error) {
	s := strings.TrimSpace(cell)

	var digits string
	switch {
	case strings.ContainsAny(s, "eE"):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return "", fmt.Errorf("%w: %q is not a numeral", ErrNormalization, cell)
		}
		digits = Digits(strconv.FormatFloat(math.Trunc(f), 'f', 0, 64))
	case hasZeroFraction(s):
		digits = Digits(s[:strings.IndexByte(s, '.')])
	default:
		digits = Digits(s)
	}

	if digits == "" {
		return "", fmt.Errorf("%w: %q has no digits", ErrNormalization, cell)
	}
	return digits, nil
}

// PhoneForCompare removes spaces, hyphens and opening parentheses. Everything
// else, including ')' and '+', is kept. Only used for matching.
func PhoneForCompare(raw string) string {
	return phoneStripper.Replace(raw)
}

var phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "")

// hasZeroFraction reports whether s looks like "123.0" or "+123.000".
func hasZeroFraction(s string) bool {
	s = strings.TrimLeft(s, "+-")
	dot := strings.IndexByte(s, '.')
	if dot <= 0 || dot == len(s)-1 {
		return false
	}
	for _, c := range s[:dot] {
		if c < '0' || c > '9' {
			return false
		}
	}
	for _, c := range s[dot+1:] {
		if c != '0' {
			return false
		}
	}
	return true
}
