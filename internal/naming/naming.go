// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package naming builds the output filename from the three identifiers the
// user supplies: identification number, client name, and reimbursement number.
package naming

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// InvalidChars are the characters not allowed in a filename component.
const InvalidChars = `<>:"/\|?*`

// fallbackName is used when every identifier sanitizes to the empty string.
const fallbackName = "consolidated"

// ErrInvalidIdentifiers is returned by Validate when an identifier is missing
// or contains a character from InvalidChars.
var ErrInvalidIdentifiers = errors.New("invalid identifiers")

// Identifiers are the three user-supplied strings that name the output PDF.
type Identifiers struct {
	ID            string `json:"id" yaml:"id"`
	Client        string `json:"client" yaml:"client"`
	Reimbursement string `json:"reimbursement" yaml:"reimbursement"`
}

// asciiFold decomposes accented characters and drops everything outside
// ASCII, so "José" becomes "Jose".
func asciiFold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Sanitize cleans one filename component: accents are transliterated to
// ASCII, InvalidChars become underscores, whitespace runs collapse to a single
// space, and the result is trimmed. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	s = asciiFold(s)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(InvalidChars, r) {
			return '_'
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// FinalPDFName returns "<id>_<client>_<reimbursement>.pdf" built from the
// sanitized identifiers. Empty parts are left out, spaces become underscores,
// and leading or trailing underscores are trimmed.
func FinalPDFName(ids Identifiers) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{ids.ID, ids.Client, ids.Reimbursement} {
		if s := Sanitize(p); s != "" {
			parts = append(parts, s)
		}
	}
	base := strings.Join(parts, "_")
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Trim(base, "_ ")
	if base == "" {
		base = fallbackName
	}
	return base + ".pdf"
}

// Validate applies the form rules: all three identifiers are required and
// none may contain InvalidChars.
func Validate(ids Identifiers) error {
	fields := []struct {
		label, value string
	}{
		{"identification number", ids.ID},
		{"client name", ids.Client},
		{"reimbursement number", ids.Reimbursement},
	}
	var missing []string
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			missing = append(missing, f.label)
			continue
		}
		if strings.ContainsAny(v, InvalidChars) {
			return fmt.Errorf("%w: %s must not contain any of %s", ErrInvalidIdentifiers, f.label, InvalidChars)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required: %s", ErrInvalidIdentifiers, strings.Join(missing, ", "))
	}
	return nil
}
