package facematch

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLabelLength matches the width of the label column in every storage backend.
const MaxLabelLength = 255

// ValidateLabel checks that a label can be stored. Labels are opaque and
// case-sensitive, so nothing is rewritten here.
func ValidateLabel(label string) error {
	switch {
	case label == "":
		return fmt.Errorf("%w: label is required", ErrInvalidLabel)
	case len(label) > MaxLabelLength:
		return fmt.Errorf("%w: label exceeds %d bytes", ErrInvalidLabel, MaxLabelLength)
	case !utf8.ValidString(label):
		return fmt.Errorf("%w: label is not valid UTF-8", ErrInvalidLabel)
	}
	return nil
}

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizePersonName normalizes a name for searching (lowercase, no diacritics, spaces for dashes).
// It is only used to filter listings; stored labels are never normalized.
func NormalizePersonName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

// SortLabels orders labels for display using Unicode collation.
func SortLabels(labels []string) {
	collate.New(language.Und).SortStrings(labels)
}
