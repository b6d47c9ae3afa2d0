package document

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPadding is the zero-padded width of the sequence part
const DefaultPadding = 5

// Number is an allocated document number. Prefix, Year and Sequence are
// authoritative; the formatted string is derived from them.
type Number struct {
	Prefix   string
	Year     int
	Sequence int64
}

// IsZero reports whether no number was allocated
func (n Number) IsZero() bool {
	return n.Prefix == "" && n.Year == 0 && n.Sequence == 0
}

// Format renders PREFIX-YEAR-000042 with the given padding
func (n Number) Format(padding int) string {
	if padding < 1 {
		padding = DefaultPadding
	}
	return fmt.Sprintf("%s-%d-%0*d", n.Prefix, n.Year, padding, n.Sequence)
}

// String renders the number with DefaultPadding
func (n Number) String() string {
	return n.Format(DefaultPadding)
}

// Less orders numbers by prefix, then year, then sequence
func (n Number) Less(other Number) bool {
	if n.Prefix != other.Prefix {
		return n.Prefix < other.Prefix
	}
	if n.Year != other.Year {
		return n.Year < other.Year
	}
	return n.Sequence < other.Sequence
}

// ParseNumber parses a formatted document number such as FV-2026-00042
func ParseNumber(s string) (Number, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Number{}, fmt.Errorf("invalid document number %q", s)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 1900 {
		return Number{}, fmt.Errorf("invalid year in document number %q", s)
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq < 1 {
		return Number{}, fmt.Errorf("invalid sequence in document number %q", s)
	}
	return Number{Prefix: strings.ToUpper(parts[0]), Year: year, Sequence: seq}, nil
}
