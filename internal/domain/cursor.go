package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Cursor is an ordered position within one address's event stream.
// Primary gives the total order (logical time on TON); Secondary
// disambiguates entries sharing the same Primary (transaction hash).
type Cursor struct {
	Primary   int64
	Secondary string
}

// String returns the canonical text form "{primary}:{secondary}".
func (c Cursor) String() string {
	return fmt.Sprintf("%d:%s", c.Primary, c.Secondary)
}

// ParseCursor parses the canonical text form produced by String.
// It rejects empty or whitespace input, a missing secondary part,
// and a non-integer primary part.
func ParseCursor(s string) (Cursor, error) {
	if strings.TrimSpace(s) == "" {
		return Cursor{}, fmt.Errorf("%w: empty cursor", ErrInvalidCursor)
	}

	primaryPart, secondary, found := strings.Cut(s, ":")
	if !found || strings.TrimSpace(secondary) == "" {
		return Cursor{}, fmt.Errorf("%w: missing secondary in %q", ErrInvalidCursor, s)
	}

	primary, err := strconv.ParseInt(primaryPart, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: non-integer primary in %q", ErrInvalidCursor, s)
	}

	return Cursor{Primary: primary, Secondary: secondary}, nil
}
