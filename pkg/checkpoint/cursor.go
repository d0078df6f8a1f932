package checkpoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// cursorWidth is the zero-padded width of the cursor in snapshot filenames.
// Padding keeps lexicographic and numeric order aligned for cursors below
// 100000; parsing still compares numerically so wider cursors sort correctly.
const cursorWidth = 5

// Cursor parsing errors.
var (
	ErrNegativeCursor  = errors.New("cursor must be non-negative")
	ErrMalformedCursor = errors.New("malformed cursor in snapshot filename")
)

// formatCursor renders a cursor as its fixed-width filename component.
func formatCursor(cursor int) string {
	return fmt.Sprintf("%0*d", cursorWidth, cursor)
}

// parseCursor extracts the numeric cursor from a snapshot filename, given the
// phase prefix and codec extension that surround it. Filenames that do not
// carry a valid non-negative integer cursor are rejected rather than
// silently skipped or crashed on.
func parseCursor(filename, prefix, ext string) (int, error) {
	if !strings.HasPrefix(filename, prefix) || !strings.HasSuffix(filename, ext) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCursor, filename)
	}

	digits := strings.TrimSuffix(strings.TrimPrefix(filename, prefix), ext)

	cursor, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCursor, filename)
	}

	if cursor < 0 {
		return 0, fmt.Errorf("%w: %q", ErrNegativeCursor, filename)
	}

	return cursor, nil
}
