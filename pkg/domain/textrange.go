package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrInvalidTextRange = errors.New("invalid text range")
	ErrRangeOutOfBounds = errors.New("text range out of bounds")
)

// TextRange is a half-open span [Start, End) of character (rune) offsets
// into a reference text.
// Invariant: 0 <= start < end.
type TextRange struct {
	start int
	end   int
}

func NewTextRange(start, end int) (TextRange, error) {
	if start < 0 {
		return TextRange{}, fmt.Errorf("%w: start %d is negative", ErrInvalidTextRange, start)
	}
	if end <= start {
		return TextRange{}, fmt.Errorf("%w: end %d must be greater than start %d", ErrInvalidTextRange, end, start)
	}
	return TextRange{start: start, end: end}, nil
}

// MustTextRange panics on invalid offsets. Only for tests and constants.
func MustTextRange(start, end int) TextRange {
	r, err := NewTextRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func (r TextRange) Start() int { return r.start }
func (r TextRange) End() int   { return r.end }
func (r TextRange) Len() int   { return r.end - r.start }

// IsZero reports whether r is the unset zero value.
func (r TextRange) IsZero() bool {
	return r.start == 0 && r.end == 0
}

// Contains reports whether other lies entirely within r.
func (r TextRange) Contains(other TextRange) bool {
	return other.start >= r.start && other.end <= r.end
}

// Overlaps reports whether r and other share at least one character.
// Adjacent ranges do not overlap.
func (r TextRange) Overlaps(other TextRange) bool {
	return r.start < other.end && other.start < r.end
}

// Extract returns the substring of text covered by r.
func (r TextRange) Extract(text string) (string, error) {
	if r.end > utf8.RuneCountInString(text) {
		return "", fmt.Errorf("%w: end %d exceeds text length", ErrRangeOutOfBounds, r.end)
	}
	runes := []rune(text)
	return string(runes[r.start:r.end]), nil
}

func (r TextRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.start, r.end)
}
