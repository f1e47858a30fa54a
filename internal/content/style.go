// Package content defines the storage-stable node model for entry bodies:
// an ordered sequence of text, break, emoji, and image nodes with bit-flag
// text styling.
package content

import "strings"

// Style is a bitmask over independent text style attributes.
// Unknown bits are preserved on read and write so that content written by a
// newer release keeps its styling when round-tripped through an older one.
type Style int

// Style bits, in display order.
const (
	Normal        Style = 0
	Bold          Style = 1 << 0
	Italic        Style = 1 << 1
	Underline     Style = 1 << 2
	Mark          Style = 1 << 3
	Strikethrough Style = 1 << 4
)

// Combine returns the union of the two style sets.
func (s Style) Combine(other Style) Style {
	return s | other
}

// Has reports whether every bit in flag is set.
func (s Style) Has(flag Style) bool {
	return s&flag == flag
}

// Clear returns s with the given bits unset.
func (s Style) Clear(flag Style) Style {
	return s &^ flag
}

// String renders the known style bits in fixed order, or "Normal" when none
// are set. Unknown bits do not appear but remain part of the value.
func (s Style) String() string {
	if s == Normal {
		return "Normal"
	}
	var parts []string
	if s.Has(Bold) {
		parts = append(parts, "b")
	}
	if s.Has(Italic) {
		parts = append(parts, "i")
	}
	if s.Has(Underline) {
		parts = append(parts, "u")
	}
	if s.Has(Mark) {
		parts = append(parts, "m")
	}
	if s.Has(Strikethrough) {
		parts = append(parts, "s")
	}
	if len(parts) == 0 {
		return "Normal"
	}
	return strings.Join(parts, " | ")
}
