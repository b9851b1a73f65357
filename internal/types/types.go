package types

import (
	"fmt"
)

// Common system-wide constants
const (
	// File size limits
	DefaultMaxFileSize = 8 * 1024 * 1024 // 8MB per document or schema file
	// Rationale: schema bundles (UBL, ISO 20022) stay well below this,
	// anything larger is usually generated data, not markup being edited.

	DefaultMaxSchemaFiles = 2000 // Maximum schema files loaded from globs
	// Rationale: keeps an accidental "**/*.xsd" over a vendor tree bounded.

	DefaultMaxResults = 200 // Maximum completion variants returned per request
)

// TextRange is a half-open [Start, End) byte range.
type TextRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// EmptyRange is the zero-length range at offset 0.
var EmptyRange = TextRange{}

// NewTextRange creates a range, swapping the bounds when they are reversed
func NewTextRange(start, end int) TextRange {
	if end < start {
		start, end = end, start
	}
	return TextRange{Start: start, End: end}
}

// RangeFrom creates a range of the given length starting at offset
func RangeFrom(offset, length int) TextRange {
	return NewTextRange(offset, offset+length)
}

// Length returns the number of bytes covered
func (r TextRange) Length() int {
	return r.End - r.Start
}

// IsEmpty reports whether the range covers no bytes
func (r TextRange) IsEmpty() bool {
	return r.End <= r.Start
}

// Contains reports whether offset falls inside the range. The end offset
// counts as inside so that a caret placed right after a name still hits it.
func (r TextRange) Contains(offset int) bool {
	return offset >= r.Start && offset <= r.End
}

// ContainsRange reports whether other is fully inside r
func (r TextRange) ContainsRange(other TextRange) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Shift moves the range by delta bytes
func (r TextRange) Shift(delta int) TextRange {
	return TextRange{Start: r.Start + delta, End: r.End + delta}
}

// Substring returns the part of text covered by the range, clamped to text bounds
func (r TextRange) Substring(text string) string {
	start, end := r.Start, r.End
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}
	return text[start:end]
}

func (r TextRange) String() string {
	return fmt.Sprintf("(%d,%d)", r.Start, r.End)
}

// LineColumn is a 1-based line and column pair
type LineColumn struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// LineOffsets returns the byte offset of the first character of every line
func LineOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// LineColumnAt converts a byte offset into a 1-based line/column using precomputed line offsets
func LineColumnAt(lineOffsets []int, offset int) LineColumn {
	if len(lineOffsets) == 0 {
		return LineColumn{Line: 1, Column: offset + 1}
	}
	lo, hi := 0, len(lineOffsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lineOffsets[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return LineColumn{Line: lo + 1, Column: offset - lineOffsets[lo] + 1}
}

// OffsetAt converts a 1-based line/column back into a byte offset. Columns
// past the end of the line are clamped to the line end.
func OffsetAt(lineOffsets []int, textLen int, lc LineColumn) (int, bool) {
	if lc.Line < 1 || lc.Line > len(lineOffsets) || lc.Column < 1 {
		return 0, false
	}
	end := textLen
	if lc.Line < len(lineOffsets) {
		end = lineOffsets[lc.Line] - 1
	}
	return min(lineOffsets[lc.Line-1]+lc.Column-1, end), true
}
