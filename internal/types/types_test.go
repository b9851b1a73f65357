package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextRange(t *testing.T) {
	r := NewTextRange(7, 3)
	assert.Equal(t, TextRange{Start: 3, End: 7}, r, "reversed bounds are swapped")
	assert.Equal(t, 4, r.Length())
	assert.False(t, r.IsEmpty())
	assert.True(t, RangeFrom(5, 0).IsEmpty())

	assert.True(t, r.Contains(3))
	assert.True(t, r.Contains(7), "end offset is inside")
	assert.False(t, r.Contains(8))
	assert.True(t, r.ContainsRange(TextRange{Start: 4, End: 7}))
	assert.False(t, r.ContainsRange(TextRange{Start: 2, End: 5}))

	assert.Equal(t, TextRange{Start: 5, End: 9}, r.Shift(2))
	assert.Equal(t, "(3,7)", r.String())
}

func TestTextRange_Substring(t *testing.T) {
	text := "<a:book/>"
	assert.Equal(t, "a:book", RangeFrom(1, 6).Substring(text))
	assert.Equal(t, "/>", TextRange{Start: 7, End: 40}.Substring(text))
	assert.Equal(t, "", TextRange{Start: -3, End: 0}.Substring(text))
}

func TestLineColumn(t *testing.T) {
	text := "<a>\n  <b/>\n</a>"
	lines := LineOffsets(text)
	assert.Equal(t, []int{0, 4, 11}, lines)

	tests := []struct {
		offset int
		want   LineColumn
	}{
		{0, LineColumn{Line: 1, Column: 1}},
		{3, LineColumn{Line: 1, Column: 4}},
		{6, LineColumn{Line: 2, Column: 3}},
		{11, LineColumn{Line: 3, Column: 1}},
	}
	for _, tt := range tests {
		got := LineColumnAt(lines, tt.offset)
		assert.Equal(t, tt.want, got, "offset %d", tt.offset)

		back, ok := OffsetAt(lines, len(text), got)
		assert.True(t, ok)
		assert.Equal(t, tt.offset, back)
	}

	assert.Equal(t, LineColumn{Line: 1, Column: 5}, LineColumnAt(nil, 4))
}

func TestOffsetAt_Bounds(t *testing.T) {
	text := "<a>\n  <b/>\n</a>"
	lines := LineOffsets(text)

	off, ok := OffsetAt(lines, len(text), LineColumn{Line: 1, Column: 99})
	assert.True(t, ok)
	assert.Equal(t, 3, off, "column clamps to the newline")

	off, ok = OffsetAt(lines, len(text), LineColumn{Line: 3, Column: 99})
	assert.True(t, ok)
	assert.Equal(t, len(text), off, "last line clamps to the text end")

	_, ok = OffsetAt(lines, len(text), LineColumn{Line: 4, Column: 1})
	assert.False(t, ok)
	_, ok = OffsetAt(lines, len(text), LineColumn{Line: 0, Column: 1})
	assert.False(t, ok)
	_, ok = OffsetAt(lines, len(text), LineColumn{Line: 1, Column: 0})
	assert.False(t, ok)
}
