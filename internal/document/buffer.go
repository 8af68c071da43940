// Package document holds the markup source of truth of an open document.
package document

import (
	"strings"
)

// Range is a half-open interval of rune offsets into a buffer.
type Range struct {
	Start int
	End   int
}

// Empty reports whether r selects nothing.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Len returns the number of runes in r.
func (r Range) Len() int {
	return r.End - r.Start
}

// Buffer is the markup text of a document plus the raw-mode selection. All
// offsets are rune offsets so multi-byte characters count as one position.
type Buffer struct {
	text      []rune
	selection Range
}

// NewBuffer creates a buffer holding text with the caret at its end.
func NewBuffer(text string) *Buffer {
	b := &Buffer{}
	b.SetText(text)
	b.SetCursor(b.Len())
	return b
}

// Text returns the buffer contents.
func (b *Buffer) Text() string {
	return string(b.text)
}

// Len returns the length of the buffer in runes.
func (b *Buffer) Len() int {
	return len(b.text)
}

// SetText replaces the whole buffer. The selection is clamped to the new
// contents.
func (b *Buffer) SetText(text string) {
	b.text = []rune(text)
	b.selection = b.clampRange(b.selection)
}

// Selection returns the selected range.
func (b *Buffer) Selection() Range {
	return b.selection
}

// Select selects the runes between start and end. The bounds are ordered and
// clamped to the buffer.
func (b *Buffer) Select(start, end int) {
	b.selection = b.clampRange(Range{Start: start, End: end})
}

// SelectedText returns the text covered by the selection.
func (b *Buffer) SelectedText() string {
	return string(b.text[b.selection.Start:b.selection.End])
}

// Cursor returns the caret position, the end of the selection.
func (b *Buffer) Cursor() int {
	return b.selection.End
}

// SetCursor collapses the selection to pos.
func (b *Buffer) SetCursor(pos int) {
	b.Select(pos, pos)
}

// Slice returns the text between start and end.
func (b *Buffer) Slice(start, end int) string {
	r := b.clampRange(Range{Start: start, End: end})
	return string(b.text[r.Start:r.End])
}

// Replace replaces the runes of r with text and places the caret right after
// the inserted text.
func (b *Buffer) Replace(r Range, text string) {
	r = b.clampRange(r)
	inserted := []rune(text)

	result := make([]rune, 0, len(b.text)-r.Len()+len(inserted))
	result = append(result, b.text[:r.Start]...)
	result = append(result, inserted...)
	result = append(result, b.text[r.End:]...)
	b.text = result

	b.SetCursor(r.Start + len(inserted))
}

// Insert replaces the selection with text.
func (b *Buffer) Insert(text string) {
	b.Replace(b.selection, text)
}

// LineStart returns the offset of the first rune of the line containing pos.
func (b *Buffer) LineStart(pos int) int {
	pos = b.clamp(pos)
	for pos > 0 && b.text[pos-1] != '\n' {
		pos--
	}
	return pos
}

// Line returns the text of the line containing pos without its line break.
func (b *Buffer) Line(pos int) string {
	start := b.LineStart(pos)
	rest := string(b.text[start:])
	line, _, _ := strings.Cut(rest, "\n")
	return line
}

func (b *Buffer) clamp(pos int) int {
	return max(0, min(pos, len(b.text)))
}

func (b *Buffer) clampRange(r Range) Range {
	start, end := b.clamp(r.Start), b.clamp(r.End)
	if start > end {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}
