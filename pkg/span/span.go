// Package span locates pipeline items inside the assembly source text.
package span

import (
	"fmt"
	"strings"
)

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start int
	End   int
}

func New(start, end int) Span {
	return Span{Start: start, End: end}
}

// At returns the one-byte span starting at offset.
func At(offset int) Span {
	return Span{Start: offset, End: offset + 1}
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// Text returns the source text covered by s, clamped to src.
func (s Span) Text(src string) string {
	start := clamp(s.Start, 0, len(src))
	end := clamp(s.End, start, len(src))
	return src[start:end]
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Position is a 1-based line and column.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Locate converts a byte offset into a line/column position. Offsets past the
// end of src are placed just after the last byte.
func Locate(src string, offset int) Position {
	offset = clamp(offset, 0, len(src))
	line := 1 + strings.Count(src[:offset], "\n")
	lineStart := strings.LastIndexByte(src[:offset], '\n') + 1
	return Position{Line: line, Column: offset - lineStart + 1}
}

// Caret renders the line containing s followed by a marker line underlining
// the span, e.g.
//
//	addi 0, 1, 99999
//	           ^~~~~
func Caret(src string, s Span) string {
	start := clamp(s.Start, 0, len(src))
	lineStart := strings.LastIndexByte(src[:start], '\n') + 1
	lineEnd := strings.IndexByte(src[start:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src)
	} else {
		lineEnd += start
	}

	width := clamp(s.End, start, lineEnd) - start
	if width < 1 {
		width = 1
	}

	var b strings.Builder
	b.WriteString(src[lineStart:lineEnd])
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", start-lineStart))
	b.WriteByte('^')
	b.WriteString(strings.Repeat("~", width-1))
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
