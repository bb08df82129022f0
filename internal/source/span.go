// Package source holds the compiler's view of input files: a byte-range
// Span type and the SourceMap that resolves file ids back to paths and
// line/column positions for diagnostics.
package source

import "fmt"

// FileID identifies a source file within a single compilation. File ids are
// assigned in registration order starting at 0.
type FileID int

// Span is a half-open byte range (Start inclusive, End exclusive) within a
// single file. Empty-length spans (Start == End) are used for synthesized
// INDENT/DEDENT tokens that have no corresponding source bytes.
type Span struct {
	File  FileID
	Start int
	End   int
}

// Empty reports whether the span covers zero bytes.
func (s Span) Empty() bool { return s.Start == s.End }

// Join returns the smallest span covering both s and other. Both spans must
// belong to the same file; Join panics otherwise since merging spans across
// files is always a bug in the caller.
func (s Span) Join(other Span) Span {
	if s.File != other.File {
		panic(fmt.Sprintf("source: Join across files %d and %d", s.File, other.File))
	}
	start, end := s.Start, s.End
	if other.Start < start {
		start = other.Start
	}
	if other.End > end {
		end = other.End
	}
	return Span{File: s.File, Start: start, End: end}
}

// Pos is a resolved line/column position, 1-indexed to match editor
// conventions.
type Pos struct {
	Line   int
	Column int
}

// file is the registered metadata for one source file.
type file struct {
	path       string
	text       string
	lineStarts []int // byte offset of the first byte of each line
}

// Map resolves FileIDs to paths, text, and line/column positions. A Map is
// built incrementally by the driver as files are loaded and is shared
// read-only by every later pipeline stage, including diagnostics rendering.
type Map struct {
	files []*file
}

// NewMap creates an empty source map.
func NewMap() *Map {
	return &Map{}
}

// AddFile registers a file's contents and returns its FileID. Line starts
// are precomputed once so position lookups are O(log n).
func (m *Map) AddFile(path, text string) FileID {
	f := &file{path: path, text: text, lineStarts: computeLineStarts(text)}
	m.files = append(m.files, f)
	return FileID(len(m.files) - 1)
}

func computeLineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Path returns the registered path for id.
func (m *Map) Path(id FileID) string {
	if int(id) < 0 || int(id) >= len(m.files) {
		return "<unknown>"
	}
	return m.files[id].path
}

// Text returns the full registered source text for id.
func (m *Map) Text(id FileID) string {
	if int(id) < 0 || int(id) >= len(m.files) {
		return ""
	}
	return m.files[id].text
}

// Position resolves a byte offset within file id to a 1-indexed line/column.
func (m *Map) Position(id FileID, offset int) Pos {
	if int(id) < 0 || int(id) >= len(m.files) {
		return Pos{Line: 1, Column: 1}
	}
	f := m.files[id]
	line := searchLine(f.lineStarts, offset)
	col := offset - f.lineStarts[line] + 1
	return Pos{Line: line + 1, Column: col}
}

// Line returns the raw text of the given 1-indexed line, without its
// trailing newline, for use in diagnostic snippets.
func (m *Map) Line(id FileID, lineNo int) string {
	if int(id) < 0 || int(id) >= len(m.files) {
		return ""
	}
	f := m.files[id]
	idx := lineNo - 1
	if idx < 0 || idx >= len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[idx]
	end := len(f.text)
	if idx+1 < len(f.lineStarts) {
		end = f.lineStarts[idx+1] - 1 // exclude '\n'
		if end > 0 && f.text[end-1] == '\r' {
			end--
		}
	}
	if start > end {
		return ""
	}
	return f.text[start:end]
}

func searchLine(starts []int, offset int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
