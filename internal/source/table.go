package source

import (
	"sort"
)

// File is one entry of a unit's file table. LineStarts holds the byte offset
// of every line start (always beginning with 0) when the front end chose to
// ship it; without it spans still render, just as raw offsets.
type File struct {
	Path       string
	LineStarts []uint32
}

// Table maps FileIDs to file metadata. A Table is built once per unit and is
// read-only afterwards, so concurrent function verification may share it.
type Table struct {
	files []File
}

// NewTable builds a table from the unit's file list, in order. FileID 0 is
// the first entry.
func NewTable(files []File) *Table {
	return &Table{files: files}
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.files)
}

// Get returns the file for id, or nil if the id is out of range.
func (t *Table) Get(id FileID) *File {
	if t == nil || int(id) >= len(t.files) {
		return nil
	}
	return &t.files[id]
}

// Loc is a resolved human-readable location.
type Loc struct {
	Path string
	Line uint32
	Col  uint32
}

// Resolve maps a span's start offset to path:line:col. When the file carries
// no line starts, Line and Col are 0 and the caller falls back to offsets.
func (t *Table) Resolve(sp Span) (Loc, bool) {
	f := t.Get(sp.File)
	if f == nil {
		return Loc{}, false
	}
	loc := Loc{Path: f.Path}
	if len(f.LineStarts) == 0 {
		return loc, true
	}
	// First line start strictly greater than the offset; the line is the one
	// before it.
	idx := sort.Search(len(f.LineStarts), func(i int) bool {
		return f.LineStarts[i] > sp.Start
	})
	if idx == 0 {
		idx = 1
	}
	line := uint32(idx)
	loc.Line = line
	loc.Col = sp.Start - f.LineStarts[idx-1] + 1
	return loc, true
}
