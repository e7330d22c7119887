package source

// FileID identifies a file within a unit's file table.
type FileID uint32

// LineCol is a human-readable position, both components 1-based.
type LineCol struct {
	Line uint32
	Col  uint32
}
