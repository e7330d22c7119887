package ir

import (
	"borrowck/internal/source"
)

// Unit is one compilation unit as shipped by the front end: a file table for
// diagnostics plus the functions to verify, in front-end order.
type Unit struct {
	Name  string
	Files []source.File
	Funcs []Func
}

// Table builds the source table for span resolution. The result is read-only
// and safe to share across parallel function verification.
func (u *Unit) Table() *source.Table {
	if u == nil {
		return source.NewTable(nil)
	}
	return source.NewTable(u.Files)
}
