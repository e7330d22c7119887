package verify

import (
	"fmt"

	"borrowck/internal/diag"
	"borrowck/internal/ir"
	"borrowck/internal/source"
)

// Context carries everything one function verification run needs: the unit
// being verified and the reporter findings go to. There is no package-level
// mutable state; the driver threads a fresh Context per function.
type Context struct {
	Unit     *ir.Unit
	Reporter diag.Reporter
}

func (c *Context) error(code diag.Code, sp source.Span, format string, args ...any) {
	diag.Error(c.Reporter, code, sp, fmt.Sprintf(format, args...))
}

func (c *Context) warning(code diag.Code, sp source.Span, format string, args ...any) {
	diag.Warning(c.Reporter, code, sp, fmt.Sprintf(format, args...))
}

func (c *Context) report(d diag.Diagnostic) {
	if c.Reporter != nil {
		c.Reporter.Report(d)
	}
}

// valueName renders a value for messages, preferring the front-end name.
func valueName(f *ir.Func, id ir.ValueID) string {
	if v, ok := f.Value(id); ok && v.Name != "" {
		return "'" + v.Name + "'"
	}
	return fmt.Sprintf("v%d", id)
}

// unsupported reports a malformed or unrecognized IR shape. Verification
// continues past it; nothing in this package aborts the process.
func (c *Context) unsupported(sp source.Span, format string, args ...any) {
	c.error(diag.VerifyUnsupportedConstruct, sp, format, args...)
}
