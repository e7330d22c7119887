package diag

import "borrowck/internal/source"

// Reporter is the minimal contract for components that emit diagnostics.
// Implementations: BagReporter (stores into a Bag), DedupReporter (filters
// repeats), and test doubles.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter stores every reported diagnostic into Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// Error reports an error-severity diagnostic through r.
func Error(r Reporter, code Code, primary source.Span, msg string) {
	if r == nil {
		return
	}
	r.Report(NewError(code, primary, msg))
}

// Warning reports a warning-severity diagnostic through r.
func Warning(r Reporter, code Code, primary source.Span, msg string) {
	if r == nil {
		return
	}
	r.Report(NewWarning(code, primary, msg))
}
