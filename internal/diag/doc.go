// Package diag defines the diagnostic model shared by the verification pass
// and the CLI.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced by
//     the capture analyzer, the ownership tracker and the isolation checker.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting layers.
//
// # Design constraint
//
// The pass must error, never crash: every internal precondition failure in
// the verifier is routed through this package as a diagnostic (usually
// VerifyUnsupportedConstruct) instead of a panic or a process abort. Nothing
// in this package itself panics on malformed input.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//
// Notes should be used sparingly: each note must add new context (e.g.
// "borrow began here") rather than repeating the diagnostic message.
package diag
