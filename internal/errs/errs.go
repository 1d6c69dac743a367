// Package errs defines the error taxonomy surfaced by every other engine
// package. Each partition wraps an inner error with %w, the same way
// smf's apply package wraps every failure it reports to a caller.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies which pipeline stage produced an error.
type Kind string

const (
	KindParse     Kind = "parse"
	KindTranslate Kind = "translate"
	KindPlan      Kind = "plan"
	KindFetch     Kind = "fetch"
	KindEvaluate  Kind = "evaluate"
	KindValue     Kind = "value"
	KindKey       Kind = "key"
	KindAlter     Kind = "alter"
	KindUpdate    Kind = "update"
	KindStorage   Kind = "storage"
)

// taggedError is the common shape behind every exported error type in this
// package: a Kind, a short message, and an optional wrapped cause.
type taggedError struct {
	kind Kind
	msg  string
	err  error
}

func (e *taggedError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *taggedError) Unwrap() error { return e.err }

func newf(kind Kind, format string, args ...any) error {
	return &taggedError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func wrapf(kind Kind, err error, format string, args ...any) error {
	return &taggedError{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// Parse reports that SQL text did not lex/parse under the supported grammar.
func Parse(err error, sql string) error {
	return wrapf(KindParse, err, "failed to parse %q", truncate(sql, 80))
}

// Translate reports that a parsed statement uses an unsupported construct.
func Translate(format string, args ...any) error { return newf(KindTranslate, format, args...) }

// Plan reports a schema-resolution failure encountered while rewriting a
// statement (ambiguous column, unknown table, ...).
func Plan(format string, args ...any) error { return newf(KindPlan, format, args...) }

// Fetch reports that a table/alias could not be resolved during execution.
func Fetch(format string, args ...any) error { return newf(KindFetch, format, args...) }

// Evaluate reports a failure while evaluating a scalar expression.
func Evaluate(format string, args ...any) error { return newf(KindEvaluate, format, args...) }

// Value reports a cast/parse/overflow failure inside the value model.
func Value(format string, args ...any) error { return newf(KindValue, format, args...) }

// Key reports an attempt to use a non-key-able value as a row key.
func Key(format string, args ...any) error { return newf(KindKey, format, args...) }

// Alter reports a DDL failure (table exists, column missing, ...).
func Alter(format string, args ...any) error { return newf(KindAlter, format, args...) }

// Update reports that an UPDATE assignment referenced an unknown column.
func Update(format string, args ...any) error { return newf(KindUpdate, format, args...) }

// Storage wraps an error that originated inside a storage back-end,
// including "capability not supported" failures.
func Storage(err error) error {
	return wrapf(KindStorage, err, "storage error")
}

// StorageMsg is a Storage error built directly from a message, used by
// back-ends (like the reference memory store) that have no underlying Go
// error to wrap.
func StorageMsg(format string, args ...any) error {
	return newf(KindStorage, format, args...)
}

// Classify returns the Kind of err if it (or something it wraps) is one of
// this package's tagged errors, and ok=false otherwise.
func Classify(err error) (kind Kind, ok bool) {
	var te *taggedError
	if errors.As(err, &te) {
		return te.kind, true
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
