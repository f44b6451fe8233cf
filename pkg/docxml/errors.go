// Package docxml error types for parse, reconciliation, and package I/O failures.
package docxml

import (
	"fmt"
)

// MalformedMarkupError reports unparseable XML in a part. It is always fatal;
// there is no lenient fallback for markup the tokenizer cannot read.
type MalformedMarkupError struct {
	Part  string
	Cause error
}

func (e *MalformedMarkupError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("malformed markup in %s: %v", e.Part, e.Cause)
	}
	return fmt.Sprintf("malformed markup: %v", e.Cause)
}

func (e *MalformedMarkupError) Unwrap() error {
	return e.Cause
}

// NewMalformedMarkupError creates a malformed markup error for a part.
func NewMalformedMarkupError(part string, cause error) error {
	return &MalformedMarkupError{Part: part, Cause: cause}
}

// UnbalancedFieldError reports a complex-field begin/end mismatch in one
// paragraph. Recoverable in lenient mode by degrading the open frames to
// literal runs; fatal in strict mode.
type UnbalancedFieldError struct {
	Part    string
	Message string
}

func (e *UnbalancedFieldError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("unbalanced field in %s: %s", e.Part, e.Message)
	}
	return fmt.Sprintf("unbalanced field: %s", e.Message)
}

// NewUnbalancedFieldError creates an unbalanced field error.
func NewUnbalancedFieldError(part, message string) error {
	return &UnbalancedFieldError{Part: part, Message: message}
}

// DanglingMarkerError reports a structural marker start or end with no
// matching pair. Recorded as a warning; the orphan marker is kept in the
// output rather than dropped.
type DanglingMarkerError struct {
	Part string
	ID   int
	Kind string // "start" or "end"
}

func (e *DanglingMarkerError) Error() string {
	return fmt.Sprintf("dangling bookmark %s with id %d in %s", e.Kind, e.ID, e.Part)
}

// NewDanglingMarkerError creates a dangling marker error.
func NewDanglingMarkerError(part string, id int, kind string) error {
	return &DanglingMarkerError{Part: part, ID: id, Kind: kind}
}

// PackageIOError reports a failure at the package container boundary. The
// underlying error is propagated unchanged via Unwrap.
type PackageIOError struct {
	Op    string
	Path  string
	Cause error
}

func (e *PackageIOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("package %s failed for %s: %v", e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("package %s failed: %v", e.Op, e.Cause)
}

func (e *PackageIOError) Unwrap() error {
	return e.Cause
}

// NewPackageIOError creates a package I/O error.
func NewPackageIOError(op, path string, cause error) error {
	return &PackageIOError{Op: op, Path: path, Cause: cause}
}

// Warning records a recoverable parse problem found in lenient mode, paired
// with the element it was found on.
type Warning struct {
	Part    string
	Element string
	Err     error
}

func (w Warning) String() string {
	if w.Element != "" {
		return fmt.Sprintf("%s: <%s>: %v", w.Part, w.Element, w.Err)
	}
	return fmt.Sprintf("%s: %v", w.Part, w.Err)
}

// IsMalformedMarkupError checks if an error is a malformed markup error.
func IsMalformedMarkupError(err error) bool {
	_, ok := err.(*MalformedMarkupError)
	return ok
}

// IsUnbalancedFieldError checks if an error is an unbalanced field error.
func IsUnbalancedFieldError(err error) bool {
	_, ok := err.(*UnbalancedFieldError)
	return ok
}

// IsDanglingMarkerError checks if an error is a dangling marker error.
func IsDanglingMarkerError(err error) bool {
	_, ok := err.(*DanglingMarkerError)
	return ok
}

// IsPackageIOError checks if an error is a package I/O error.
func IsPackageIOError(err error) bool {
	_, ok := err.(*PackageIOError)
	return ok
}
