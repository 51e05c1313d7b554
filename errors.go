package bfevfl

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a parse or serialize call failed. None of these
// are recovered or retried internally; they are all hard failures that
// propagate straight to the caller.
type ErrorKind int

const (
	// KindMagicMismatch means the file header's magic bytes were not "BFEVFL\x00\x00".
	KindMagicMismatch ErrorKind = iota
	// KindVersionUnsupported means the header version was not 0x0300.
	KindVersionUnsupported
	// KindEndianUnsupported means the byte-order mark was not the little-endian 0xFEFF.
	KindEndianUnsupported
	// KindTruncated means a read ran past the end of the input buffer.
	KindTruncated
	// KindInvariantViolated means a reserved field was non-zero, a required
	// pointer was null, or a count disagreed with a referenced DIC.
	KindInvariantViolated
	// KindUnknownTag means an unknown event type, container data type, or an
	// unsupported wide-string variant was encountered.
	KindUnknownTag
	// KindUnresolved means a required cross-reference could not be mapped to
	// an index while serializing.
	KindUnresolved
	// KindEmptyContent means neither a flowchart nor a timeline was set (or
	// both were) at serialize time.
	KindEmptyContent
	// KindCorrupt means a structural rule was broken, such as a Fork event
	// with zero branches or a SubFlow event with an empty entry point name.
	KindCorrupt
)

func (k ErrorKind) String() string {
	switch k {
	case KindMagicMismatch:
		return "magic mismatch"
	case KindVersionUnsupported:
		return "version unsupported"
	case KindEndianUnsupported:
		return "endian unsupported"
	case KindTruncated:
		return "truncated"
	case KindInvariantViolated:
		return "invariant violated"
	case KindUnknownTag:
		return "unknown tag"
	case KindUnresolved:
		return "unresolved reference"
	case KindEmptyContent:
		return "empty content"
	case KindCorrupt:
		return "corrupt"
	default:
		return "unknown error kind"
	}
}

// Error is the error type returned by every Parse/Serialize failure path in
// this package. Op names the operation that failed (e.g. "Flowchart.read"),
// Kind classifies the failure per spec, and Err, when non-nil, is the
// underlying cause.
type Error struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bfevfl: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("bfevfl: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap constructs an *Error for op/kind, optionally wrapping cause.
func wrap(op string, kind ErrorKind, cause error) *Error {
	return &Error{Op: op, Kind: kind, Err: cause}
}

// KindOf returns the ErrorKind carried by err and true, or zero and false if
// err is nil or was not produced by this package.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
