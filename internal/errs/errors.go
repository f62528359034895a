// Package errs provides the unified error type used across all of timefs.
//
// Every subsystem (vfs backends, the template compiler, the storage model, …)
// wraps its native errors into *errs.Error before returning them to callers.
// Callers use the Is* predicates to handle errors without importing
// backend-specific packages.
//
// Usage:
//
//	// In a backend, wrap native errors:
//	return errs.Wrap(errs.ErrKindIOFailure, "download interrupted", err)
//
//	// In a caller, check the error kind:
//	if errs.IsNotFound(err) {
//	    continue
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing backend-specific codes.
// All backends (local, HTTP, FTP, object store) map their native errors to
// one of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown             ErrKind = iota
	ErrKindUnsupportedProtocol         // URI scheme has no backend
	ErrKindFileSystemOffline           // reachability probe failed
	ErrKindNotFound                    // no file, no directory, no object
	ErrKindCancelled                   // progress monitor or context cancelled the operation
	ErrKindInvalidArgument             // malformed template, glob or name; always a caller bug
	ErrKindNotFromModel                // reverse lookup of a file the model never produced
	ErrKindIOFailure                   // transfer or local disk error
	ErrKindPermissionDenied            // access denied / auth failure
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindUnsupportedProtocol:
		return "unsupported_protocol"
	case ErrKindFileSystemOffline:
		return "file_system_offline"
	case ErrKindNotFound:
		return "not_found"
	case ErrKindCancelled:
		return "cancelled"
	case ErrKindInvalidArgument:
		return "invalid_argument"
	case ErrKindNotFromModel:
		return "not_from_model"
	case ErrKindIOFailure:
		return "io_failure"
	case ErrKindPermissionDenied:
		return "permission_denied"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all timefs subsystems.
// Backends produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsUnsupportedProtocol reports whether err was caused by an unknown URI scheme.
func IsUnsupportedProtocol(err error) bool {
	return KindOf(err) == ErrKindUnsupportedProtocol
}

// IsFileSystemOffline reports whether a remote root could not be reached.
func IsFileSystemOffline(err error) bool {
	return KindOf(err) == ErrKindFileSystemOffline
}

// IsNotFound reports whether err represents a missing file or directory.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsCancelled reports whether the operation was abandoned on request.
func IsCancelled(err error) bool {
	return KindOf(err) == ErrKindCancelled
}

// IsInvalidArgument reports whether err was caused by bad input from the caller.
func IsInvalidArgument(err error) bool {
	return KindOf(err) == ErrKindInvalidArgument
}

// IsNotFromModel reports whether a reverse lookup hit an untracked file.
func IsNotFromModel(err error) bool {
	return KindOf(err) == ErrKindNotFromModel
}

// IsIOFailure reports whether err is a transfer or disk failure.
func IsIOFailure(err error) bool {
	return KindOf(err) == ErrKindIOFailure
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// KindOf extracts the ErrKind from the first *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

// HasKind reports whether any *Error in err's chain has the given kind.
// Unlike KindOf it looks past the outermost *Error, so a cancellation
// wrapped as FileSystemOffline is still found.
func HasKind(err error, kind ErrKind) bool {
	switch x := err.(type) {
	case nil:
		return false
	case *Error:
		if x.Kind == kind {
			return true
		}
		return HasKind(x.Cause, kind)
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if HasKind(e, kind) {
				return true
			}
		}
		return false
	default:
		return HasKind(errors.Unwrap(err), kind)
	}
}
