package git

import (
	"errors"
	"fmt"
)

// Code is one of the error kinds in spec §7. The taxonomy is closed: every
// error this module returns carries exactly one Code.
type Code string

const (
	InvalidArgument  Code = "INVALID_ARGUMENT"
	NotFound         Code = "NOT_FOUND"
	AlreadyExists    Code = "ALREADY_EXISTS"
	PermissionDenied Code = "PERMISSION_DENIED"
	IOError          Code = "IO_ERROR"
	LockConflict     Code = "LOCK_CONFLICT"
	ObjectFormat     Code = "OBJECT_FORMAT_ERROR"
	PackFormat       Code = "PACK_FORMAT_ERROR"
	ProtoError       Code = "PROTO_ERROR"
	Unsupported      Code = "UNSUPPORTED"
	IntegrityError   Code = "INTEGRITY_ERROR"
	NetworkError     Code = "NETWORK_ERROR"
	Timeout          Code = "TIMEOUT"
	Cancelled        Code = "CANCELLED"
	AuthRequired     Code = "AUTH_REQUIRED"
	AuthRejected     Code = "AUTH_REJECTED"
	MergeConflict    Code = "MERGE_CONFLICT"
	RebaseConflict   Code = "REBASE_CONFLICT"
	SignatureInvalid Code = "SIGNATURE_INVALID"
)

// Error is the concrete error type every core operation returns. It
// generalizes go-git's one-sentinel-per-condition idiom
// (plumbing.ErrObjectNotFound, storage.ErrReferenceHasChanged, ...) into a
// single taxonomy-driven type, since spec §7 defines a closed kind-set
// rather than ad hoc sentinels.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) work by comparing on Code alone,
// using the sentinel codeError values below as the match targets.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) && t.Err == nil && t.Msg == "" {
		return e.Code == t.Code
	}
	return false
}

// Errorf builds a new Error of the given code.
func Errorf(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code to an existing error.
func Wrap(code Code, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: err.Error(), Err: err}
}

// sentinel returns a bare code-only Error usable as an errors.Is target.
func sentinel(code Code) error { return &Error{Code: code} }

// Sentinels for errors.Is(err, gitcore.ErrXxx) comparisons, one per code.
var (
	ErrInvalidArgument  = sentinel(InvalidArgument)
	ErrNotFound         = sentinel(NotFound)
	ErrAlreadyExists    = sentinel(AlreadyExists)
	ErrPermissionDenied = sentinel(PermissionDenied)
	ErrIO               = sentinel(IOError)
	ErrLockConflict     = sentinel(LockConflict)
	ErrObjectFormat     = sentinel(ObjectFormat)
	ErrPackFormat       = sentinel(PackFormat)
	ErrProto            = sentinel(ProtoError)
	ErrUnsupported      = sentinel(Unsupported)
	ErrIntegrity        = sentinel(IntegrityError)
	ErrNetwork          = sentinel(NetworkError)
	ErrTimeout          = sentinel(Timeout)
	ErrCancelled        = sentinel(Cancelled)
	ErrAuthRequired     = sentinel(AuthRequired)
	ErrAuthRejected     = sentinel(AuthRejected)
	ErrMergeConflict    = sentinel(MergeConflict)
	ErrRebaseConflict   = sentinel(RebaseConflict)
	ErrSignatureInvalid = sentinel(SignatureInvalid)
)

// CodeOf extracts the Code from err, defaulting to IOError for errors this
// module did not itself originate (e.g. raw os.PathError from a Port).
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return IOError
}
