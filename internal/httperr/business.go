package httperr

import (
	"errors"
	"strings"
)

// Kind classifies a failure for propagation decisions.
type Kind string

const (
	KindMalformedInput   Kind = "malformed_input"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindStoreUnavailable Kind = "store_unavailable"
	KindUnexpected       Kind = "unexpected"
)

type BusinessError struct {
	Kind    Kind
	Code    string
	Details []string
	Err     error
}

func (e *BusinessError) Error() string {
	msg := e.Code
	if len(e.Details) > 0 {
		msg = strings.Join(e.Details, "; ")
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func New(kind Kind, code string, details ...string) error {
	return &BusinessError{Kind: kind, Code: code, Details: details}
}

// Wrap classifies a collaborator error while keeping it reachable through errors.Unwrap.
func Wrap(kind Kind, code string, err error) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Kind: kind, Code: code, Err: err}
}

// Unavailable marks err as a store or queue I/O failure.
func Unavailable(err error) error {
	return Wrap(KindStoreUnavailable, "store_unavailable", err)
}

// KindOf returns the kind of the outermost classified error in the chain.
// Unclassified errors are KindUnexpected.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnexpected
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
