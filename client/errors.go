// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import "errors"

// Kind classifies why a call failed.
type Kind int

const (
	// KindNetwork: the request never produced a response (refused, timeout, DNS).
	KindNetwork Kind = iota + 1
	// KindUnreachable: the call was skipped because the server failed its probe.
	KindUnreachable
	// KindHTTP: a non-2xx response whose body is not an envelope.
	KindHTTP
	// KindRemote: the server answered with success=false, whatever the status.
	KindRemote
	// KindDecode: a 2xx response that could not be decoded.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnreachable:
		return "unreachable"
	case KindHTTP:
		return "http"
	case KindRemote:
		return "remote"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the only error type a call resolves with. Msg is always fit to
// show to a user.
type Error struct {
	Kind   Kind
	Status int // zero when no response arrived
	Msg    string
	Err    error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a client *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}
