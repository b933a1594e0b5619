// Package errs defines the typed error taxonomy shared by every component
// of the entropy pool feeder, so the downloader and feeder loops can decide
// "retry locally" versus "fatal" by kind rather than by string-matching.
package errs

import (
	stderrors "errors"
	"strconv"
)

// Kind categorizes a failure so callers can decide how to react without
// inspecting the message text.
type Kind uint8

const (
	KindConfig Kind = iota + 1
	KindResolve
	KindConnect
	KindTLSHandshake
	KindSend
	KindHeaderOverflow
	KindMalformedHeader
	KindHTTPStatus
	KindTruncated
	KindMalformedHex
	KindCryptoPrimitive
	KindMissingFingerprint
	KindFingerprintMismatch
	KindMutexPoisoned
	KindKernelOpen
	KindKernelQuery
	KindKernelInject
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "Config"
	case KindResolve:
		return "Resolve"
	case KindConnect:
		return "Connect"
	case KindTLSHandshake:
		return "TlsHandshake"
	case KindSend:
		return "Send"
	case KindHeaderOverflow:
		return "HeaderOverflow"
	case KindMalformedHeader:
		return "MalformedHeader"
	case KindHTTPStatus:
		return "HttpStatus"
	case KindTruncated:
		return "Truncated"
	case KindMalformedHex:
		return "MalformedHex"
	case KindCryptoPrimitive:
		return "CryptoPrimitive"
	case KindMissingFingerprint:
		return "MissingFingerprint"
	case KindFingerprintMismatch:
		return "FingerprintMismatch"
	case KindMutexPoisoned:
		return "MutexPoisoned"
	case KindKernelOpen:
		return "KernelOpen"
	case KindKernelQuery:
		return "KernelQuery"
	case KindKernelInject:
		return "KernelInject"
	default:
		return "Unknown"
	}
}

// Error wraps a Kind, a human-readable message and an optional inner cause.
type Error struct {
	Kind   Kind
	Msg    string
	Inner  error
	Status int // populated only for KindHTTPStatus
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if e.Kind == KindHTTPStatus {
		msg += ": " + strconv.Itoa(e.Status)
	}
	if e.Inner == nil {
		return msg
	}
	return msg + ": " + e.Inner.Error()
}

func (e *Error) Unwrap() error { return e.Inner }

// New builds a bare typed error with no inner cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches an inner cause to a typed error.
func Wrap(kind Kind, msg string, inner error) *Error {
	return &Error{Kind: kind, Msg: msg, Inner: inner}
}

// HTTPStatus builds a KindHTTPStatus error carrying the observed status code.
func HTTPStatus(code int) *Error {
	return &Error{Kind: KindHTTPStatus, Msg: "unexpected HTTP status", Status: code}
}

// IsKind reports whether err (or any error it wraps) is a typed Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// Fatal reports whether err carries a fatal-class kind.
func Fatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind.Fatal()
	}
	return false
}

// Fatal reports whether a typed error of this kind should terminate the
// feeder pipeline rather than trigger a local retry.
func (k Kind) Fatal() bool {
	switch k {
	case KindKernelOpen, KindKernelQuery, KindKernelInject, KindMutexPoisoned, KindConfig:
		return true
	default:
		return false
	}
}
