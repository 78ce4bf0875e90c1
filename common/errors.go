package common

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConfig
	KindCrypto
	KindConnectivity
	KindUnsupported
	KindQuery
	KindValidation
	KindNotFound
)

var kindNames = map[ErrorKind]string{
	KindUnknown:      "UnknownError",
	KindConfig:       "ConfigError",
	KindCrypto:       "CryptoError",
	KindConnectivity: "ConnectivityError",
	KindUnsupported:  "UnsupportedKindError",
	KindQuery:        "QueryExecutionError",
	KindValidation:   "ValidationError",
	KindNotFound:     "NotFoundError",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is the single error type of the domain taxonomy. Cause keeps the
// underlying driver or library error so its text survives into outcomes.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind ErrorKind, cause error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

func NewConfigError(format string, args ...interface{}) error {
	return newError(KindConfig, nil, format, args...)
}

func NewCryptoError(cause error, format string, args ...interface{}) error {
	return newError(KindCrypto, cause, format, args...)
}

func NewConnectivityError(cause error, format string, args ...interface{}) error {
	return newError(KindConnectivity, cause, format, args...)
}

func NewUnsupportedKindError(format string, args ...interface{}) error {
	return newError(KindUnsupported, nil, format, args...)
}

func NewQueryError(cause error, format string, args ...interface{}) error {
	return newError(KindQuery, cause, format, args...)
}

func NewValidationError(format string, args ...interface{}) error {
	return newError(KindValidation, nil, format, args...)
}

func NewNotFoundError(format string, args ...interface{}) error {
	return newError(KindNotFound, nil, format, args...)
}

// KindOf returns the taxonomy kind of err, KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
