// Package apperr classifies the faults a fulfillment request can end in.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind uint8

const (
	KindInternal Kind = iota
	// KindValidation means the caller's payload is incomplete.
	KindValidation
	// KindConfiguration means the process lacks credentials or fields needed to proceed.
	KindConfiguration
	// KindNotification means the customer email could not be delivered.
	KindNotification
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindConfiguration:
		return "configuration_error"
	case KindNotification:
		return "notification_error"
	default:
		return "internal_error"
	}
}

// HTTPStatus maps a kind to the status returned by the inbound API.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotification:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, apperr.ErrValidation) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrNotification  = &Error{Kind: KindNotification}
)

func Validation(msg string, fields map[string]string) error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

func Configuration(msg string) error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

func Configurationf(format string, a ...any) error {
	return &Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, a...)}
}

func Notification(err error) error {
	return &Error{Kind: KindNotification, Msg: "send notification", Err: err}
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns KindInternal for errors that are not ours.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
