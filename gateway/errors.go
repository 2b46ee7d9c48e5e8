package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an error chain into the client's failure taxonomy.
type ErrorKind uint8

const (
	// KindNone means the error is nil or not produced by the gateway.
	KindNone ErrorKind = iota
	// KindTransport means no response reached the client.
	KindTransport
	// KindRejected means the server answered with a non-2xx status.
	KindRejected
	// KindMalformed means a 2xx response lacked an expected field.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindRejected:
		return "rejected"
	case KindMalformed:
		return "malformed"
	default:
		return "none"
	}
}

// TransportError is returned when the request never produced a response:
// dial failures, timeouts, cancellation, or a body that could not be read.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is returned for any non-2xx response.
//
// Detail holds the response's "detail" field when it is a plain string
// (e.g. "REGISTER_USER_ALREADY_EXISTS"). DetailCode holds "detail.code" when
// the detail is an object (e.g. {"code": "REGISTER_INVALID_PASSWORD", ...}).
type HTTPError struct {
	Status     int
	Detail     string
	DetailCode string
	Body       []byte
}

func (e *HTTPError) Error() string {
	reason := e.Reason()
	if reason == "" {
		return fmt.Sprintf("gateway: http %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("gateway: http %d (%s)", e.Status, reason)
}

// Reason returns the most specific reason code the server sent, preferring
// the object form's code over the string form.
func (e *HTTPError) Reason() string {
	if e.DetailCode != "" {
		return e.DetailCode
	}
	return e.Detail
}

// MalformedError is returned when a 2xx response is missing something the
// caller requires.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "gateway: malformed response: " + e.Reason
}

// Malformed builds a MalformedError with a formatted reason.
func Malformed(format string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}

// Kind reports which taxonomy bucket err falls into.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return KindTransport
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return KindRejected
	}
	var malformedErr *MalformedError
	if errors.As(err, &malformedErr) {
		return KindMalformed
	}
	return KindNone
}

// AsHTTPError unwraps err to an *HTTPError when one is in the chain.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

type errorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

type errorDetailObject struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func newHTTPError(status int, body []byte) *HTTPError {
	out := &HTTPError{Status: status, Body: body}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return out
	}
	raw := bytes.TrimSpace(envelope.Detail)
	if len(raw) == 0 {
		return out
	}

	switch raw[0] {
	case '"':
		var detail string
		if err := json.Unmarshal(raw, &detail); err == nil {
			out.Detail = detail
		}
	case '{':
		var detail errorDetailObject
		if err := json.Unmarshal(raw, &detail); err == nil {
			out.DetailCode = detail.Code
		}
	}
	return out
}
