package rest

import (
	"fmt"
	"net/http"

	"github.com/pthm/hxadmin"
)

type StatusCodeRange int

const (
	StatusUnknown StatusCodeRange = iota
	Status1xx
	Status2xx
	Status3xx
	Status4xx
	Status5xx
)

func (sc StatusCodeRange) String() string {
	switch sc {
	case Status1xx:
		return "informational response"
	case Status2xx:
		return "success"
	case Status3xx:
		return "redirect"
	case Status4xx:
		return "client error"
	case Status5xx:
		return "server error"
	default:
		return fmt.Sprintf("unknown (%d)", sc)
	}
}

func StatusCodeRangeOf(resp *http.Response) StatusCodeRange {
	sc := resp.StatusCode
	if sc < 200 {
		return Status1xx
	}
	if sc < 300 {
		return Status2xx
	}
	if sc < 400 {
		return Status3xx
	}
	if sc < 500 {
		return Status4xx
	}
	if sc < 600 {
		return Status5xx
	}
	return StatusUnknown
}

// StatusError is returned by Client when the backend answers outside the
// 2xx range. It is a transport failure, not a logical one.
type StatusError struct {
	StatusCode int
	Method     string
	URL        string

	// Message is the backend's "message" field, or the raw body.
	Message string
}

func (e *StatusError) Error() string {
	scr := StatusCodeRangeOf(&http.Response{StatusCode: e.StatusCode})
	msg := fmt.Sprintf("rest: %s %s: %s (status code = %d)", e.Method, e.URL, scr, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// UserMessage returns the message of the error body.
func (e *StatusError) UserMessage() string {
	return e.Message
}

// Unwrap maps 404 onto hxadmin.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return hxadmin.ErrNotFound
	}
	return nil
}
