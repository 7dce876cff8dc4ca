package hxadmin

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
	"github.com/pthm/hxadmin/lib/form"
)

// Sentinel errors for controller and page operations.
var (
	ErrNotFound           = errors.New("hxadmin: resource not found")
	ErrDecryptFailed      = errors.New("hxadmin: parameter decryption failed")
	ErrSignatureInvalid   = errors.New("hxadmin: signature verification failed")
	ErrInvalidFormat      = errors.New("hxadmin: invalid parameter format")
	ErrNotReady           = errors.New("hxadmin: controller is not ready to submit")
	ErrSubmitInProgress   = errors.New("hxadmin: submit already in progress")
	ErrUnexpectedEnvelope = errors.New("hxadmin: unexpected response envelope")
)

// LogicalError is a response the backend delivered with result=false.
// It is a data-level failure, distinct from a transport error.
type LogicalError struct {
	Message string
}

func (e *LogicalError) Error() string {
	if e.Message == "" {
		return "hxadmin: request was not successful"
	}
	return "hxadmin: " + e.Message
}

// UserMessage returns the backend's message.
func (e *LogicalError) UserMessage() string {
	return e.Message
}

// MessageOf returns the message meant for the user that err carries, such
// as the message of a result=false response or of a backend error body.
// It returns "" when err carries none.
func MessageOf(err error) string {
	var m interface{ UserMessage() string }
	if errors.As(err, &m) {
		return m.UserMessage()
	}
	return ""
}

// TransportError wraps a failure of the transport itself (network, HTTP).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hxadmin: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDecryptionError checks if err is a decryption or signature error.
func IsDecryptionError(err error) bool {
	return errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrSignatureInvalid)
}

// IsInvalidFormat checks if err is a malformed props error.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// IsLogicalFailure checks if err is a result=false response.
func IsLogicalFailure(err error) bool {
	var le *LogicalError
	return errors.As(err, &le)
}

// IsTransportError checks if err came from the transport.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsValidationError checks if err is a form validation failure.
func IsValidationError(err error) bool {
	var ve *form.ValidationError
	return errors.As(err, &ve)
}

// ErrorComponent renders message as an inline error panel. Pages use it in
// place of content that failed to load.
func ErrorComponent(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="hxadmin-error" role="alert">%s</div>`, html.EscapeString(message))
		return err
	})
}
