package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an application error independently of its HTTP status.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindPayment      Kind = "payment"
	KindConflict     Kind = "conflict"
	KindStorage      Kind = "storage"
	KindInternal     Kind = "internal"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    Kind   `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrNotFound) matches any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind != "" && t.Kind == e.Kind
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Kind:    kindForCode(code),
		Err:     err,
	}
}

func kindForCode(code int) Kind {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindUnauthorized
	case http.StatusPaymentRequired, http.StatusBadGateway:
		return KindPayment
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}

// Sentinels for errors.Is checks.
var (
	ErrValidation   = &Error{Code: http.StatusBadRequest, Message: "Validation error", Kind: KindValidation}
	ErrNotFound     = &Error{Code: http.StatusNotFound, Message: "Not found", Kind: KindNotFound}
	ErrUnauthorized = &Error{Code: http.StatusUnauthorized, Message: "Unauthorized", Kind: KindUnauthorized}
	ErrPayment      = &Error{Code: http.StatusPaymentRequired, Message: "Payment failed", Kind: KindPayment}
	ErrConflict     = &Error{Code: http.StatusConflict, Message: "Conflict", Kind: KindConflict}
	ErrStorage      = &Error{Code: http.StatusInternalServerError, Message: "Storage error", Kind: KindStorage}
	ErrInternal     = &Error{Code: http.StatusInternalServerError, Message: "Internal server error", Kind: KindInternal}
)

// Validation reports user-correctable bad input.
func Validation(message string, err error) *Error {
	return &Error{Code: http.StatusBadRequest, Message: message, Kind: KindValidation, Err: err}
}

// NotFound reports an unknown user, order or product.
func NotFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Message: message, Kind: KindNotFound}
}

// Unauthorized reports a missing identity or an ownership violation.
func Unauthorized(message string) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: message, Kind: KindUnauthorized}
}

// PaymentRejected reports a gateway that declined the transaction.
func PaymentRejected(message string) *Error {
	return &Error{Code: http.StatusPaymentRequired, Message: message, Kind: KindPayment}
}

// PaymentUnavailable reports a gateway that could not be reached or gave no
// usable answer. The caller may retry.
func PaymentUnavailable(message string, err error) *Error {
	return &Error{Code: http.StatusBadGateway, Message: message, Kind: KindPayment, Err: err}
}

// Conflict reports a concurrent operation on the same resource.
func Conflict(message string) *Error {
	return &Error{Code: http.StatusConflict, Message: message, Kind: KindConflict}
}

// Storage wraps a persistence failure. The message shown to clients is generic.
func Storage(err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: "Storage error", Kind: KindStorage, Err: err}
}

// As extracts an *Error from err, falling back to ErrInternal for anything
// unexpected so that no internal detail reaches the client.
func As(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return &Error{Code: http.StatusInternalServerError, Message: ErrInternal.Message, Kind: KindInternal, Err: err}
}

// HandleError writes err as a JSON body
func HandleError(w http.ResponseWriter, err error) {
	appErr := As(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	_, _ = w.Write([]byte(appErr.JSON()))
}

// Error middleware for Gin
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := As(c.Errors.Last().Err)
			c.JSON(appErr.Code, gin.H{"error": appErr.Message})
			c.Abort()
		}
	}
}
