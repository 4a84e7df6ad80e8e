package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget/internal/auth"
	"budget/internal/core"
	"budget/internal/log"
)

// envelope is the body of every JSON response.
type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
	Message string `json:"message,omitempty"`
}

// ResponseBuilder assembles a JSON response.
type ResponseBuilder struct {
	statusCode int
	body       envelope
	headers    map[string]string
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		body:       envelope{Status: "ok"},
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.body.Data = v
	return b
}

// Warning attaches a soft failure to an otherwise successful response.
func (b *ResponseBuilder) Warning(msg string) *ResponseBuilder {
	b.body.Warning = msg
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	if b.statusCode == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse builds {"status":"error","message":...}.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	b := NewResponse().Status(statusCode)
	b.body = envelope{Status: "error", Message: message}
	return b
}

// writeError maps err onto a status code. Store and unexpected failures are
// logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		ErrorResponse(http.StatusUnauthorized, "Authentication required").Write(w)
	case errors.Is(err, core.ErrNotFound):
		ErrorResponse(http.StatusNotFound, "Not found").Write(w)
	case errors.As(err, &ve):
		ErrorResponse(http.StatusUnprocessableEntity, ve.Error()).Write(w)
	case core.IsValidationError(err):
		ErrorResponse(http.StatusUnprocessableEntity, rootMessage(err)).Write(w)
	default:
		errType := log.ErrorTypeInternal
		if core.IsStoreError(err) {
			errType = log.ErrorTypeDatabase
		}
		log.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, r.Method+" "+r.URL.Path, errType,
			log.NewFields().WithOwner(auth.OwnerFromContext(r.Context())))
		ErrorResponse(http.StatusInternalServerError, "Internal server error").Write(w)
	}
}

// rootMessage returns the innermost error text, which is the one meant for
// users.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
