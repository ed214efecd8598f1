// Package httpx provides HTTP middleware and JSON helpers shared by storefront
// handlers.
package httpx

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	apperrors "github.com/louisbranch/paidportfolio/internal/platform/errors"
	"github.com/louisbranch/paidportfolio/internal/platform/requestctx"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// MaxJSONBody caps decoded request bodies.
const MaxJSONBody = 1 << 20

// Middleware wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

var requestIDCounter atomic.Uint64

// Chain applies middleware in declaration order.
func Chain(handler http.Handler, middleware ...Middleware) http.Handler {
	if handler == nil {
		handler = http.NotFoundHandler()
	}
	wrapped := handler
	for idx := len(middleware) - 1; idx >= 0; idx-- {
		if middleware[idx] == nil {
			continue
		}
		wrapped = middleware[idx](wrapped)
	}
	return wrapped
}

// RequestID injects and echoes a request id for correlation.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" {
				requestID = fmt.Sprintf("sf-%d-%d", time.Now().UnixNano(), requestIDCounter.Add(1))
				r.Header.Set(RequestIDHeader, requestID)
			}
			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), requestID)))
		})
	}
}

// RecoverPanic converts panics into HTTP 500 responses.
func RecoverPanic() Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.Printf(
						"panic recovered method=%s path=%s request_id=%s panic=%v stack=%s",
						r.Method,
						r.URL.Path,
						requestIDOf(r),
						recovered,
						strings.TrimSpace(string(debug.Stack())),
					)
					_ = WriteJSONError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// AccessLog writes one line per request with status and latency.
func AccessLog() Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := NewStatusRecorder(w)
			next.ServeHTTP(rec, r)
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				return
			}
			log.Printf("%s %s %d in %dms request_id=%s",
				r.Method, r.URL.Path, rec.Status(), time.Since(start).Milliseconds(), requestIDOf(r))
		})
	}
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	status int
}

// NewStatusRecorder wraps w.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w}
}

// WriteHeader records the status before delegating.
func (r *StatusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

// Write records an implicit 200 before delegating.
func (r *StatusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(p)
}

// Status returns the recorded status, defaulting to 200.
func (r *StatusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *StatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// WriteJSON writes a JSON response with the provided status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return fmt.Errorf("response writer is required")
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteJSONError writes a JSON error response with the given status code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]any{"error": message})
}

// ErrorMessages holds the client-facing messages for one endpoint.
type ErrorMessages struct {
	Invalid  string // validation failure headline
	NotFound string
	Failure  string // generic message for every 5xx
}

// WriteError maps err onto a JSON error response. Validation failures list every
// failing field; server-side failures are logged and reported generically.
func WriteError(w http.ResponseWriter, r *http.Request, err error, messages ErrorMessages) {
	status := apperrors.HTTPStatus(err)
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidInput:
		_ = WriteJSON(w, status, map[string]any{
			"error":   fallback(messages.Invalid, "Invalid request data"),
			"details": apperrors.FieldsOf(err),
		})
		return
	case apperrors.KindNotFound:
		_ = WriteJSONError(w, status, fallback(messages.NotFound, "Not found"))
		return
	case apperrors.KindAuthorization:
		_ = WriteJSONError(w, status, "Payment verification failed")
		return
	}
	log.Printf("request failed method=%s path=%s request_id=%s err=%v",
		r.Method, r.URL.Path, requestIDOf(r), err)
	_ = WriteJSONError(w, status, fallback(messages.Failure, "Internal server error"))
}

// DecodeJSON decodes one JSON object from the request body. Malformed bodies are
// reported as validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	body := http.MaxBytesReader(w, r.Body, MaxJSONBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return apperrors.Invalid("malformed JSON body", []apperrors.FieldError{{
			Field:   "body",
			Message: decodeMessage(err),
		}})
	}
	if err := dec.Decode(&struct{}{}); !stderrors.Is(err, io.EOF) {
		return apperrors.Invalid("malformed JSON body", []apperrors.FieldError{{
			Field:   "body",
			Message: "body must contain a single JSON object",
		}})
	}
	return nil
}

// RequestContext returns r.Context() with a nil-safe fallback to context.Background().
func RequestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	return r.Context()
}

func decodeMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case stderrors.Is(err, io.EOF):
		return "body is required"
	case stderrors.As(err, &syntaxErr):
		return "body is not valid JSON"
	case stderrors.As(err, &typeErr):
		if typeErr.Field != "" {
			return typeErr.Field + " has the wrong type"
		}
		return "body has the wrong type"
	case stderrors.As(err, &maxErr):
		return "body is too large"
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return strings.TrimPrefix(err.Error(), "json: ") + " is not accepted"
	default:
		return "body is not valid JSON"
	}
}

func requestIDOf(r *http.Request) string {
	if r == nil {
		return "-"
	}
	if rid := strings.TrimSpace(r.Header.Get(RequestIDHeader)); rid != "" {
		return rid
	}
	return "-"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
