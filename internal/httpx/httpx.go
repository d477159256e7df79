// Package httpx supplies the thin HTTP edge shared by all three command/query
// APIs: router construction, JSON helpers, and apperr-to-status mapping.
// Builds on a "one mux, many listeners" shape, moved from raw net/http to
// chi.
package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	kitlog "github.com/go-kit/kit/log"

	"github.com/ews-platform/ews-consensus/internal/apperr"
)

var Validate = validator.New()

// NewRouter builds a chi.Mux with request-id, recoverer and structured
// request logging, plus permissive CORS for browser-based dashboards.
func NewRouter(logger kitlog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		MaxAge:           300,
	}))
	return r
}

func requestLogger(logger kitlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Log("msg", "http_request", "method", r.Method, "path", r.URL.Path,
				"status", ww.Status(), "bytes", ww.BytesWritten(), "duration", time.Since(start).String(),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

// DecodeJSON decodes r.Body into dst and runs struct-tag validation,
// returning an *apperr.Error with KindValidation on any failure.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("malformed request body: " + err.Error())
	}
	if err := Validate.Struct(dst); err != nil {
		return apperr.Validation("validation failed: " + err.Error())
	}
	return nil
}

// WriteJSON writes v as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err through apperr and writes a {"error": msg} body,
// never leaking anything beyond the short Error() string (§7).
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, apperr.StatusCode(err), map[string]string{"error": err.Error()})
}
