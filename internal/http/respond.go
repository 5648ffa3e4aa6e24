package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"jellybank/internal/core"
)

// statusFor maps a domain failure class to an HTTP status.
func statusFor(kind core.ErrorKind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindUnauthenticated:
		return http.StatusUnauthorized
	case core.KindAuthorization:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	case core.KindIncomplete:
		return http.StatusUnprocessableEntity
	case core.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err, "url", r.URL.Path)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *core.Error
	if !errors.As(err, &domainErr) {
		domainErr = core.E(core.KindInternal, "Internal", "internal error").Wrap(err)
	}

	status := statusFor(domainErr.Kind)
	if status >= 500 {
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"url", r.URL.Path,
			"status", status)
	} else {
		slog.WarnContext(r.Context(), "Request rejected",
			"code", domainErr.Code,
			"url", r.URL.Path,
			"status", status)
	}

	body := errorBody{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Details: domainErr.Details,
	}
	// Internal causes stay out of responses.
	if domainErr.Kind == core.KindInternal {
		body.Message = "internal error"
		body.Details = nil
	}
	writeJSON(w, r, status, map[string]any{"error": body})
}

// decodeBody parses a JSON request body into dst. An empty body is
// allowed and leaves dst at its zero value.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.E(core.KindValidation, core.CodeInvalidInput, "invalid JSON body").Wrap(err)
	}
	return nil
}
