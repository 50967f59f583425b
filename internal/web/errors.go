package web

// errors.go turns handler errors into responses.
//
// The technical error is logged with the request id; the client only sees
// the core.UserMessage for it, as JSON for API callers and as an HTML alert
// for the browser form.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/panda279/leave-note/internal/core"
	"github.com/panda279/leave-note/internal/logging"
	"github.com/panda279/leave-note/internal/web/templates"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := core.StatusCode(err)

	log := logging.FromContext(r.Context())
	attrs := []any{"path", r.URL.Path, "status", status, "code", msg.Code, "error", err}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", attrs...)
	} else {
		log.Warn("request failed", attrs...)
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		writeJSON(w, r, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_ = templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON is true for /api routes and for clients that accept JSON.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
