package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"

	"github.com/fairmed-lab/fairmed/pkg/utils/logging"
)

// ErrorResponse is the JSON body written for failed requests
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HandleHTTP logs the error, reports server faults to Sentry and writes a JSON
// error response. Client errors (4xx) are logged at warn level and carry the
// error message; server errors hide the cause from the caller.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int, code string) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)
	attrs := []any{
		"status", statusCode,
		"code", code,
		"error", err.Error(),
	}
	var ge *goerr.Error
	if errors.As(err, &ge) {
		attrs = append(attrs, "values", ge.Values())
		if statusCode >= http.StatusInternalServerError {
			attrs = append(attrs, "stack", ge.Stacks())
		}
	}

	message := err.Error()
	if statusCode >= http.StatusInternalServerError {
		logger.Error("HTTP error", attrs...)
		report(ctx, err)
		message = http.StatusText(statusCode)
	} else {
		logger.Warn("HTTP error", attrs...)
	}

	data, marshalErr := json.Marshal(ErrorResponse{Error: message, Code: code})
	if marshalErr != nil {
		http.Error(w, message, statusCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data) //nolint:errcheck // header already committed
}

// report sends the error to Sentry. It is a no-op when Sentry has not been
// initialised.
func report(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}
