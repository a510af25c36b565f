package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"expensed/internal/core"
	"expensed/internal/middleware/trace"
)

// Every JSON body carries a timestamp: objects get a member, arrays get
// one per element. Building the envelope is an explicit step here, not
// an implicit serializer hook.

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// injectTimestamp splices a timestamp member into an encoded object.
func injectTimestamp(obj []byte, ts string) []byte {
	if len(obj) < 2 || obj[0] != '{' {
		return obj
	}
	stamp := `"timestamp":"` + ts + `"`
	if len(obj) == 2 {
		return []byte("{" + stamp + "}")
	}
	out := make([]byte, 0, len(obj)+len(stamp)+2)
	out = append(out, '{')
	out = append(out, stamp...)
	out = append(out, ',')
	out = append(out, obj[1:]...)
	return out
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeRecord sends one enveloped object.
func writeRecord(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeRaw(w, status, injectTimestamp(data, nowStamp()))
}

// writeList sends an array with every element enveloped. All elements
// share one timestamp.
func writeList[T any](w http.ResponseWriter, status int, items []T) {
	ts := nowStamp()
	out := []byte{'['}
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, injectTimestamp(data, ts)...)
	}
	out = append(out, ']')
	writeRaw(w, status, out)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	body := struct {
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}{Message: msg, Timestamp: nowStamp()}
	data, _ := json.Marshal(body)
	writeRaw(w, status, data)
}

func writeFieldErrors(w http.ResponseWriter, fields []core.FieldError) {
	body := struct {
		Errors    []core.FieldError `json:"errors"`
		Timestamp string            `json:"timestamp"`
	}{Errors: fields, Timestamp: nowStamp()}
	data, _ := json.Marshal(body)
	writeRaw(w, http.StatusBadRequest, data)
}

// respondError maps the error taxonomy onto HTTP. Store faults are
// logged in full here; the client body stays generic.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	if ve, ok := core.AsValidationError(err); ok {
		writeFieldErrors(w, ve.Fields)
		return
	}
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidRange):
		writeMessage(w, http.StatusBadRequest, "invalid date range")
	default:
		slog.ErrorContext(ctx, "Request failed",
			"error", err,
			"request_id", trace.GetRequestID(ctx))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
