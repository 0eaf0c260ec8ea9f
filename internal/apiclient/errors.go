package apiclient

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Error is the failure result of every client operation. Message is safe to
// show to the author as is.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) *Error {
	return &Error{Op: op, Message: err.Error(), Err: err}
}

// errorFromBody extracts the backend's "error" field. A string is used
// verbatim; any other JSON value is passed through as its raw text.
func errorFromBody(body []byte) (string, bool) {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Error) == 0 {
		return "", false
	}
	if string(envelope.Error) == "null" {
		return "", false
	}

	var msg string
	if err := json.Unmarshal(envelope.Error, &msg); err == nil {
		return msg, msg != ""
	}
	return strings.TrimSpace(string(envelope.Error)), true
}

func statusMessage(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
