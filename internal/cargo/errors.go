package cargo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// RequestError reports a request that did not produce a 2xx response.
// Status is zero when the request never reached the server.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
		}
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }

// NotFound reports whether the server answered 404.
func (e *RequestError) NotFound() bool { return e.Status == http.StatusNotFound }

// DecodeError reports a response body that was not the JSON the caller expected.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsNotFound reports whether err wraps a 404 RequestError.
func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.NotFound()
}

// errorDetail extracts a human message from an error body. FastAPI sends
// either {"detail": "..."} or {"detail": [{"loc": [...], "msg": "..."}]}.
func errorDetail(body []byte, status int) string {
	fallback := fmt.Sprintf("request failed with status %d", status)
	if text := http.StatusText(status); text != "" {
		fallback = fmt.Sprintf("request failed with status %d (%s)", status, text)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return fallback
	}
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	if msg := detailText(payload.Detail); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	return fallback
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var list []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return ""
	}
	parts := make([]string, 0, len(list))
	for _, entry := range list {
		if entry.Msg == "" {
			continue
		}
		if field := locField(entry.Loc); field != "" {
			parts = append(parts, field+": "+entry.Msg)
			continue
		}
		parts = append(parts, entry.Msg)
	}
	return strings.Join(parts, "; ")
}

// locField returns the last element of a validation location, skipping the
// leading "body"/"query" segment.
func locField(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	last := loc[len(loc)-1]
	switch v := last.(type) {
	case string:
		if len(loc) == 1 && (v == "body" || v == "query") {
			return ""
		}
		return v
	case float64:
		return fmt.Sprintf("[%d]", int(v))
	}
	return ""
}
