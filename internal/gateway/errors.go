package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrTransport         = errors.New("remote service unreachable")
	ErrMalformedResponse = errors.New("malformed response from remote service")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("rejected by remote service")
	ErrConflict          = errors.New("conflict")
	ErrUnsupported       = errors.New("operation not supported by remote service")

	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// APIError is a non-2xx response from the remote service.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the human readable message the service sent, verbatim.
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// Is lets errors.Is match an APIError against the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Detail:     parseDetail(status, body),
	}
}

// parseDetail extracts the message from an error body. The service answers
// with {"detail": "..."}, {"detail": [{"msg": "..."}, ...]} or {"message": "..."}.
func parseDetail(status int, body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if d := detailText(payload.Detail); d != "" {
			return d
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if text != "" && len(text) <= 200 && !strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(status)
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			var entry struct {
				Msg string `json:"msg"`
			}
			if err := json.Unmarshal(it, &entry); err == nil && entry.Msg != "" {
				parts = append(parts, entry.Msg)
				continue
			}
			var plain string
			if err := json.Unmarshal(it, &plain); err == nil {
				parts = append(parts, plain)
				continue
			}
			parts = append(parts, string(it))
		}
		return strings.Join(parts, ", ")
	}
	return string(raw)
}

// DetailOf returns the remote message carried by err, or err.Error().
func DetailOf(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Detail
	}
	return err.Error()
}

// IsAlreadyMember reports whether err is the service refusing a share
// because the membership already exists.
func IsAlreadyMember(err error) bool {
	var ae *APIError
	if !errors.As(err, &ae) {
		return false
	}
	if ae.StatusCode == http.StatusConflict {
		return true
	}
	return ae.StatusCode >= 400 && strings.Contains(strings.ToLower(ae.Detail), "already")
}
