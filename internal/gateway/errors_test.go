package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", 400, `{"detail": "Username is taken"}`, "Username is taken"},
		{"list detail", 422, `{"detail": [{"msg": "field required"}, {"msg": "too short"}]}`, "field required, too short"},
		{"message", 400, `{"message": "bad"}`, "bad"},
		{"plain text", 500, `Internal Server Error`, "Internal Server Error"},
		{"html", 502, `<html>bad gateway</html>`, "Bad Gateway"},
		{"empty", 404, ``, "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDetail(tt.status, []byte(tt.body)))
		})
	}
}

func TestAPIErrorMatchesSentinels(t *testing.T) {
	wrap := func(status int) error {
		return fmt.Errorf("op: %w", &APIError{StatusCode: status})
	}
	assert.ErrorIs(t, wrap(http.StatusUnauthorized), ErrUnauthorized)
	assert.ErrorIs(t, wrap(http.StatusForbidden), ErrUnauthorized)
	assert.ErrorIs(t, wrap(http.StatusNotFound), ErrNotFound)
	assert.ErrorIs(t, wrap(http.StatusUnprocessableEntity), ErrValidation)
	assert.ErrorIs(t, wrap(http.StatusConflict), ErrConflict)
	assert.False(t, errors.Is(wrap(http.StatusInternalServerError), ErrValidation))
}

func TestIsAlreadyMember(t *testing.T) {
	assert.True(t, IsAlreadyMember(&APIError{StatusCode: 409}))
	assert.True(t, IsAlreadyMember(fmt.Errorf("x: %w", &APIError{StatusCode: 400, Detail: "User ALREADY in group"})))
	assert.False(t, IsAlreadyMember(&APIError{StatusCode: 500, Detail: "Internal Server Error"}))
	assert.False(t, IsAlreadyMember(ErrTransport))
}
