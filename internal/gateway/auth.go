package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"taskhub/internal/domain"
)

// Identity is what a successful login yields.
type Identity struct {
	User  domain.User
	Token string
}

// Login exchanges credentials for the user record and an opaque token.
// 401 and 403 are reported as ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return Identity{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	body := map[string]string{"username": username, "password": password}

	var out loginWire
	if err := c.do(ctx, http.MethodPost, "/login", body, &out); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("login: %w", err)
	}
	user, token := out.identity()
	if user.ID == 0 {
		return Identity{}, fmt.Errorf("login: %w: no user in response", ErrMalformedResponse)
	}
	if user.Username == "" {
		user.Username = username
	}
	return Identity{User: user, Token: token}, nil
}
