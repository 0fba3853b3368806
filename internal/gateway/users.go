package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"taskhub/internal/domain"
)

// ListUsers returns every user, active or not, in service order.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []userWire
	if err := c.do(ctx, http.MethodGet, "/users/", nil, &out); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return usersToDomain(out), nil
}

type createUserBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Surname  string `json:"surname,omitempty"`
	IsActive int    `json:"is_active"`
}

func (c *Client) CreateUser(ctx context.Context, nu domain.NewUser) (domain.User, error) {
	nu.Username = strings.TrimSpace(nu.Username)
	nu.Surname = strings.TrimSpace(nu.Surname)
	if nu.Username == "" || nu.Password == "" {
		return domain.User{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	body := createUserBody{
		Username: nu.Username,
		Password: nu.Password,
		Surname:  nu.Surname,
		IsActive: activeInt(nu.Active),
	}
	var out userWire
	if err := c.do(ctx, http.MethodPost, "/users/", body, &out); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	u := out.toDomain()
	if u.Username == "" {
		u.Username = nu.Username
	}
	if u.Surname == "" {
		u.Surname = nu.Surname
	}
	return u, nil
}

type updateUserBody struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (c *Client) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) error {
	if err := checkID("user id", id); err != nil {
		return err
	}
	if patch.Username == nil && patch.Password == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	body := updateUserBody{Username: patch.Username, Password: patch.Password}
	if err := c.do(ctx, http.MethodPut, "/users/"+itoa(id), body, nil); err != nil {
		return fmt.Errorf("update user %d: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if err := checkID("user id", id); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, "/users/"+itoa(id), nil, nil); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

// ToggleUserActive flips the active flag of a user.
func (c *Client) ToggleUserActive(ctx context.Context, id int64) error {
	if err := checkID("user id", id); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPut, "/users/"+itoa(id)+"/toggle_active", struct{}{}, nil); err != nil {
		return fmt.Errorf("toggle user %d: %w", id, err)
	}
	return nil
}
