package service

import (
	"context"
	"strings"

	"taskhub/internal/domain"
)

type UserRemote interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	CreateUser(ctx context.Context, nu domain.NewUser) (domain.User, error)
	UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) error
	DeleteUser(ctx context.Context, id int64) error
	ToggleUserActive(ctx context.Context, id int64) error
}

// UserService is the user administration screen.
type UserService struct {
	remote UserRemote
}

// NewUserService returns a new UserService.
func NewUserService(remote UserRemote) *UserService {
	return &UserService{remote: remote}
}

// List returns users in service order, optionally only the active ones.
func (s *UserService) List(ctx context.Context, activeOnly bool) ([]domain.User, error) {
	users, err := s.remote.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if activeOnly {
		return domain.ActiveUsers(users), nil
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, nu domain.NewUser) (domain.User, error) {
	nu.Username = strings.TrimSpace(nu.Username)
	if nu.Username == "" {
		return domain.User{}, ErrEmptyName
	}
	return s.remote.CreateUser(ctx, nu)
}

// Update changes a user's username and, when password is non-empty, their
// password. It returns the trimmed username that was stored.
func (s *UserService) Update(ctx context.Context, id int64, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrEmptyName
	}
	patch := domain.UserPatch{Username: &username}
	if password != "" {
		patch.Password = &password
	}
	if err := s.remote.UpdateUser(ctx, id, patch); err != nil {
		return "", err
	}
	return username, nil
}

func (s *UserService) Delete(ctx context.Context, currentUserID, id int64) error {
	if id == currentUserID {
		return ErrSelfAction
	}
	return s.remote.DeleteUser(ctx, id)
}

// Toggle flips a user's active flag. Users cannot deactivate themselves.
func (s *UserService) Toggle(ctx context.Context, currentUserID, id int64) error {
	if id == currentUserID {
		return ErrSelfAction
	}
	return s.remote.ToggleUserActive(ctx, id)
}
