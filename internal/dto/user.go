package dto

import "time"

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionUserResponse is the user behind the current session.
type SessionUserResponse struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=1,max=120"`
	Password string `json:"password" binding:"required,min=1"`
	Surname  string `json:"surname" binding:"max=120"`
	// Defaults to true when omitted.
	Active *bool `json:"is_active"`
}

type UpdateUserRequest struct {
	Username string `json:"username" binding:"required,min=1,max=120"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID          int64      `json:"user_id"`
	Username    string     `json:"username"`
	Surname     string     `json:"surname,omitempty"`
	DisplayName string     `json:"display_name"`
	Active      bool       `json:"is_active"`
	CreatedAt   *time.Time `json:"creation_date,omitempty"`
}

type ListUsersResponse struct {
	Items []UserResponse `json:"items"`
}
