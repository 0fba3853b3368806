package service

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrSelfAction    = errors.New("you cannot do this to your own account")
	ErrEmptyName     = errors.New("name is required")
	ErrInvalidStatus = errors.New("invalid task status")
)
