package domain

import "errors"

var (
	ErrInvalidRequest     = errors.New("email and password (min 8 chars) are required")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
