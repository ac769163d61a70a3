package domain

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotAuthorized = errors.New("not authorized")
	ErrNotFound      = errors.New("not found")
)
