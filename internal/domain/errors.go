package domain

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownAction   = errors.New("unsupported action")
	ErrInvalidMedia    = errors.New("invalid media")
)
