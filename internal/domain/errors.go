package domain

import "errors"

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnavailable  = errors.New("record store unavailable")
	ErrRejected     = errors.New("record store rejected request")
	ErrInvalidInput = errors.New("invalid input")
)
