package entity

import "errors"

var (
	ErrInvalidQuery = errors.New("invalid search query")
	ErrUnknownLevel = errors.New("unknown proficiency level")
	ErrUserRequired = errors.New("review filter requires a user id")
)
