package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidPartName = errors.New("invalid part name")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidStatus   = errors.New("invalid status")
)
