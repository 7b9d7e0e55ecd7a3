package domain

import "errors"

var (
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidOwner  = errors.New("invalid owner id")
	ErrInvalidTitle  = errors.New("invalid title")
	ErrInvalidEmail  = errors.New("invalid email")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrEmptyPatch    = errors.New("empty task patch")
)
