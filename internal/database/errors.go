package database

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrNotAvailable    = errors.New("vehicle is not available for the selected dates")
	ErrVersionConflict = errors.New("booking was modified by someone else, reload and retry")
	ErrDuplicateEmail  = errors.New("customer email already exists")
	ErrPastDate        = errors.New("pickup date is in the past")
	ErrDateTooFar      = errors.New("pickup date is too far in the future")
)
