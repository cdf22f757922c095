package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidSequence = errors.New("invalid sequence: need at least one activity and a repeat count of 1 or more")
	ErrInvalidProfile  = errors.New("invalid profile")
	ErrInvalidImport   = errors.New("invalid JSON file")
	ErrAlreadyExists   = errors.New("already exists")
	ErrNotImplemented  = errors.New("not implemented")
)
