package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotMatured         = errors.New("ad performance has not matured")
	ErrPreconditionFailed = errors.New("precondition not met")
	ErrAlreadyTransferred = errors.New("target brand already received a transfer")
	ErrRunInProgress      = errors.New("batch run already in progress for brand")
)
