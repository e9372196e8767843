package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrStorage       = errors.New("storage failure")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrDelivery      = errors.New("webhook delivery failed")
	ErrMisconfigured = errors.New("config invalid")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// conflictErr builds a client-safe message; driver detail belongs in the log.
func conflictErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func deliveryErr(err error) error {
	return fmt.Errorf("%w: %w", ErrDelivery, err)
}
