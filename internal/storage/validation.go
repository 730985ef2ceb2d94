// Package storage provides the sqlite persistence layer for estimates, the
// rate library, and the price list.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/buildrate/ratebook/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidEstimate = errors.New("invalid estimate")
	ErrInvalidKind     = errors.New("invalid line item kind")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateKind ensures the kind is one of the known resource types.
func validateKind(kind model.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return nil
}

// validateEstimate validates an estimate before it is persisted.
func validateEstimate(estimate *model.Estimate) error {
	if estimate == nil {
		return fmt.Errorf("%w: estimate", ErrNilParameter)
	}
	if err := estimate.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEstimate, err)
	}
	return nil
}
