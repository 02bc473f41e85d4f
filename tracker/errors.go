// Copyright (c) 2025 BVK Chaitanya

package tracker

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrAlreadyTracked       = fmt.Errorf("entity is already tracked: %w", os.ErrExist)
	ErrNotFound             = fmt.Errorf("entity is not tracked: %w", os.ErrNotExist)
	ErrMissingRequiredField = fmt.Errorf("missing required field: %w", os.ErrInvalid)

	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrPersistenceFailed   = errors.New("persistence failed")
)

func missingField(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingRequiredField, fmt.Sprintf(format, args...))
}
