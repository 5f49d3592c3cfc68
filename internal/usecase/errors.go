package usecase

import (
	"errors"
	"fmt"

	"telegram-channel-bot/internal/domain"
)

// storageErr keeps classified repository errors and wraps anything else as a storage failure.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{domain.ErrStorage, domain.ErrNotFound, domain.ErrAlreadyExists, domain.ErrInvalidArgument} {
		if errors.Is(err, known) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorage, err)
}
