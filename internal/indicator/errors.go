package indicator

import (
	"errors"
	"fmt"

	"signal_scanner/internal/models"
)

var (
	// ErrInsufficientHistory wraps models.ErrInsufficientHistory so callers can match either.
	ErrInsufficientHistory = fmt.Errorf("indicator: %w", models.ErrInsufficientHistory)
	ErrInvalidWindow       = errors.New("indicator: window must be positive")
)

func checkWindow(n, window, need int) error {
	if window <= 0 {
		return ErrInvalidWindow
	}
	if n < need {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientHistory, n, need)
	}
	return nil
}
