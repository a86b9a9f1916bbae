package usecase

import (
	"errors"
	"fmt"
)

// ErrStore marks failures of the article store. Per-item and per-feed errors
// are isolated into batch reports; store errors propagate out because no
// pipeline invariant holds without a working store.
var ErrStore = errors.New("store failure")

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStore, err)
}

func isStoreErr(err error) bool {
	return errors.Is(err, ErrStore)
}
