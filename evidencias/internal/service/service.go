// Package service holds the evidencias business logic: the ingestion pipeline
// for inbound delivery messages and the operator-facing order queries.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no evidencia has the requested ID.
	ErrNotFound = errors.New("evidencia not found")

	// ErrInvalidStatus is returned for a status outside the lifecycle set.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrStore marks failures of the record store.
	ErrStore = errors.New("record store failure")
)

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
