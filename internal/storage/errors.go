package storage

import "errors"

var (
	// ErrEmptyPayload is returned when a store is asked to persist zero bytes.
	ErrEmptyPayload = errors.New("asset payload is empty")

	// ErrAssetNotFound is returned when a reference does not resolve to a stored asset.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidReference is returned when a reference does not belong to this store.
	ErrInvalidReference = errors.New("invalid asset reference")
)
