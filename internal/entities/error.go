package entities

import "errors"

var (
	ErrSnapshotNotFound = errors.New("ratio snapshot not found")
	ErrInvalidPayload   = errors.New("invalid ratio payload")
	ErrNoMatch          = errors.New("no matching POS found for the given criteria")
	ErrUnknownCurrency  = errors.New("currency has no configured multiplier")
	ErrQueueEmpty       = errors.New("refresh queue is empty")
)
