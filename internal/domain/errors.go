package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedPair = errors.New("unsupported currency pair")
	ErrNoDataFound     = errors.New("no rates found for requested range")
	ErrInvalidDate     = errors.New("invalid date")
)

// Error kinds forming the closed taxonomy attached to failure events.
const (
	KindUnsupportedPair = "UnsupportedPair"
	KindUpstreamFailure = "UpstreamFailure"
	KindInvalidResponse = "InvalidResponse"
	KindPersistence     = "PersistenceError"
	KindUnknown         = "Unknown"
)

// UpstreamError is returned once the Binance client has exhausted its retry budget.
type UpstreamError struct {
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// InvalidResponseError marks a malformed or semantically invalid upstream payload.
// These are deterministic for a given payload and are never retried.
type InvalidResponseError struct {
	Reason string
}

func (e *InvalidResponseError) Error() string {
	return "invalid Binance response: " + e.Reason
}

// PersistenceError wraps a storage failure surfaced to the ingestion pipeline.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "rate storage failed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Kind classifies err into the error taxonomy so that event consumers and the
// HTTP layer can match on kind instead of unwrapping concrete types.
func Kind(err error) string {
	var (
		upstream    *UpstreamError
		invalid     *InvalidResponseError
		persistence *PersistenceError
	)
	switch {
	case errors.Is(err, ErrUnsupportedPair):
		return KindUnsupportedPair
	case errors.As(err, &upstream):
		return KindUpstreamFailure
	case errors.As(err, &invalid):
		return KindInvalidResponse
	case errors.As(err, &persistence):
		return KindPersistence
	default:
		return KindUnknown
	}
}
