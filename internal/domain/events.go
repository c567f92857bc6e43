package domain

import "time"

// RateUpdatedEvent is emitted after a rate was persisted and the cache
// invalidated. Consumers use it for observability only.
type RateUpdatedEvent struct {
	EventID    string    `json:"event_id"`
	Pair       string    `json:"pair"`
	Rate       string    `json:"rate"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RateUpdateFailedEvent is emitted for every pair that failed during a run.
type RateUpdateFailedEvent struct {
	EventID      string            `json:"event_id"`
	Pair         string            `json:"pair"`
	ErrorMessage string            `json:"error_message"`
	ErrorKind    string            `json:"error_kind"`
	OccurredAt   time.Time         `json:"occurred_at"`
	Context      map[string]string `json:"context,omitempty"`
}
