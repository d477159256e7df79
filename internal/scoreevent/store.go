package scoreevent

import (
	"context"
	"time"
)

// EventStore is the append-only persistence contract C3/C5 depend on.
type EventStore interface {
	SaveEvent(ctx context.Context, e Event) error
	// EventsInWindow returns every event for patientID observed within
	// [from, to], for score-consensus evaluation (§4.4).
	EventsInWindow(ctx context.Context, patientID string, from, to time.Time) ([]Event, error)
	SaveConsensus(ctx context.Context, c Consensus) error
	ConsensusByID(ctx context.Context, consensusID string) (Consensus, bool, error)
	// QueryEvents supports GET /api/query/events (§6).
	QueryEvents(ctx context.Context, filter EventFilter) ([]Event, error)
}

// EventFilter narrows QueryEvents; zero values mean "no filter".
type EventFilter struct {
	PatientID string
	Kind      Kind
	From      *time.Time
	To        *time.Time
	Limit     int
}
