package sensor

import (
	"context"
	"time"
)

// Store is the persistence interface C2 consumes. Concrete implementations
// (e.g. internal/storemongo) are explicitly out of core scope (§1); the core
// only depends on this contract.
type Store interface {
	SaveReading(ctx context.Context, r Reading) error
	// ReadingsInWindow returns every reading for (patientId, sensorType)
	// observed within [from, to], for consensus evaluation (§4.2).
	ReadingsInWindow(ctx context.Context, patientID string, sensorType Type, from, to time.Time) ([]Reading, error)
	SaveConsensus(ctx context.Context, c Consensus) error
	// LatestValidConsensusPerType returns the most recent valid consensus for every
	// sensor type observed for patientID, for the completeness detector (§4.3).
	LatestValidConsensusPerType(ctx context.Context, patientID string) (map[Type]Consensus, error)
	// ConsensusForPatient supports GET /api/data/patient/{patientId} (§6).
	ConsensusForPatient(ctx context.Context, patientID string, from, to *time.Time, sensorType *Type) ([]Consensus, error)
}
