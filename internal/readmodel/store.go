package readmodel

import "context"

// Store is the persistence contract the projector depends on.
type Store interface {
	Get(ctx context.Context, patientID string) (PatientReadModel, bool, error)
	Upsert(ctx context.Context, m PatientReadModel) error
	// HighRisk supports GET /api/query/high-risk-patients (§6).
	HighRisk(ctx context.Context, minScore int) ([]PatientReadModel, error)
}
