// Package readmodel implements the CQRS projection half of C5 (§3
// PatientReadModel, §4.5): a derived per-patient current view plus bounded
// history, kept in sync with the append-only ScoreConsensus stream.
package readmodel

import (
	"time"

	"github.com/ews-platform/ews-consensus/internal/news2"
)

// MaxHistory bounds PatientReadModel.scoreHistory (§3, property 7).
const MaxHistory = 100

// HistoryEntry is one ring entry in PatientReadModel.scoreHistory.
type HistoryEntry struct {
	Timestamp    time.Time          `json:"timestamp" bson:"timestamp"`
	Score        int                `json:"score" bson:"score"`
	ClinicalRisk news2.ClinicalRisk `json:"clinicalRisk" bson:"clinicalRisk"`
}

// PatientReadModel is the current-state projection for one patient (§3).
type PatientReadModel struct {
	PatientID       string             `json:"patientId" bson:"patientId"`
	CurrentScore    int                `json:"currentScore" bson:"currentScore"`
	ClinicalRisk    news2.ClinicalRisk `json:"clinicalRisk" bson:"clinicalRisk"`
	VitalSigns      news2.VitalSigns   `json:"vitalSigns" bson:"vitalSigns"`
	ScoreComponents news2.Components   `json:"scoreComponents" bson:"scoreComponents"`
	ScoreHistory    []HistoryEntry     `json:"scoreHistory" bson:"scoreHistory"`
	LastUpdated     time.Time          `json:"lastUpdated" bson:"lastUpdated"`
	// LastAppliedConsensusID supports idempotent re-application under
	// at-least-once delivery (§4.5, property 8).
	LastAppliedConsensusID string `json:"-" bson:"lastAppliedConsensusId"`
}
