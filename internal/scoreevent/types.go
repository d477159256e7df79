// Package scoreevent owns ScoreEvent and ScoreConsensus (§3), the
// append-only audit trail fed by C1/C4 and reconciled by the Score
// Consensus Engine (C3, §4.4).
package scoreevent

import (
	"time"

	"github.com/ews-platform/ews-consensus/internal/news2"
	"github.com/ews-platform/ews-consensus/internal/sensor"
)

// Kind enumerates ScoreEvent.kind (§3).
type Kind string

const (
	EWSCalculated Kind = "EWS_CALCULATED"
	EWSUpdated    Kind = "EWS_UPDATED"
	EWSValidated  Kind = "EWS_VALIDATED"
)

// Method mirrors sensor.Method: C3 reuses the §4.2 fan-in algorithm,
// grouping on totalScore instead of sensor value and using an absolute
// tolerance for the average fallback.
type Method = sensor.Method

const (
	MethodSingle   = sensor.MethodSingle
	MethodMajority = sensor.MethodMajority
	MethodAverage  = sensor.MethodAverage
	MethodLatest   = sensor.MethodLatest
	MethodNone     = sensor.MethodNone
)

// Event is one per-node NEWS2 calculation (§3 ScoreEvent). Immutable once
// created; never mutated or deleted by the core.
type Event struct {
	EventID         string                 `json:"eventId" bson:"eventId"`
	PatientID       string                 `json:"patientId" bson:"patientId"`
	NodeID          string                 `json:"nodeId" bson:"nodeId"`
	Kind            Kind                   `json:"kind" bson:"kind"`
	ObservedAt      time.Time              `json:"observedAt" bson:"observedAt"`
	VitalSigns      news2.VitalSigns       `json:"vitalSigns" bson:"vitalSigns"`
	ScoreComponents news2.Components       `json:"scoreComponents" bson:"scoreComponents"`
	TotalScore      int                    `json:"totalScore" bson:"totalScore"`
	ClinicalRisk    news2.ClinicalRisk     `json:"clinicalRisk" bson:"clinicalRisk"`
	Metadata        map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Consensus is a reconciliation record over multiple Events for one
// patient within a short window (§3 ScoreConsensus).
type Consensus struct {
	ConsensusID    string             `json:"consensusId" bson:"consensusId"`
	PatientID      string             `json:"patientId" bson:"patientId"`
	NodeScores     []Event            `json:"nodeScores" bson:"nodeScores"`
	ConsensusScore int                `json:"consensusScore" bson:"consensusScore"`
	ClinicalRisk   news2.ClinicalRisk `json:"clinicalRisk" bson:"clinicalRisk"`
	ConsensusAt    time.Time          `json:"consensusAt" bson:"consensusAt"`
	Valid          bool               `json:"valid" bson:"valid"`
	Method         Method             `json:"method" bson:"method"`
}
