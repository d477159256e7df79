package clientio

import (
	"context"
	"time"

	"github.com/ews-platform/ews-consensus/internal/news2"
)

// ScoringServiceClient calls the Scoring service's command API
// (EWS_SERVICE_URL, §6), used by the Ingestion service's completeness
// detector (C4) to hand off a complete vitals vector for NEWS2 scoring and
// score-consensus evaluation (C3) once it has confirmed all six vitals are
// fresh — C4 and C3 run in separate deployable services, so this HTTP call
// is their only connection, matching §1's "independently deployable
// services" framing.
type ScoringServiceClient struct {
	c *Client
}

func NewScoringServiceClient(baseURL string) *ScoringServiceClient {
	return &ScoringServiceClient{c: New(baseURL)}
}

type calculateEWSRequest struct {
	PatientID  string                 `json:"patientId"`
	NodeID     string                 `json:"nodeId"`
	VitalSigns vitalSignsWire         `json:"vitalSigns"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

type vitalSignsWire struct {
	RespiratoryRate  float64             `json:"respiratoryRate"`
	OxygenSaturation float64             `json:"oxygenSaturation"`
	Temperature      float64             `json:"temperature"`
	SystolicBP       float64             `json:"systolicBp"`
	HeartRate        float64             `json:"heartRate"`
	Consciousness    news2.Consciousness `json:"consciousness"`
}

type calculateEWSResponse struct {
	EventID      string             `json:"eventId"`
	TotalScore   int                `json:"totalScore"`
	ClinicalRisk news2.ClinicalRisk `json:"clinicalRisk"`
}

// TriggerCalculate posts a complete vitals vector to
// POST /api/command/calculate-ews. The scored Result is already known
// locally (the completeness detector ran NEWS2 itself to decide whether to
// call this at all); the response is decoded and then discarded, since the
// scoring side of the pipeline is authoritative.
func (c *ScoringServiceClient) TriggerCalculate(ctx context.Context, patientID, nodeID string, vitals news2.VitalSigns, observedAt time.Time) error {
	req := calculateEWSRequest{
		PatientID: patientID,
		NodeID:    nodeID,
		VitalSigns: vitalSignsWire{
			RespiratoryRate:  vitals.RespiratoryRate,
			OxygenSaturation: vitals.OxygenSaturation,
			Temperature:      vitals.Temperature,
			SystolicBP:       vitals.SystolicBP,
			HeartRate:        vitals.HeartRate,
			Consciousness:    vitals.Consciousness,
		},
		Timestamp: observedAt,
	}
	var resp calculateEWSResponse
	return c.c.PostJSON(ctx, "/api/command/calculate-ews", req, &resp)
}
