// Package sensor owns SensorReading and SensorConsensus (§3) and implements
// the Sensor-Value Consensus Engine (C2, §4.2).
package sensor

import "time"

// Type enumerates the recognised sensor kinds (§3).
type Type string

const (
	RespRate      Type = "respRate"
	SpO2          Type = "spo2"
	Temperature   Type = "temperature"
	BPSystolic    Type = "bpSystolic"
	HeartRate     Type = "heartRate"
	Consciousness Type = "consciousness"
)

// Reading is one observation from one edge node (§3). Immutable once
// created.
type Reading struct {
	PatientID  string                 `json:"patientId" bson:"patientId"`
	SensorType Type                   `json:"sensorType" bson:"sensorType"`
	Value      float64                `json:"value" bson:"value"`
	Unit       string                 `json:"unit,omitempty" bson:"unit,omitempty"`
	ObservedAt time.Time              `json:"observedAt" bson:"observedAt"`
	NodeID     string                 `json:"nodeId" bson:"nodeId"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// Method is the consensus strategy that produced a SensorConsensus (§3).
type Method string

const (
	MethodSingle   Method = "single"
	MethodMajority Method = "majority"
	MethodAverage  Method = "average"
	MethodLatest   Method = "latest"
	MethodNone     Method = "none"
)

// Participant is one reading that contributed to a SensorConsensus.
type Participant struct {
	NodeID     string    `json:"nodeId" bson:"nodeId"`
	Value      float64   `json:"value" bson:"value"`
	ObservedAt time.Time `json:"observedAt" bson:"observedAt"`
}

// Consensus is the agreed value for one (patient, sensorType) over a window
// (§3). Invariant: len(Participating) >= 1; !Valid => Method == MethodNone;
// ConsensusValue is always set, even when invalid.
type Consensus struct {
	PatientID      string        `json:"patientId" bson:"patientId"`
	SensorType     Type          `json:"sensorType" bson:"sensorType"`
	Participating  []Participant `json:"participating" bson:"participating"`
	ConsensusValue float64       `json:"consensusValue" bson:"consensusValue"`
	ConsensusAt    time.Time     `json:"consensusAt" bson:"consensusAt"`
	Valid          bool          `json:"valid" bson:"valid"`
	Method         Method        `json:"method" bson:"method"`
}
