// Package completeness implements the Vital-Completeness Detector (C4,
// §4.3): given a fresh valid SensorConsensus, decide whether a full,
// fresh six-vital vector now exists for the patient, and if so invoke the
// NEWS2 scorer (C1) and hand the result to the score-event emitter (C5).
package completeness

import (
	"context"
	"time"

	kitlog "github.com/go-kit/kit/log"

	"github.com/ews-platform/ews-consensus/internal/news2"
	"github.com/ews-platform/ews-consensus/internal/sensor"
)

// FreshnessWindow is the 5-minute cutoff from §3/§4.3/§5.
const FreshnessWindow = 5 * time.Minute

// ScoreEmitter is invoked once a complete vital vector is available and
// scored. cmd/ingestion implements it as an HTTP call to the Scoring service
// (internal/clientio), so completeness never imports the scoring service's
// storage concerns directly.
type ScoreEmitter func(ctx context.Context, patientID, nodeID string, vitals news2.VitalSigns, result news2.Result) error

// Detector is C4.
type Detector struct {
	store  sensor.Store
	nodeID string
	emit   ScoreEmitter
	clock  func() time.Time
	logger kitlog.Logger
}

// New builds a Detector. nodeID identifies this Ingestion node instance (see
// internal/nodeidentity), tagging the ScoreEvents it emits — mirroring how
// multiple edge nodes independently run the same pipeline and are later
// reconciled by the Score Consensus Engine (C3, §4.4).
func New(store sensor.Store, nodeID string, emit ScoreEmitter, logger kitlog.Logger) *Detector {
	return &Detector{store: store, nodeID: nodeID, emit: emit, clock: time.Now, logger: logger}
}

// OnSensorConsensus is the C2 -> C4 hand-off. Per §4.3, only valid consensus
// records retrigger scoring; an invalid one is a no-op (the next sensor
// consensus for this patient will retry).
func (d *Detector) OnSensorConsensus(ctx context.Context, c sensor.Consensus) error {
	if !c.Valid {
		return nil
	}

	perType, err := d.store.LatestValidConsensusPerType(ctx, c.PatientID)
	if err != nil {
		return err
	}

	now := d.clock()
	fresh := map[sensor.Type]sensor.Consensus{}
	for sensorType, consensus := range perType {
		if now.Sub(consensus.ConsensusAt) <= FreshnessWindow {
			fresh[sensorType] = consensus
		}
	}

	vitals, complete := toVitalSigns(fresh)
	if !complete {
		d.logger.Log("msg", "vital vector incomplete, not scoring", "patientId", c.PatientID)
		return nil
	}

	result, err := news2.Score(vitals)
	if err != nil {
		// A malformed consensus value (out of every banding interval) is a
		// validation failure on the computed vitals, not a reason to crash
		// the consensus pipeline; log and wait for fresher data.
		d.logger.Log("msg", "vitals failed NEWS2 validation", "patientId", c.PatientID, "error", err)
		return nil
	}

	return d.emit(ctx, c.PatientID, d.nodeID, vitals, result)
}

// toVitalSigns maps the per-sensor-type consensus view into a VitalSigns
// vector, translating sensor type names to vital names (§4.3) and the
// consciousness integer encoding to AVPU (§3). Note: a defaulting rule that
// substitutes Alert when consciousness is missing is explicitly NOT applied
// here — §4.3/§9 flag it as medically consequential and pending clinical
// sign-off, so a missing consciousness reading makes the vector incomplete.
func toVitalSigns(fresh map[sensor.Type]sensor.Consensus) (news2.VitalSigns, bool) {
	var v news2.VitalSigns

	rr, ok := fresh[sensor.RespRate]
	if !ok {
		return v, false
	}
	v.RespiratoryRate = rr.ConsensusValue

	spo2, ok := fresh[sensor.SpO2]
	if !ok {
		return v, false
	}
	v.OxygenSaturation = spo2.ConsensusValue

	temp, ok := fresh[sensor.Temperature]
	if !ok {
		return v, false
	}
	v.Temperature = temp.ConsensusValue

	bp, ok := fresh[sensor.BPSystolic]
	if !ok {
		return v, false
	}
	v.SystolicBP = bp.ConsensusValue

	hr, ok := fresh[sensor.HeartRate]
	if !ok {
		return v, false
	}
	v.HeartRate = hr.ConsensusValue

	avpu, ok := fresh[sensor.Consciousness]
	if !ok {
		return v, false
	}
	consciousness, ok := avpuFromCode(avpu.ConsensusValue)
	if !ok {
		return v, false
	}
	v.Consciousness = consciousness

	return v, true
}

// avpuFromCode maps the consciousness integer encoding (§3: 0=Alert,
// 1=Voice, 2=Pain, 3=Unresponsive) to the AVPU string news2 expects.
func avpuFromCode(code float64) (news2.Consciousness, bool) {
	switch int(code) {
	case 0:
		return news2.Alert, true
	case 1:
		return news2.Voice, true
	case 2:
		return news2.Pain, true
	case 3:
		return news2.Unresponsive, true
	default:
		return "", false
	}
}
