package alert

import (
	"fmt"

	"github.com/ews-platform/ews-consensus/internal/sensor"
	"github.com/ews-platform/ews-consensus/internal/scoreevent"
)

// priorityBase and priorityAddOn implement the §4.7 priority formula.
var priorityBase = map[Severity]int{High: 80, Medium: 50, Low: 30}

var priorityAddOn = map[Type]int{
	EWSCritical:    20,
	EWSUrgent:      15,
	EWSElevated:    10,
	SensorCritical: 18,
	SensorWarning:  8,
}

// Priority computes the clamped [1,100] priority for a severity/type pair
// (§4.7, property 10).
func Priority(severity Severity, alertType Type) int {
	base, ok := priorityBase[severity]
	if !ok {
		base = 10
	}
	p := base + priorityAddOn[alertType]
	if p < 1 {
		p = 1
	}
	if p > 100 {
		p = 100
	}
	return p
}

// Classify maps a ScoreConsensus to at most one Alert (§4.7, property 9).
// The mapping is total on {invalid score} union {score>=3}; scores in
// [0,2] with a valid consensus raise no alert.
func Classify(c scoreevent.Consensus) (Alert, bool) {
	var alertType Type
	var severity Severity
	var message string

	switch {
	case !c.Valid:
		alertType, severity = EWSDataInconsistency, Medium
		message = fmt.Sprintf("score consensus for patient %s could not be reconciled (consensusScore=%d, method=%s)", c.PatientID, c.ConsensusScore, c.Method)
	case c.ConsensusScore >= 7:
		alertType, severity = EWSCritical, High
		message = fmt.Sprintf("NEWS2 score %d (High risk) for patient %s", c.ConsensusScore, c.PatientID)
	case c.ConsensusScore >= 5:
		alertType, severity = EWSUrgent, Medium
		message = fmt.Sprintf("NEWS2 score %d (Medium risk) for patient %s", c.ConsensusScore, c.PatientID)
	case c.ConsensusScore >= 3:
		alertType, severity = EWSElevated, Low
		message = fmt.Sprintf("NEWS2 score %d (Low-Medium risk) for patient %s", c.ConsensusScore, c.PatientID)
	default:
		return Alert{}, false
	}

	consensus := c
	return Alert{
		PatientID:     c.PatientID,
		SourceService: "scoring",
		AlertType:     alertType,
		AlertSeverity: severity,
		Message:       message,
		ObservedAt:    c.ConsensusAt,
		ScoreData:     &consensus,
		Status:        StatusNew,
		Priority:      Priority(severity, alertType),
	}, true
}

// ClassifySensor raises a data-quality alert when a SensorConsensus cannot
// be reconciled — a supplemental classification path (§4.7's priority
// formula names SENSOR_WARNING/SENSOR_CRITICAL but the distilled spec's
// table only drives EWS_* types; this recovers the sensor-level signal).
func ClassifySensor(c sensor.Consensus) (Alert, bool) {
	if c.Valid {
		return Alert{}, false
	}
	return Alert{
		PatientID:     c.PatientID,
		SourceService: "ingestion",
		AlertType:     SensorWarning,
		AlertSeverity: Low,
		Message:       fmt.Sprintf("sensor consensus for %s/%s could not be reconciled (method=%s)", c.PatientID, c.SensorType, c.Method),
		ObservedAt:    c.ConsensusAt,
		Status:        StatusNew,
		Priority:      Priority(Low, SensorWarning),
	}, true
}
