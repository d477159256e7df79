package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(t *testing.T, offset time.Duration) time.Time {
	base := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	return base.Add(offset)
}

// S2: two nodes report HR 72 within 2s -> majority, valid.
func TestEvaluate_S2_Majority(t *testing.T) {
	trigger := Reading{PatientID: "p1", SensorType: HeartRate, NodeID: "node-2", Value: 72, ObservedAt: at(t, time.Second)}
	candidates := []Reading{
		{PatientID: "p1", SensorType: HeartRate, NodeID: "node-1", Value: 72, ObservedAt: at(t, 0)},
	}
	c := Evaluate(trigger, candidates)
	assert.Equal(t, MethodMajority, c.Method)
	assert.True(t, c.Valid)
	assert.Equal(t, 72.0, c.ConsensusValue)
}

// S3a: 37.2, 37.2, 39.5 within 2s -> 2/3 is a majority.
func TestEvaluate_S3_MajorityTwoOfThree(t *testing.T) {
	trigger := Reading{PatientID: "p1", SensorType: Temperature, NodeID: "n3", Value: 39.5, ObservedAt: at(t, 2*time.Second)}
	candidates := []Reading{
		{PatientID: "p1", SensorType: Temperature, NodeID: "n1", Value: 37.2, ObservedAt: at(t, 0)},
		{PatientID: "p1", SensorType: Temperature, NodeID: "n2", Value: 37.2, ObservedAt: at(t, time.Second)},
	}
	c := Evaluate(trigger, candidates)
	assert.Equal(t, MethodMajority, c.Method)
	assert.True(t, c.Valid)
	assert.Equal(t, 37.2, c.ConsensusValue)
}

// S3b: 37.0, 37.2, 39.5 within 2s -> no majority, avg~37.9, range exceeds 20% -> none/invalid.
func TestEvaluate_S3_NoMajorityExceedsTolerance(t *testing.T) {
	trigger := Reading{PatientID: "p1", SensorType: Temperature, NodeID: "n3", Value: 39.5, ObservedAt: at(t, 2*time.Second)}
	candidates := []Reading{
		{PatientID: "p1", SensorType: Temperature, NodeID: "n1", Value: 37.0, ObservedAt: at(t, 0)},
		{PatientID: "p1", SensorType: Temperature, NodeID: "n2", Value: 37.2, ObservedAt: at(t, time.Second)},
	}
	c := Evaluate(trigger, candidates)
	assert.Equal(t, MethodNone, c.Method)
	assert.False(t, c.Valid)
	assert.InDelta(t, 37.9, c.ConsensusValue, 0.01)
}

// Property 4: average fallback accepted when within 20% tolerance.
func TestEvaluate_AverageFallbackWithinTolerance(t *testing.T) {
	trigger := Reading{PatientID: "p1", SensorType: SpO2, NodeID: "n3", Value: 96, ObservedAt: at(t, 2*time.Second)}
	candidates := []Reading{
		{PatientID: "p1", SensorType: SpO2, NodeID: "n1", Value: 94, ObservedAt: at(t, 0)},
		{PatientID: "p1", SensorType: SpO2, NodeID: "n2", Value: 95, ObservedAt: at(t, time.Second)},
	}
	c := Evaluate(trigger, candidates)
	assert.Equal(t, MethodAverage, c.Method)
	assert.True(t, c.Valid)
}

// Property 5: outside the 5s window, the latest reading wins regardless of agreement.
func TestEvaluate_LatestOutsideWindow(t *testing.T) {
	trigger := Reading{PatientID: "p1", SensorType: RespRate, NodeID: "n2", Value: 22, ObservedAt: at(t, 10*time.Second)}
	candidates := []Reading{
		{PatientID: "p1", SensorType: RespRate, NodeID: "n1", Value: 18, ObservedAt: at(t, 0)},
	}
	c := Evaluate(trigger, candidates)
	assert.Equal(t, MethodLatest, c.Method)
	assert.True(t, c.Valid)
	assert.Equal(t, 22.0, c.ConsensusValue)
	assert.Equal(t, at(t, 10*time.Second), c.ConsensusAt)
}

func TestEvaluate_SingleNode(t *testing.T) {
	trigger := Reading{PatientID: "p1", SensorType: BPSystolic, NodeID: "n1", Value: 120, ObservedAt: at(t, 0)}
	c := Evaluate(trigger, nil)
	assert.Equal(t, MethodSingle, c.Method)
	assert.True(t, c.Valid)
	assert.Len(t, c.Participating, 1)
}

func TestEvaluate_LatestPerNodeDeduplicates(t *testing.T) {
	trigger := Reading{PatientID: "p1", SensorType: HeartRate, NodeID: "n1", Value: 80, ObservedAt: at(t, time.Second)}
	candidates := []Reading{
		// stale reading from the same node as trigger: must not double count
		{PatientID: "p1", SensorType: HeartRate, NodeID: "n1", Value: 60, ObservedAt: at(t, 0)},
		{PatientID: "p1", SensorType: HeartRate, NodeID: "n2", Value: 80, ObservedAt: at(t, time.Second)},
	}
	c := Evaluate(trigger, candidates)
	assert.Len(t, c.Participating, 2)
	assert.Equal(t, MethodMajority, c.Method)
	assert.Equal(t, 80.0, c.ConsensusValue)
}
