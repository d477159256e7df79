package scoreconsensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ews-platform/ews-consensus/internal/news2"
	"github.com/ews-platform/ews-consensus/internal/scoreevent"
)

func at(offset time.Duration) time.Time {
	return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC).Add(offset)
}

// S4: two nodes both score 5, second arrives 1s later -> majority, valid.
func TestEvaluate_S4_MajoritySameScore(t *testing.T) {
	trigger := scoreevent.Event{PatientID: "p1", NodeID: "n2", TotalScore: 5, ClinicalRisk: news2.RiskMedium, ObservedAt: at(time.Second)}
	candidates := []scoreevent.Event{
		{PatientID: "p1", NodeID: "n1", TotalScore: 5, ClinicalRisk: news2.RiskMedium, ObservedAt: at(0)},
	}
	c := Evaluate(trigger, candidates)
	assert.Equal(t, scoreevent.MethodMajority, c.Method)
	assert.True(t, c.Valid)
	assert.Equal(t, 5, c.ConsensusScore)
	assert.Equal(t, news2.RiskMedium, c.ClinicalRisk)
}

// S5: scores 3 and 8 within 1s -> no majority, avg=6 (rounded), |3-6|=3 > 1 -> invalid.
func TestEvaluate_S5_NoMajorityExceedsAbsoluteThreshold(t *testing.T) {
	trigger := scoreevent.Event{PatientID: "p1", NodeID: "n2", TotalScore: 8, ObservedAt: at(time.Second)}
	candidates := []scoreevent.Event{
		{PatientID: "p1", NodeID: "n1", TotalScore: 3, ObservedAt: at(0)},
	}
	c := Evaluate(trigger, candidates)
	assert.Equal(t, scoreevent.MethodNone, c.Method)
	assert.False(t, c.Valid)
	assert.Equal(t, 6, c.ConsensusScore)
}

func TestEvaluate_AverageFallbackWithinAbsoluteThreshold(t *testing.T) {
	trigger := scoreevent.Event{PatientID: "p1", NodeID: "n2", TotalScore: 5, ObservedAt: at(time.Second)}
	candidates := []scoreevent.Event{
		{PatientID: "p1", NodeID: "n1", TotalScore: 4, ObservedAt: at(0)},
	}
	c := Evaluate(trigger, candidates)
	assert.Equal(t, scoreevent.MethodAverage, c.Method)
	assert.True(t, c.Valid)
}

func TestEvaluate_LatestOutsideWindow(t *testing.T) {
	trigger := scoreevent.Event{PatientID: "p1", NodeID: "n2", TotalScore: 9, ClinicalRisk: news2.RiskHigh, ObservedAt: at(10 * time.Second)}
	candidates := []scoreevent.Event{
		{PatientID: "p1", NodeID: "n1", TotalScore: 2, ClinicalRisk: news2.RiskLowMedium, ObservedAt: at(0)},
	}
	c := Evaluate(trigger, candidates)
	assert.Equal(t, scoreevent.MethodLatest, c.Method)
	assert.Equal(t, 9, c.ConsensusScore)
	assert.Equal(t, news2.RiskHigh, c.ClinicalRisk)
}

func TestEvaluate_SingleNode(t *testing.T) {
	trigger := scoreevent.Event{PatientID: "p1", NodeID: "n1", TotalScore: 0, ClinicalRisk: news2.RiskLow, ObservedAt: at(0)}
	c := Evaluate(trigger, nil)
	assert.Equal(t, scoreevent.MethodSingle, c.Method)
	assert.True(t, c.Valid)
	assert.Len(t, c.NodeScores, 1)
}
