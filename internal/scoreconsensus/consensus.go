// Package scoreconsensus implements the Score Consensus Engine (C3, §4.4):
// the same fan-in quorum shape as C2 (internal/sensor), reapplied to
// per-node NEWS2 totals instead of raw sensor values.
package scoreconsensus

import (
	"sort"
	"time"

	"github.com/ews-platform/ews-consensus/internal/news2"
	"github.com/ews-platform/ews-consensus/internal/scoreevent"
)

const (
	lookback          = 30 * time.Second
	grace             = 5 * time.Second
	windowWidth       = 5 * time.Second
	scoreThreshold    = 1 // absolute, not relative — §4.4
)

// Window returns the score-consensus window for a triggering timestamp,
// identical in shape to sensor.Window (§5).
func Window(triggerAt time.Time) (from, to time.Time) {
	return triggerAt.Add(-lookback), triggerAt.Add(grace)
}

// Evaluate runs the §4.4 algorithm: group by exact totalScore, majority if
// any group exceeds half the participants, else an absolute-tolerance
// average fallback (|v-avg| <= 1, not the §4.2 relative 20%), else none.
func Evaluate(trigger scoreevent.Event, candidates []scoreevent.Event) scoreevent.Consensus {
	byNode := latestPerNode(append(append([]scoreevent.Event{}, candidates...), trigger))
	sort.Slice(byNode, func(i, j int) bool { return byNode[i].ObservedAt.Before(byNode[j].ObservedAt) })

	base := scoreevent.Consensus{
		PatientID:  trigger.PatientID,
		NodeScores: byNode,
	}

	count := len(byNode)
	if count == 1 {
		base.ConsensusScore = byNode[0].TotalScore
		base.ClinicalRisk = byNode[0].ClinicalRisk
		base.ConsensusAt = byNode[0].ObservedAt
		base.Valid = true
		base.Method = scoreevent.MethodSingle
		return base
	}

	minTS, maxTS := byNode[0].ObservedAt, byNode[0].ObservedAt
	for _, e := range byNode[1:] {
		if e.ObservedAt.Before(minTS) {
			minTS = e.ObservedAt
		}
		if e.ObservedAt.After(maxTS) {
			maxTS = e.ObservedAt
		}
	}
	if maxTS.Sub(minTS) > windowWidth {
		latest := latestOf(byNode)
		base.ConsensusScore = latest.TotalScore
		base.ClinicalRisk = latest.ClinicalRisk
		base.ConsensusAt = latest.ObservedAt
		base.Valid = true
		base.Method = scoreevent.MethodLatest
		return base
	}

	return evaluateWithinWindow(base, byNode, count)
}

func evaluateWithinWindow(base scoreevent.Consensus, events []scoreevent.Event, count int) scoreevent.Consensus {
	groups := map[int][]scoreevent.Event{}
	for _, e := range events {
		groups[e.TotalScore] = append(groups[e.TotalScore], e)
	}

	var majorityScore int
	var majorityGroup []scoreevent.Event
	for score, group := range groups {
		if len(group) > len(majorityGroup) {
			majorityGroup = group
			majorityScore = score
		}
	}

	if len(majorityGroup) > count/2 {
		latest := latestEventOf(majorityGroup)
		base.ConsensusScore = majorityScore
		base.ClinicalRisk = latest.ClinicalRisk
		base.ConsensusAt = latest.ObservedAt
		base.Valid = true
		base.Method = scoreevent.MethodMajority
		return base
	}

	avg := averageScore(events)
	within := true
	for _, e := range events {
		diff := e.TotalScore - avg
		if diff < 0 {
			diff = -diff
		}
		if diff > scoreThreshold {
			within = false
			break
		}
	}

	latest := latestEventOf(events)
	base.ConsensusScore = avg
	base.ConsensusAt = latest.ObservedAt
	if within {
		base.Valid = true
		base.Method = scoreevent.MethodAverage
		base.ClinicalRisk = riskFor(avg)
	} else {
		base.Valid = false
		base.Method = scoreevent.MethodNone
		base.ClinicalRisk = riskFor(avg)
	}
	return base
}

// riskFor mirrors the clinical-risk banding of §4.1 / glossary, applied to
// a reconciled (possibly averaged, then rounded to an integer) consensus score.
func riskFor(total int) news2.ClinicalRisk {
	switch {
	case total >= 7:
		return news2.RiskHigh
	case total >= 5:
		return news2.RiskMedium
	case total >= 1:
		return news2.RiskLowMedium
	default:
		return news2.RiskLow
	}
}

func latestPerNode(events []scoreevent.Event) []scoreevent.Event {
	byNode := map[string]scoreevent.Event{}
	for _, e := range events {
		if existing, ok := byNode[e.NodeID]; !ok || e.ObservedAt.After(existing.ObservedAt) {
			byNode[e.NodeID] = e
		}
	}
	out := make([]scoreevent.Event, 0, len(byNode))
	for _, e := range byNode {
		out = append(out, e)
	}
	return out
}

func latestOf(events []scoreevent.Event) scoreevent.Event { return latestEventOf(events) }

func latestEventOf(events []scoreevent.Event) scoreevent.Event {
	latest := events[0]
	for _, e := range events[1:] {
		if e.ObservedAt.After(latest.ObservedAt) {
			latest = e
		}
	}
	return latest
}

func averageScore(events []scoreevent.Event) int {
	sum := 0
	for _, e := range events {
		sum += e.TotalScore
	}
	// Round to nearest, ties away from zero; totalScore is always >= 0 here.
	return (sum + len(events)/2) / len(events)
}
