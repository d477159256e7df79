package sensor

import (
	"math"
	"sort"
	"time"
)

const (
	lookback        = 30 * time.Second
	grace           = 5 * time.Second
	windowWidth     = 5 * time.Second // timeRange threshold for falling back to "latest"
	averageTolerance = 0.20
)

// Window returns the consensus window for a triggering timestamp: §4.2 /
// §5 "[now − 30 s, now + 5 s] relative to the triggering event's timestamp".
func Window(triggerAt time.Time) (from, to time.Time) {
	return triggerAt.Add(-lookback), triggerAt.Add(grace)
}

// Evaluate runs the §4.2 algorithm over candidates (already filtered to the
// consensus window by the caller/store query) plus the triggering reading
// itself. It is a pure function over its inputs: property 3–5 (§8) and the
// "lazy consensus state" design note (§9) both depend on this being provable
// independent of how the window's readings were fetched.
func Evaluate(trigger Reading, candidates []Reading) Consensus {
	byNode := latestPerNode(append(append([]Reading{}, candidates...), trigger))
	participants := make([]Participant, 0, len(byNode))
	for _, r := range byNode {
		participants = append(participants, Participant{NodeID: r.NodeID, Value: r.Value, ObservedAt: r.ObservedAt})
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].ObservedAt.Before(participants[j].ObservedAt) })

	base := Consensus{
		PatientID:     trigger.PatientID,
		SensorType:    trigger.SensorType,
		Participating: participants,
	}

	count := len(participants)
	if count == 1 {
		base.ConsensusValue = participants[0].Value
		base.ConsensusAt = participants[0].ObservedAt
		base.Valid = true
		base.Method = MethodSingle
		return base
	}

	minTS, maxTS := participants[0].ObservedAt, participants[0].ObservedAt
	for _, p := range participants[1:] {
		if p.ObservedAt.Before(minTS) {
			minTS = p.ObservedAt
		}
		if p.ObservedAt.After(maxTS) {
			maxTS = p.ObservedAt
		}
	}
	if maxTS.Sub(minTS) > windowWidth {
		latest := latestOf(participants)
		base.ConsensusValue = latest.Value
		base.ConsensusAt = latest.ObservedAt
		base.Valid = true
		base.Method = MethodLatest
		return base
	}

	return evaluateWithinWindow(base, participants, count)
}

// evaluateWithinWindow applies the majority/average(±20%)/none fallback of
// §4.2. The score-consensus engine (§4.4) shares the majority-grouping shape
// but uses an absolute threshold instead of this relative tolerance, so it
// keeps its own copy rather than parameterising this one.
func evaluateWithinWindow(base Consensus, participants []Participant, count int) Consensus {
	groups := map[float64][]Participant{}
	for _, p := range participants {
		groups[p.Value] = append(groups[p.Value], p)
	}

	var majorityValue float64
	var majorityGroup []Participant
	for value, group := range groups {
		if len(group) > len(majorityGroup) {
			majorityGroup = group
			majorityValue = value
		}
	}

	if len(majorityGroup) > count/2 {
		latest := latestOf(majorityGroup)
		base.ConsensusValue = majorityValue
		base.ConsensusAt = latest.ObservedAt
		base.Valid = true
		base.Method = MethodMajority
		return base
	}

	avg := average(participants)
	within := true
	for _, p := range participants {
		if avg == 0 {
			if p.Value != 0 {
				within = false
				break
			}
			continue
		}
		if math.Abs(p.Value-avg)/math.Abs(avg) > averageTolerance {
			within = false
			break
		}
	}

	base.ConsensusValue = avg
	base.ConsensusAt = latestOf(participants).ObservedAt
	if within {
		base.Valid = true
		base.Method = MethodAverage
	} else {
		base.Valid = false
		base.Method = MethodNone
	}
	return base
}

func latestPerNode(readings []Reading) []Reading {
	byNode := map[string]Reading{}
	for _, r := range readings {
		if existing, ok := byNode[r.NodeID]; !ok || r.ObservedAt.After(existing.ObservedAt) {
			byNode[r.NodeID] = r
		}
	}
	out := make([]Reading, 0, len(byNode))
	for _, r := range byNode {
		out = append(out, r)
	}
	return out
}

func latestOf(participants []Participant) Participant {
	latest := participants[0]
	for _, p := range participants[1:] {
		if p.ObservedAt.After(latest.ObservedAt) {
			latest = p
		}
	}
	return latest
}

func average(participants []Participant) float64 {
	sum := 0.0
	for _, p := range participants {
		sum += p.Value
	}
	return sum / float64(len(participants))
}
