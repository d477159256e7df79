package readmodel

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ews-platform/ews-consensus/internal/news2"
	"github.com/ews-platform/ews-consensus/internal/scoreevent"
)

type memStore struct {
	mu      sync.Mutex
	byPID   map[string]PatientReadModel
}

func newMemStore() *memStore { return &memStore{byPID: map[string]PatientReadModel{}} }

func (m *memStore) Get(ctx context.Context, patientID string) (PatientReadModel, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byPID[patientID]
	return v, ok, nil
}

func (m *memStore) Upsert(ctx context.Context, model PatientReadModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPID[model.PatientID] = model
	return nil
}

func (m *memStore) HighRisk(ctx context.Context, minScore int) ([]PatientReadModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PatientReadModel
	for _, v := range m.byPID {
		if v.CurrentScore >= minScore {
			out = append(out, v)
		}
	}
	return out, nil
}

func baseTime() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) }

// Property 6: after applying C, lastUpdated >= C.consensusAt and currentScore == C.consensusScore.
func TestApply_Monotonicity(t *testing.T) {
	store := newMemStore()
	p := NewProjector(store, 2, nil, kitlog.NewNopLogger())

	c := scoreevent.Consensus{
		ConsensusID: "c1", PatientID: "p1", ConsensusScore: 5, ClinicalRisk: news2.RiskMedium,
		ConsensusAt: baseTime(), Valid: true, Method: scoreevent.MethodMajority,
		NodeScores: []scoreevent.Event{{NodeID: "n1", TotalScore: 5, ObservedAt: baseTime(), VitalSigns: news2.VitalSigns{HeartRate: 80}}},
	}
	require.NoError(t, p.Apply(context.Background(), c))

	model, found, err := store.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 5, model.CurrentScore)
	assert.True(t, !model.LastUpdated.Before(c.ConsensusAt))
}

// Property 8: re-applying the same consensusId is a no-op after the first application.
func TestApply_IdempotentOnDuplicateConsensusID(t *testing.T) {
	store := newMemStore()
	p := NewProjector(store, 2, nil, kitlog.NewNopLogger())

	c := scoreevent.Consensus{
		ConsensusID: "c1", PatientID: "p1", ConsensusScore: 5, ClinicalRisk: news2.RiskMedium,
		ConsensusAt: baseTime(), Valid: true, Method: scoreevent.MethodMajority,
		NodeScores: []scoreevent.Event{{NodeID: "n1", TotalScore: 5, ObservedAt: baseTime()}},
	}
	require.NoError(t, p.Apply(context.Background(), c))
	first, _, _ := store.Get(context.Background(), "p1")

	require.NoError(t, p.Apply(context.Background(), c))
	second, _, _ := store.Get(context.Background(), "p1")

	assert.Equal(t, first, second)
	assert.Len(t, second.ScoreHistory, 1)
}

// Property 7: history bound to 100, sorted non-decreasing.
func TestApply_HistoryBound(t *testing.T) {
	store := newMemStore()
	p := NewProjector(store, 2, nil, kitlog.NewNopLogger())

	for i := 0; i < 120; i++ {
		c := scoreevent.Consensus{
			ConsensusID: fmt.Sprintf("c%d", i), PatientID: "p1", ConsensusScore: i % 10,
			ConsensusAt: baseTime().Add(time.Duration(i) * time.Minute), Valid: true, Method: scoreevent.MethodSingle,
			NodeScores: []scoreevent.Event{{NodeID: "n1", TotalScore: i % 10, ObservedAt: baseTime().Add(time.Duration(i) * time.Minute)}},
		}
		require.NoError(t, p.Apply(context.Background(), c))
	}

	model, _, _ := store.Get(context.Background(), "p1")
	assert.LessOrEqual(t, len(model.ScoreHistory), MaxHistory)
	for i := 1; i < len(model.ScoreHistory); i++ {
		assert.False(t, model.ScoreHistory[i].Timestamp.Before(model.ScoreHistory[i-1].Timestamp))
	}
}

// §4.4: invalid consensus must not overwrite prior vitals/components.
func TestApply_InvalidConsensusPreservesVitals(t *testing.T) {
	store := newMemStore()
	p := NewProjector(store, 2, nil, kitlog.NewNopLogger())

	valid := scoreevent.Consensus{
		ConsensusID: "c1", PatientID: "p1", ConsensusScore: 5, ClinicalRisk: news2.RiskMedium,
		ConsensusAt: baseTime(), Valid: true, Method: scoreevent.MethodMajority,
		NodeScores: []scoreevent.Event{{NodeID: "n1", TotalScore: 5, ObservedAt: baseTime(), VitalSigns: news2.VitalSigns{HeartRate: 80}}},
	}
	require.NoError(t, p.Apply(context.Background(), valid))

	invalid := scoreevent.Consensus{
		ConsensusID: "c2", PatientID: "p1", ConsensusScore: 6, ClinicalRisk: news2.RiskMedium,
		ConsensusAt: baseTime().Add(time.Minute), Valid: false, Method: scoreevent.MethodNone,
		NodeScores: []scoreevent.Event{{NodeID: "n1", TotalScore: 3, ObservedAt: baseTime().Add(time.Minute), VitalSigns: news2.VitalSigns{HeartRate: 999}}},
	}
	require.NoError(t, p.Apply(context.Background(), invalid))

	model, _, _ := store.Get(context.Background(), "p1")
	assert.Equal(t, 6, model.CurrentScore, "score still updates even when invalid")
	assert.Equal(t, 80.0, model.VitalSigns.HeartRate, "vitals preserved from the last valid consensus")
}

// §4.4 tie-break: authoritative vitals come from the participating event
// whose totalScore equals the consensus score.
func TestApply_AuthoritativeVitalsTieBreak(t *testing.T) {
	store := newMemStore()
	p := NewProjector(store, 2, nil, kitlog.NewNopLogger())

	c := scoreevent.Consensus{
		ConsensusID: "c1", PatientID: "p1", ConsensusScore: 5, ClinicalRisk: news2.RiskMedium,
		ConsensusAt: baseTime(), Valid: true, Method: scoreevent.MethodAverage,
		NodeScores: []scoreevent.Event{
			{NodeID: "n1", TotalScore: 4, ObservedAt: baseTime(), VitalSigns: news2.VitalSigns{HeartRate: 70}},
			{NodeID: "n2", TotalScore: 5, ObservedAt: baseTime().Add(time.Second), VitalSigns: news2.VitalSigns{HeartRate: 90}},
		},
	}
	require.NoError(t, p.Apply(context.Background(), c))

	model, _, _ := store.Get(context.Background(), "p1")
	assert.Equal(t, 90.0, model.VitalSigns.HeartRate, "matches the event whose totalScore equals consensusScore")
}
