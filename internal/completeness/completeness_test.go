package completeness

import (
	"context"
	"testing"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ews-platform/ews-consensus/internal/news2"
	"github.com/ews-platform/ews-consensus/internal/sensor"
)

type fakeStore struct {
	sensor.Store
	perType map[sensor.Type]sensor.Consensus
}

func (f *fakeStore) LatestValidConsensusPerType(ctx context.Context, patientID string) (map[sensor.Type]sensor.Consensus, error) {
	return f.perType, nil
}

func fullVector(now time.Time) map[sensor.Type]sensor.Consensus {
	mk := func(st sensor.Type, v float64) sensor.Consensus {
		return sensor.Consensus{PatientID: "p1", SensorType: st, ConsensusValue: v, ConsensusAt: now, Valid: true}
	}
	return map[sensor.Type]sensor.Consensus{
		sensor.RespRate:      mk(sensor.RespRate, 18),
		sensor.SpO2:          mk(sensor.SpO2, 97),
		sensor.Temperature:   mk(sensor.Temperature, 37.0),
		sensor.BPSystolic:    mk(sensor.BPSystolic, 120),
		sensor.HeartRate:     mk(sensor.HeartRate, 80),
		sensor.Consciousness: mk(sensor.Consciousness, 0),
	}
}

func TestOnSensorConsensus_CompleteVectorScores(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{perType: fullVector(now)}

	var gotVitals news2.VitalSigns
	var gotResult news2.Result
	emitted := false
	emit := func(ctx context.Context, patientID, nodeID string, vitals news2.VitalSigns, result news2.Result) error {
		emitted = true
		gotVitals = vitals
		gotResult = result
		return nil
	}

	d := New(store, "node-1", emit, kitlog.NewNopLogger())
	d.clock = func() time.Time { return now }

	trigger := sensor.Consensus{PatientID: "p1", SensorType: sensor.HeartRate, Valid: true, ConsensusAt: now}
	err := d.OnSensorConsensus(context.Background(), trigger)
	require.NoError(t, err)
	require.True(t, emitted)
	assert.Equal(t, news2.Alert, gotVitals.Consciousness)
	assert.Equal(t, 0, gotResult.TotalScore)
	assert.Equal(t, news2.RiskLow, gotResult.ClinicalRisk)
}

func TestOnSensorConsensus_MissingVitalIsNoOp(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	vector := fullVector(now)
	delete(vector, sensor.Consciousness)
	store := &fakeStore{perType: vector}

	emitted := false
	emit := func(ctx context.Context, patientID, nodeID string, vitals news2.VitalSigns, result news2.Result) error {
		emitted = true
		return nil
	}

	d := New(store, "node-1", emit, kitlog.NewNopLogger())
	d.clock = func() time.Time { return now }

	err := d.OnSensorConsensus(context.Background(), sensor.Consensus{PatientID: "p1", Valid: true})
	require.NoError(t, err)
	assert.False(t, emitted, "missing consciousness must not default to Alert")
}

func TestOnSensorConsensus_StaleVitalExcluded(t *testing.T) {
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	vector := fullVector(now)
	stale := vector[sensor.Temperature]
	stale.ConsensusAt = now.Add(-FreshnessWindow - time.Minute)
	vector[sensor.Temperature] = stale
	store := &fakeStore{perType: vector}

	emitted := false
	emit := func(ctx context.Context, patientID, nodeID string, vitals news2.VitalSigns, result news2.Result) error {
		emitted = true
		return nil
	}

	d := New(store, "node-1", emit, kitlog.NewNopLogger())
	d.clock = func() time.Time { return now }

	err := d.OnSensorConsensus(context.Background(), sensor.Consensus{PatientID: "p1", Valid: true})
	require.NoError(t, err)
	assert.False(t, emitted)
}

func TestOnSensorConsensus_InvalidTriggerIsNoOp(t *testing.T) {
	store := &fakeStore{perType: fullVector(time.Now())}
	emitted := false
	emit := func(ctx context.Context, patientID, nodeID string, vitals news2.VitalSigns, result news2.Result) error {
		emitted = true
		return nil
	}

	d := New(store, "node-1", emit, kitlog.NewNopLogger())
	err := d.OnSensorConsensus(context.Background(), sensor.Consensus{PatientID: "p1", Valid: false})
	require.NoError(t, err)
	assert.False(t, emitted)
}
