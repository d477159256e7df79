package news2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 from spec §8: all-normal vitals score zero across the board.
func TestScore_S1_AllNormal(t *testing.T) {
	result, err := Score(VitalSigns{
		RespiratoryRate:  18,
		OxygenSaturation: 96,
		Temperature:      37.1,
		SystolicBP:       125,
		HeartRate:        72,
		Consciousness:    Alert,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalScore)
	assert.Equal(t, RiskLow, result.ClinicalRisk)
	assert.Equal(t, Components{}, result.Components)
}

func TestScore_IsPureAndIdempotent(t *testing.T) {
	v := VitalSigns{RespiratoryRate: 9, OxygenSaturation: 92, Temperature: 38.5, SystolicBP: 95, HeartRate: 45, Consciousness: Voice}
	r1, err1 := Score(v)
	r2, err2 := Score(v)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1, r2)
}

func TestRespiratoryRateBoundaries(t *testing.T) {
	cases := []struct {
		value float64
		want  int
	}{
		{8, 3}, {9, 1}, {11, 1}, {12, 0}, {20, 0}, {21, 2}, {24, 2}, {25, 3},
	}
	for _, c := range cases {
		score, err := respiratoryRateScore(c.value)
		require.NoError(t, err)
		assert.Equalf(t, c.want, score, "respiratoryRate=%v", c.value)
	}
}

func TestOxygenSaturationBoundaries(t *testing.T) {
	cases := []struct {
		value float64
		want  int
	}{
		{91, 3}, {92, 2}, {93, 2}, {94, 1}, {95, 1}, {96, 0}, {100, 0},
	}
	for _, c := range cases {
		score, err := oxygenSaturationScore(c.value)
		require.NoError(t, err)
		assert.Equalf(t, c.want, score, "spo2=%v", c.value)
	}
}

func TestTemperatureBoundariesInclusive(t *testing.T) {
	cases := []struct {
		value float64
		want  int
	}{
		{35.0, 3}, {35.1, 1}, {36.0, 1}, {36.1, 0}, {38.0, 0}, {38.1, 1}, {39.0, 1}, {39.1, 2},
	}
	for _, c := range cases {
		score, err := temperatureScore(c.value)
		require.NoError(t, err)
		assert.Equalf(t, c.want, score, "temp=%v", c.value)
	}
}

func TestSystolicBPBoundaries(t *testing.T) {
	cases := []struct {
		value float64
		want  int
	}{
		{90, 3}, {91, 2}, {100, 2}, {101, 1}, {110, 1}, {111, 0}, {219, 0}, {220, 3},
	}
	for _, c := range cases {
		score, err := systolicBPScore(c.value)
		require.NoError(t, err)
		assert.Equalf(t, c.want, score, "bpSys=%v", c.value)
	}
}

func TestHeartRateFullyPartitioned(t *testing.T) {
	cases := []struct {
		value float64
		want  int
	}{
		{40, 3}, {41, 2}, {50, 2}, {51, 0}, {90, 0}, {91, 1}, {110, 1}, {111, 2}, {130, 2}, {131, 3},
	}
	for _, c := range cases {
		score, err := heartRateScore(c.value)
		require.NoError(t, err)
		assert.Equalf(t, c.want, score, "hr=%v", c.value)
	}
}

func TestConsciousnessUnrecognisedIsValidationError(t *testing.T) {
	_, err := consciousnessScore(Consciousness("Unknown"))
	assert.Error(t, err)
}

func TestScore_RiskCategories(t *testing.T) {
	cases := []struct {
		total int
		risk  ClinicalRisk
	}{
		{0, RiskLow}, {1, RiskLowMedium}, {4, RiskLowMedium}, {5, RiskMedium}, {6, RiskMedium}, {7, RiskHigh}, {20, RiskHigh},
	}
	for _, c := range cases {
		assert.Equalf(t, c.risk, riskFor(c.total), "total=%v", c.total)
	}
}

func TestScore_ValueOutsideEveryBandIsError(t *testing.T) {
	_, err := Score(VitalSigns{
		RespiratoryRate:  24.5, // between the 21–24 and ≥25 bands
		OxygenSaturation: 96,
		Temperature:      37.0,
		SystolicBP:       120,
		HeartRate:        70,
		Consciousness:    Alert,
	})
	assert.Error(t, err)
}
