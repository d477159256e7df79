// Package news2 implements the NEWS2 Scorer (C1): a pure, deterministic
// function from a complete VitalSigns vector to component scores, a total
// score, and a clinical risk category (spec §4.1).
package news2

import (
	"fmt"
)

// Consciousness is the AVPU scale (§3).
type Consciousness string

const (
	Alert        Consciousness = "Alert"
	Voice        Consciousness = "Voice"
	Pain         Consciousness = "Pain"
	Unresponsive Consciousness = "Unresponsive"
)

// VitalSigns is the complete, non-persisted six-vital view a patient needs
// before NEWS2 can run (§3).
type VitalSigns struct {
	RespiratoryRate  float64
	OxygenSaturation float64
	Temperature      float64
	SystolicBP       float64
	HeartRate        float64
	Consciousness    Consciousness
}

// ClinicalRisk is the categorical mapping from totalScore (Glossary).
type ClinicalRisk string

const (
	RiskLow       ClinicalRisk = "Low"
	RiskLowMedium ClinicalRisk = "Low-Medium"
	RiskMedium    ClinicalRisk = "Medium"
	RiskHigh      ClinicalRisk = "High"
)

// Components is the per-vital integer score breakdown.
type Components struct {
	RespiratoryRate  int
	OxygenSaturation int
	Temperature      int
	SystolicBP       int
	HeartRate        int
	Consciousness    int
}

// Result is C1's pure output.
type Result struct {
	Components   Components
	TotalScore   int
	ClinicalRisk ClinicalRisk
}

// Score computes the NEWS2 result for a complete VitalSigns vector. It is
// pure and idempotent (testable property 1): calling it twice with the same
// v always yields the same Result. Values that fall outside every banding
// interval return a validation error rather than silently scoring 0
// (§4.1's "must raise a validation error" clause).
func Score(v VitalSigns) (Result, error) {
	rr, err := respiratoryRateScore(v.RespiratoryRate)
	if err != nil {
		return Result{}, err
	}
	spo2, err := oxygenSaturationScore(v.OxygenSaturation)
	if err != nil {
		return Result{}, err
	}
	temp, err := temperatureScore(v.Temperature)
	if err != nil {
		return Result{}, err
	}
	bp, err := systolicBPScore(v.SystolicBP)
	if err != nil {
		return Result{}, err
	}
	hr, err := heartRateScore(v.HeartRate)
	if err != nil {
		return Result{}, err
	}
	avpu, err := consciousnessScore(v.Consciousness)
	if err != nil {
		return Result{}, err
	}

	components := Components{
		RespiratoryRate:  rr,
		OxygenSaturation: spo2,
		Temperature:      temp,
		SystolicBP:       bp,
		HeartRate:        hr,
		Consciousness:    avpu,
	}
	total := rr + spo2 + temp + bp + hr + avpu

	return Result{
		Components:   components,
		TotalScore:   total,
		ClinicalRisk: riskFor(total),
	}, nil
}

func riskFor(total int) ClinicalRisk {
	switch {
	case total >= 7:
		return RiskHigh
	case total >= 5:
		return RiskMedium
	case total >= 1:
		return RiskLowMedium
	default:
		return RiskLow
	}
}

// respRate: ≤8→3, 9–11→1, 12–20→0, 21–24→2, ≥25→3
func respiratoryRateScore(v float64) (int, error) {
	switch {
	case v <= 8:
		return 3, nil
	case v <= 11:
		return 1, nil
	case v <= 20:
		return 0, nil
	case v <= 24:
		return 2, nil
	case v >= 25:
		return 3, nil
	default:
		return 0, fmt.Errorf("respiratoryRate %v is outside every banding interval", v)
	}
}

// oxygenSaturation: ≤91→3, 92–93→2, 94–95→1, ≥96→0
func oxygenSaturationScore(v float64) (int, error) {
	switch {
	case v <= 91:
		return 3, nil
	case v <= 93:
		return 2, nil
	case v <= 95:
		return 1, nil
	case v >= 96:
		return 0, nil
	default:
		return 0, fmt.Errorf("oxygenSaturation %v is outside every banding interval", v)
	}
}

// temperature: ≤35.0→3, 35.1–36.0→1, 36.1–38.0→0, 38.1–39.0→1, ≥39.1→2
func temperatureScore(v float64) (int, error) {
	switch {
	case v <= 35.0:
		return 3, nil
	case v <= 36.0:
		return 1, nil
	case v <= 38.0:
		return 0, nil
	case v <= 39.0:
		return 1, nil
	case v >= 39.1:
		return 2, nil
	default:
		return 0, fmt.Errorf("temperature %v is outside every banding interval", v)
	}
}

// systolicBP: ≤90→3, 91–100→2, 101–110→1, 111–219→0, ≥220→3
func systolicBPScore(v float64) (int, error) {
	switch {
	case v <= 90:
		return 3, nil
	case v <= 100:
		return 2, nil
	case v <= 110:
		return 1, nil
	case v <= 219:
		return 0, nil
	case v >= 220:
		return 3, nil
	default:
		return 0, fmt.Errorf("systolicBP %v is outside every banding interval", v)
	}
}

// heartRate: ≤40→3, 41–50→2, 51–90→0, 91–110→1, 111–130→2, ≥131→3
// (fully partitioned with no gaps, per §4.1)
func heartRateScore(v float64) (int, error) {
	switch {
	case v <= 40:
		return 3, nil
	case v <= 50:
		return 2, nil
	case v <= 90:
		return 0, nil
	case v <= 110:
		return 1, nil
	case v < 131:
		return 2, nil
	case v >= 131:
		return 3, nil
	default:
		return 0, fmt.Errorf("heartRate %v is outside every banding interval", v)
	}
}

func consciousnessScore(c Consciousness) (int, error) {
	switch c {
	case Alert:
		return 0, nil
	case Voice, Pain, Unresponsive:
		return 3, nil
	default:
		return 0, fmt.Errorf("consciousness %q is not a recognised AVPU value", c)
	}
}
