package alert

// Matches implements the §4.7 subscription-matching predicate.
func Matches(s Subscription, a Alert) bool {
	if !s.Active {
		return false
	}
	if s.PatientID != nil && *s.PatientID != a.PatientID {
		return false
	}
	if !severitySatisfies(s.MinSeverity, a.AlertSeverity) {
		return false
	}
	if len(s.AlertTypes) > 0 && !containsType(s.AlertTypes, a.AlertType) {
		return false
	}
	return true
}

// severitySatisfies implements "HIGH->match any; MEDIUM->minSeverity in
// {MEDIUM,LOW}; LOW->minSeverity=LOW" (§4.7).
func severitySatisfies(minSeverity, alertSeverity Severity) bool {
	switch alertSeverity {
	case High:
		return true
	case Medium:
		return minSeverity == Medium || minSeverity == Low
	case Low:
		return minSeverity == Low
	default:
		return false
	}
}

func containsType(types []Type, t Type) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

// EscalationMatches implements the narrower escalation-tier query (§4.7):
// department-level, HIGH minSeverity, matching patient or global.
func EscalationMatches(s Subscription, patientID string) bool {
	if !s.Active || s.SubscriberType != SubscriberDepartment || s.MinSeverity != High {
		return false
	}
	return s.PatientID == nil || *s.PatientID == patientID
}
