package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ews-platform/ews-consensus/internal/scoreevent"
)

func TestClassify_Table(t *testing.T) {
	cases := []struct {
		name      string
		c         scoreevent.Consensus
		wantType  Type
		wantSev   Severity
		wantAlert bool
	}{
		{"invalid", scoreevent.Consensus{Valid: false, ConsensusScore: 9}, EWSDataInconsistency, Medium, true},
		{"critical", scoreevent.Consensus{Valid: true, ConsensusScore: 7}, EWSCritical, High, true},
		{"urgent-low-bound", scoreevent.Consensus{Valid: true, ConsensusScore: 5}, EWSUrgent, Medium, true},
		{"urgent-high-bound", scoreevent.Consensus{Valid: true, ConsensusScore: 6}, EWSUrgent, Medium, true},
		{"elevated", scoreevent.Consensus{Valid: true, ConsensusScore: 3}, EWSElevated, Low, true},
		{"no-alert", scoreevent.Consensus{Valid: true, ConsensusScore: 2}, "", "", false},
		{"no-alert-zero", scoreevent.Consensus{Valid: true, ConsensusScore: 0}, "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, ok := Classify(tc.c)
			require.Equal(t, tc.wantAlert, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.wantType, a.AlertType)
			assert.Equal(t, tc.wantSev, a.AlertSeverity)
		})
	}
}

// S4: score 5, majority, valid -> EWS_URGENT, MEDIUM, priority 65.
func TestClassify_S4Priority(t *testing.T) {
	a, ok := Classify(scoreevent.Consensus{PatientID: "p1", Valid: true, ConsensusScore: 5, Method: scoreevent.MethodMajority})
	require.True(t, ok)
	assert.Equal(t, EWSUrgent, a.AlertType)
	assert.Equal(t, Medium, a.AlertSeverity)
	assert.Equal(t, 65, a.Priority)
}

// S5: consensusScore=6, invalid -> EWS_DATA_INCONSISTENCY, MEDIUM, priority 50.
func TestClassify_S5Priority(t *testing.T) {
	a, ok := Classify(scoreevent.Consensus{PatientID: "p1", Valid: false, ConsensusScore: 6, Method: scoreevent.MethodNone})
	require.True(t, ok)
	assert.Equal(t, EWSDataInconsistency, a.AlertType)
	assert.Equal(t, Medium, a.AlertSeverity)
	assert.Equal(t, 50, a.Priority)
}

// Property 10: priority always in [1,100].
func TestPriority_AlwaysBounded(t *testing.T) {
	for _, sev := range []Severity{High, Medium, Low, "UNKNOWN"} {
		for _, typ := range []Type{EWSCritical, EWSUrgent, EWSElevated, EWSDataInconsistency, SensorCritical, SensorWarning, "UNKNOWN"} {
			p := Priority(sev, typ)
			assert.GreaterOrEqual(t, p, 1)
			assert.LessOrEqual(t, p, 100)
		}
	}
}

func patientPtr(id string) *string { return &id }

// S6: EWS_CRITICAL with two subscriptions, only the broad-LOW one matches.
func TestMatches_S6(t *testing.T) {
	a := Alert{PatientID: "p1", AlertType: EWSCritical, AlertSeverity: High}

	broad := Subscription{Active: true, SubscriberType: SubscriberStaff, MinSeverity: Low, Channels: []Channel{{Kind: "email", Contact: "a@x.com", Enabled: true}}}
	narrow := Subscription{Active: true, SubscriberType: SubscriberStaff, MinSeverity: High, AlertTypes: []Type{EWSUrgent}, Channels: []Channel{{Kind: "email", Contact: "b@x.com", Enabled: true}}}

	assert.True(t, Matches(broad, a))
	assert.False(t, Matches(narrow, a), "narrow subscription only accepts EWS_URGENT")
}

func TestMatches_PatientScoping(t *testing.T) {
	a := Alert{PatientID: "p1", AlertType: EWSCritical, AlertSeverity: High}
	s := Subscription{Active: true, PatientID: patientPtr("p2"), MinSeverity: Low}
	assert.False(t, Matches(s, a))
}

func TestMatches_InactiveNeverMatches(t *testing.T) {
	a := Alert{PatientID: "p1", AlertType: EWSCritical, AlertSeverity: High}
	s := Subscription{Active: false, MinSeverity: Low}
	assert.False(t, Matches(s, a))
}

func TestEscalationMatches(t *testing.T) {
	dept := Subscription{Active: true, SubscriberType: SubscriberDepartment, MinSeverity: High}
	staff := Subscription{Active: true, SubscriberType: SubscriberStaff, MinSeverity: High}
	assert.True(t, EscalationMatches(dept, "p1"))
	assert.False(t, EscalationMatches(staff, "p1"), "only department-level subscriptions escalate")
}

func fixedClock() time.Time { return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC) }

// Property 11: acknowledge only from NEW/ESCALATED.
func TestAcknowledge_Lifecycle(t *testing.T) {
	a := Alert{Status: StatusNew}
	require.NoError(t, Acknowledge(&a, "user-1", fixedClock))
	assert.Equal(t, StatusAcknowledged, a.Status)

	b := Alert{Status: StatusResolved}
	assert.Error(t, Acknowledge(&b, "user-1", fixedClock))
}

// Property 11: resolve rejected on RESOLVED.
func TestResolve_RejectsDoubleResolve(t *testing.T) {
	a := Alert{Status: StatusResolved}
	assert.Error(t, Resolve(&a, "user-1", "done", fixedClock))

	b := Alert{Status: StatusAcknowledged}
	require.NoError(t, Resolve(&b, "user-1", "done", fixedClock))
	assert.Equal(t, StatusResolved, b.Status)
}

// Property 11: escalate rejected on RESOLVED.
func TestEscalate_RejectsOnResolved(t *testing.T) {
	a := Alert{Status: StatusResolved, Priority: 50}
	assert.Error(t, Escalate(&a, "deteriorating", fixedClock))

	b := Alert{Status: StatusNew, Priority: 95}
	require.NoError(t, Escalate(&b, "deteriorating", fixedClock))
	assert.Equal(t, StatusEscalated, b.Status)
	assert.Equal(t, 100, b.Priority, "escalation priority bump clamps at 100")
}

func TestResend_OnlyFromFailedOrPending(t *testing.T) {
	sent := Notification{Status: NotificationSent}
	assert.Error(t, Resend(&sent))

	failed := Notification{Status: NotificationFailed, ErrorMessage: "timeout"}
	require.NoError(t, Resend(&failed))
	assert.Equal(t, NotificationPending, failed.Status)
	assert.Empty(t, failed.ErrorMessage)
}
