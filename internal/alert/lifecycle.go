package alert

import (
	"time"

	"github.com/ews-platform/ews-consensus/internal/apperr"
)

// Acknowledge implements the §4.8 Alert lifecycle transition
// NEW|ESCALATED -> ACKNOWLEDGED.
func Acknowledge(a *Alert, userID string, at Clock) error {
	if a.Status != StatusNew && a.Status != StatusEscalated {
		return apperr.StateTransition("alert can only be acknowledged from NEW or ESCALATED")
	}
	now := at()
	a.Status = StatusAcknowledged
	a.AckedBy = userID
	a.AckedAt = &now
	return nil
}

// Resolve implements NEW|ACKNOWLEDGED|ESCALATED -> RESOLVED; resolving an
// already-RESOLVED alert is rejected (§4.8).
func Resolve(a *Alert, userID, resolution string, at Clock) error {
	if a.Status == StatusResolved {
		return apperr.StateTransition("alert is already resolved")
	}
	now := at()
	a.Status = StatusResolved
	a.ResolvedBy = userID
	a.Resolution = resolution
	a.ResolvedAt = &now
	return nil
}

// Escalate moves any non-RESOLVED alert to ESCALATED, raising priority by 10
// (clamped); escalating a RESOLVED alert is rejected (§4.8).
func Escalate(a *Alert, reason string, at Clock) error {
	if a.Status == StatusResolved {
		return apperr.StateTransition("resolved alerts cannot be escalated")
	}
	now := at()
	a.Status = StatusEscalated
	a.EscalateReason = reason
	a.EscalatedAt = &now
	a.Priority += 10
	if a.Priority > 100 {
		a.Priority = 100
	}
	return nil
}

// Resend implements the §4.8 Notification resend rule: permitted only from
// FAILED or PENDING, reusing the same notificationId (the record is updated
// in place, not recreated).
func Resend(n *Notification) error {
	if n.Status != NotificationFailed && n.Status != NotificationPending {
		return apperr.StateTransition("notification can only be resent from FAILED or PENDING")
	}
	n.Status = NotificationPending
	n.ErrorMessage = ""
	n.SentAt = nil
	n.DeliveredAt = nil
	return nil
}

// Clock abstracts time.Now for testable lifecycle transitions.
type Clock func() time.Time
