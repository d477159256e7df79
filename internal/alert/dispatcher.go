package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	kitlog "github.com/go-kit/kit/log"

	"github.com/ews-platform/ews-consensus/internal/apperr"
	"github.com/ews-platform/ews-consensus/internal/metrics"
)

// Dispatcher is C7+C8 combined: it turns a classified Alert into matched
// Notifications and drives their delivery state machine (§4.7/§4.8).
type Dispatcher struct {
	alerts    AlertStore
	subs      SubscriptionStore
	notifs    NotificationStore
	channels  map[string]ChannelAdapter
	clock     func() time.Time
	logger    kitlog.Logger
}

// NewDispatcher builds a Dispatcher. channels is keyed by Channel.Kind
// (e.g. "email", "webhook").
func NewDispatcher(alerts AlertStore, subs SubscriptionStore, notifs NotificationStore, channels []ChannelAdapter, logger kitlog.Logger) *Dispatcher {
	byKind := make(map[string]ChannelAdapter, len(channels))
	for _, c := range channels {
		byKind[c.Kind()] = c
	}
	return &Dispatcher{alerts: alerts, subs: subs, notifs: notifs, channels: byKind, clock: time.Now, logger: logger}
}

// Raise persists a classified Alert and dispatches notifications against
// every matching active subscription (§4.7 matching, §4.8 send).
func (d *Dispatcher) Raise(ctx context.Context, a Alert) (Alert, error) {
	a.AlertID = uuid.NewString()
	metrics.AlertsRaised.WithLabelValues(string(a.AlertType), string(a.AlertSeverity)).Inc()

	subs, err := d.subs.ActiveMatching(ctx)
	if err != nil {
		return a, apperr.Storage("failed to load subscriptions", err)
	}

	var notificationIDs []string
	for _, s := range subs {
		if !Matches(s, a) {
			continue
		}
		ids, err := d.notifyChannels(ctx, a, s)
		if err != nil {
			d.logger.Log("msg", "notification dispatch failed", "alertId", a.AlertID, "error", err)
			continue
		}
		notificationIDs = append(notificationIDs, ids...)
	}
	a.NotificationIDs = notificationIDs

	if err := d.alerts.Save(ctx, a); err != nil {
		return a, apperr.Storage("failed to persist alert", err)
	}
	return a, nil
}

// Escalate applies the §4.7/§4.8 escalation transition and re-notifies
// against the narrower escalation-tier subscription set.
func (d *Dispatcher) Escalate(ctx context.Context, alertID, reason string) (Alert, error) {
	a, found, err := d.alerts.Get(ctx, alertID)
	if err != nil {
		return Alert{}, apperr.Storage("failed to load alert", err)
	}
	if !found {
		return Alert{}, apperr.NotFound("alert not found")
	}
	if err := Escalate(&a, reason, d.clock); err != nil {
		return Alert{}, err
	}

	subs, err := d.subs.ActiveMatching(ctx)
	if err != nil {
		return Alert{}, apperr.Storage("failed to load subscriptions", err)
	}
	for _, s := range subs {
		if !EscalationMatches(s, a.PatientID) {
			continue
		}
		ids, err := d.notifyChannels(ctx, a, s)
		if err != nil {
			d.logger.Log("msg", "escalation notification dispatch failed", "alertId", a.AlertID, "error", err)
			continue
		}
		a.NotificationIDs = append(a.NotificationIDs, ids...)
	}

	if err := d.alerts.Save(ctx, a); err != nil {
		return Alert{}, apperr.Storage("failed to persist escalated alert", err)
	}
	return a, nil
}

// Resend reconstructs a delivery attempt for an existing notification,
// reusing its notificationId and content (§4.8).
func (d *Dispatcher) Resend(ctx context.Context, notificationID string) (Notification, error) {
	n, found, err := d.notifs.Get(ctx, notificationID)
	if err != nil {
		return Notification{}, apperr.Storage("failed to load notification", err)
	}
	if !found {
		return Notification{}, apperr.NotFound("notification not found")
	}
	if err := Resend(&n); err != nil {
		return Notification{}, err
	}
	d.send(ctx, &n)
	if err := d.notifs.Save(ctx, n); err != nil {
		return Notification{}, apperr.Storage("failed to persist resent notification", err)
	}
	return n, nil
}

func (d *Dispatcher) notifyChannels(ctx context.Context, a Alert, s Subscription) ([]string, error) {
	var ids []string
	for _, ch := range s.Channels {
		if !ch.Enabled {
			continue
		}
		content, err := composeContent(a)
		if err != nil {
			return ids, err
		}
		n := Notification{
			NotificationID: uuid.NewString(),
			AlertID:        a.AlertID,
			PatientID:      a.PatientID,
			ChannelKind:    ch.Kind,
			Recipient:      ch.Contact,
			Content:        content,
			Status:         NotificationPending,
			CreatedAt:      d.clock(),
		}
		d.send(ctx, &n)
		if err := d.notifs.Save(ctx, n); err != nil {
			return ids, apperr.Storage("failed to persist notification", err)
		}
		ids = append(ids, n.NotificationID)
	}
	return ids, nil
}

// send drives the PENDING -> (SENT -> DELIVERED) | FAILED transition (§4.8).
func (d *Dispatcher) send(ctx context.Context, n *Notification) {
	adapter, ok := d.channels[n.ChannelKind]
	if !ok {
		n.Status = NotificationFailed
		n.ErrorMessage = "no channel adapter registered for kind " + n.ChannelKind
		metrics.NotificationsByStatus.WithLabelValues(string(n.Status), n.ChannelKind).Inc()
		return
	}

	delivered, err := adapter.Send(ctx, n.Recipient, n.Content)
	now := d.clock()
	if err != nil {
		n.Status = NotificationFailed
		n.ErrorMessage = err.Error()
		metrics.NotificationsByStatus.WithLabelValues(string(n.Status), n.ChannelKind).Inc()
		return
	}

	n.Status = NotificationSent
	n.SentAt = &now
	if delivered {
		n.Status = NotificationDelivered
		n.DeliveredAt = &now
	}
	metrics.NotificationsByStatus.WithLabelValues(string(n.Status), n.ChannelKind).Inc()
}

func composeContent(a Alert) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"alertType": a.AlertType,
		"severity":  a.AlertSeverity,
		"message":   a.Message,
		"patientId": a.PatientID,
		"priority":  a.Priority,
	})
	if err != nil {
		return "", apperr.Validation("failed to compose notification content")
	}
	return string(body), nil
}
