package httpx

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ews-platform/ews-consensus/internal/alert"
	"github.com/ews-platform/ews-consensus/internal/apperr"
)

// AlertAPI wires the Alert service's command/query API (§6: POST /api/alerts,
// GET /api/alerts, PUT .../acknowledge|resolve|escalate, plus CRUD on
// /api/subscriptions and list/query/resend on /api/notifications).
type AlertAPI struct {
	Dispatcher    *alert.Dispatcher
	Alerts        alert.AlertStore
	Subscriptions alert.SubscriptionStore
	Notifications alert.NotificationStore
	Now           func() time.Time
}

func (a *AlertAPI) Mount(r chi.Router) {
	r.Post("/api/alerts", a.postAlert)
	r.Get("/api/alerts", a.listAlerts)
	r.Put("/api/alerts/{alertId}/acknowledge", a.acknowledge)
	r.Put("/api/alerts/{alertId}/resolve", a.resolve)
	r.Put("/api/alerts/{alertId}/escalate", a.escalate)

	r.Post("/api/subscriptions", a.createSubscription)
	r.Get("/api/subscriptions", a.listSubscriptions)
	r.Get("/api/subscriptions/{subscriptionId}", a.getSubscription)
	r.Put("/api/subscriptions/{subscriptionId}", a.updateSubscription)
	r.Delete("/api/subscriptions/{subscriptionId}", a.deleteSubscription)

	r.Get("/api/notifications", a.listNotifications)
	r.Get("/api/notifications/{alertId}", a.notificationsByAlert)
	r.Post("/api/notifications/{notificationId}/resend", a.resendNotification)
}

type raiseAlertRequest struct {
	PatientID     string         `json:"patientId"`
	SourceService string         `json:"sourceService"`
	AlertType     alert.Type     `json:"alertType"`
	AlertSeverity alert.Severity `json:"alertSeverity"`
	Message       string         `json:"message"`
	Timestamp     *time.Time     `json:"timestamp,omitempty"`
}

func validSeverity(s alert.Severity) bool {
	switch s {
	case alert.High, alert.Medium, alert.Low:
		return true
	default:
		return false
	}
}

func (a *AlertAPI) postAlert(w http.ResponseWriter, r *http.Request) {
	var req raiseAlertRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.PatientID == "" || req.SourceService == "" || req.AlertType == "" || req.Message == "" {
		WriteError(w, apperr.Validation("patientId, sourceService, alertType and message are required"))
		return
	}
	if !validSeverity(req.AlertSeverity) {
		WriteError(w, apperr.Validation("alertSeverity must be one of HIGH, MEDIUM, LOW"))
		return
	}

	observedAt := a.now()
	if req.Timestamp != nil {
		observedAt = *req.Timestamp
	}

	raised, err := a.Dispatcher.Raise(r.Context(), alert.Alert{
		PatientID:     req.PatientID,
		SourceService: req.SourceService,
		AlertType:     req.AlertType,
		AlertSeverity: req.AlertSeverity,
		Message:       req.Message,
		ObservedAt:    observedAt,
		Status:        alert.StatusNew,
		Priority:      alert.Priority(req.AlertSeverity, req.AlertType),
	})
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, raised)
}

func (a *AlertAPI) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *AlertAPI) listAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := alert.AlertFilter{
		PatientID: q.Get("patientId"),
		Status:    alert.Status(q.Get("status")),
		Severity:  alert.Severity(q.Get("severity")),
	}
	if raw := q.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.Limit = parsed
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.Offset = parsed
		}
	}

	alerts, err := a.Alerts.List(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, alerts)
}

func (a *AlertAPI) loadAlert(w http.ResponseWriter, r *http.Request) (alert.Alert, bool) {
	alertID := chi.URLParam(r, "alertId")
	found, ok, err := a.Alerts.Get(r.Context(), alertID)
	if err != nil {
		WriteError(w, err)
		return alert.Alert{}, false
	}
	if !ok {
		WriteError(w, apperr.NotFound("alert not found"))
		return alert.Alert{}, false
	}
	return found, true
}

type acknowledgeRequest struct {
	UserID string `json:"userId"`
}

func (a *AlertAPI) acknowledge(w http.ResponseWriter, r *http.Request) {
	existing, ok := a.loadAlert(w, r)
	if !ok {
		return
	}
	var req acknowledgeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := alert.Acknowledge(&existing, req.UserID, a.now); err != nil {
		WriteError(w, err)
		return
	}
	if err := a.Alerts.Save(r.Context(), existing); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, existing)
}

type resolveRequest struct {
	UserID     string `json:"userId"`
	Resolution string `json:"resolution,omitempty"`
}

func (a *AlertAPI) resolve(w http.ResponseWriter, r *http.Request) {
	existing, ok := a.loadAlert(w, r)
	if !ok {
		return
	}
	var req resolveRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := alert.Resolve(&existing, req.UserID, req.Resolution, a.now); err != nil {
		WriteError(w, err)
		return
	}
	if err := a.Alerts.Save(r.Context(), existing); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, existing)
}

type escalateRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (a *AlertAPI) escalate(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertId")
	var req escalateRequest
	_ = DecodeJSON(r, &req) // body is optional; ignore decode failure on empty body

	escalated, err := a.Dispatcher.Escalate(r.Context(), alertID, req.Reason)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, escalated)
}

func (a *AlertAPI) createSubscription(w http.ResponseWriter, r *http.Request) {
	var sub alert.Subscription
	if err := DecodeJSON(r, &sub); err != nil {
		WriteError(w, err)
		return
	}
	if len(sub.Channels) == 0 {
		WriteError(w, apperr.Validation("subscription must declare at least one channel"))
		return
	}
	if sub.SubscriptionID == "" {
		sub.SubscriptionID = uuid.NewString()
	}
	if err := a.Subscriptions.Save(r.Context(), sub); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sub)
}

func (a *AlertAPI) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := a.Subscriptions.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, subs)
}

func (a *AlertAPI) getSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "subscriptionId")
	sub, found, err := a.Subscriptions.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !found {
		WriteError(w, apperr.NotFound("subscription not found"))
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

func (a *AlertAPI) updateSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "subscriptionId")
	if _, found, err := a.Subscriptions.Get(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	} else if !found {
		WriteError(w, apperr.NotFound("subscription not found"))
		return
	}

	var sub alert.Subscription
	if err := DecodeJSON(r, &sub); err != nil {
		WriteError(w, err)
		return
	}
	sub.SubscriptionID = id
	if err := a.Subscriptions.Save(r.Context(), sub); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

func (a *AlertAPI) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "subscriptionId")
	if err := a.Subscriptions.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *AlertAPI) listNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset := 0, 0
	if raw := q.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	if raw := q.Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			offset = parsed
		}
	}
	notifications, err := a.Notifications.List(r.Context(), limit, offset)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, notifications)
}

func (a *AlertAPI) notificationsByAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertId")
	notifications, err := a.Notifications.ListByAlert(r.Context(), alertID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, notifications)
}

func (a *AlertAPI) resendNotification(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationId")
	n, err := a.Dispatcher.Resend(r.Context(), notificationID)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}
