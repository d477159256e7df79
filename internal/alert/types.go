// Package alert implements the Alert Prioritiser & Subscription Matcher
// (C7, §4.7) and the Notification Dispatcher & State Machine (C8, §4.8).
package alert

import (
	"time"

	"github.com/ews-platform/ews-consensus/internal/scoreevent"
)

// Type enumerates Alert.alertType (§6).
type Type string

const (
	EWSDataInconsistency Type = "EWS_DATA_INCONSISTENCY"
	EWSCritical          Type = "EWS_CRITICAL"
	EWSUrgent            Type = "EWS_URGENT"
	EWSElevated          Type = "EWS_ELEVATED"
	// SensorCritical/SensorWarning are supplemental sensor-level alert types
	// (§4.7's priority formula names them as an "add by type" term but the
	// classification table only drives EWS_* types from ScoreConsensus);
	// ClassifySensor (classify.go) is the only current emitter.
	SensorCritical Type = "SENSOR_CRITICAL"
	SensorWarning  Type = "SENSOR_WARNING"
)

// Severity enumerates Alert.alertSeverity (§3).
type Severity string

const (
	High   Severity = "HIGH"
	Medium Severity = "MEDIUM"
	Low    Severity = "LOW"
)

// Status enumerates the Alert lifecycle (§4.8).
type Status string

const (
	StatusNew          Status = "NEW"
	StatusAcknowledged Status = "ACKNOWLEDGED"
	StatusResolved     Status = "RESOLVED"
	StatusEscalated    Status = "ESCALATED"
)

// Alert is the priority-ordered work item (§3).
type Alert struct {
	AlertID       string               `json:"alertId" bson:"alertId"`
	PatientID     string               `json:"patientId" bson:"patientId"`
	SourceService string               `json:"sourceService" bson:"sourceService"`
	AlertType     Type                 `json:"alertType" bson:"alertType"`
	AlertSeverity Severity             `json:"alertSeverity" bson:"alertSeverity"`
	Message       string               `json:"message" bson:"message"`
	ObservedAt    time.Time            `json:"observedAt" bson:"observedAt"`
	ScoreData     *scoreevent.Consensus `json:"scoreData,omitempty" bson:"scoreData,omitempty"`
	Status        Status               `json:"status" bson:"status"`
	Priority      int                  `json:"priority" bson:"priority"`
	AckedBy       string               `json:"ackedBy,omitempty" bson:"ackedBy,omitempty"`
	AckedAt       *time.Time           `json:"ackedAt,omitempty" bson:"ackedAt,omitempty"`
	ResolvedBy    string               `json:"resolvedBy,omitempty" bson:"resolvedBy,omitempty"`
	ResolvedAt    *time.Time           `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	Resolution    string               `json:"resolution,omitempty" bson:"resolution,omitempty"`
	EscalatedAt   *time.Time           `json:"escalatedAt,omitempty" bson:"escalatedAt,omitempty"`
	EscalateReason string              `json:"escalateReason,omitempty" bson:"escalateReason,omitempty"`
	NotificationIDs []string           `json:"notificationIds,omitempty" bson:"notificationIds,omitempty"`
}

// SubscriberType enumerates Subscription.subscriberType (§3).
type SubscriberType string

const (
	SubscriberStaff            SubscriberType = "STAFF"
	SubscriberDepartment       SubscriberType = "DEPARTMENT"
	SubscriberPatientRelative  SubscriberType = "PATIENT_RELATIVE"
)

// Channel is one delivery channel a subscription accepts (§3).
type Channel struct {
	Kind    string `json:"kind" bson:"kind"`
	Contact string `json:"contact" bson:"contact"`
	Enabled bool   `json:"enabled" bson:"enabled"`
}

// Subscription is a routing rule (§3). Invariant: at least one channel.
type Subscription struct {
	SubscriptionID string         `json:"subscriptionId" bson:"subscriptionId"`
	SubscriberType SubscriberType `json:"subscriberType" bson:"subscriberType"`
	SubscriberID   string         `json:"subscriberId" bson:"subscriberId"`
	PatientID      *string        `json:"patientId,omitempty" bson:"patientId,omitempty"`
	AlertTypes     []Type         `json:"alertTypes,omitempty" bson:"alertTypes,omitempty"`
	MinSeverity    Severity       `json:"minSeverity" bson:"minSeverity"`
	Channels       []Channel      `json:"channels" bson:"channels"`
	Active         bool           `json:"active" bson:"active"`
}

// NotificationStatus enumerates the Notification lifecycle (§4.8).
type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "PENDING"
	NotificationSent      NotificationStatus = "SENT"
	NotificationDelivered NotificationStatus = "DELIVERED"
	NotificationFailed    NotificationStatus = "FAILED"
)

// Notification is a delivery attempt record (§3).
type Notification struct {
	NotificationID string             `json:"notificationId" bson:"notificationId"`
	AlertID        string             `json:"alertId" bson:"alertId"`
	PatientID      string             `json:"patientId" bson:"patientId"`
	ChannelKind    string             `json:"channelKind" bson:"channelKind"`
	Recipient      string             `json:"recipient" bson:"recipient"`
	Content        string             `json:"content" bson:"content"`
	Status         NotificationStatus `json:"status" bson:"status"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	SentAt         *time.Time         `json:"sentAt,omitempty" bson:"sentAt,omitempty"`
	DeliveredAt    *time.Time         `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	ErrorMessage   string             `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
}
