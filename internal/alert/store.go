package alert

import "context"

// AlertFilter narrows AlertStore.List (GET /api/alerts, §6).
type AlertFilter struct {
	PatientID string
	Status    Status
	Severity  Severity
	Limit     int
	Offset    int
}

type AlertStore interface {
	Save(ctx context.Context, a Alert) error
	Get(ctx context.Context, alertID string) (Alert, bool, error)
	List(ctx context.Context, filter AlertFilter) ([]Alert, error)
}

type SubscriptionStore interface {
	Save(ctx context.Context, s Subscription) error
	Get(ctx context.Context, subscriptionID string) (Subscription, bool, error)
	Delete(ctx context.Context, subscriptionID string) error
	List(ctx context.Context) ([]Subscription, error)
	// ActiveMatching returns every active subscription a caller may filter
	// with Matches/EscalationMatches; filtering in Go keeps the matching
	// predicate in one place instead of duplicated as a store query.
	ActiveMatching(ctx context.Context) ([]Subscription, error)
}

type NotificationStore interface {
	Save(ctx context.Context, n Notification) error
	Get(ctx context.Context, notificationID string) (Notification, bool, error)
	ListByAlert(ctx context.Context, alertID string) ([]Notification, error)
	List(ctx context.Context, limit, offset int) ([]Notification, error)
}
