package storemongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ews-platform/ews-consensus/internal/alert"
	"github.com/ews-platform/ews-consensus/internal/apperr"
)

// AlertStore implements alert.AlertStore over an alerts collection.
type AlertStore struct {
	col *mongo.Collection
}

func NewAlertStore(db *Database) *AlertStore {
	return &AlertStore{col: db.collection("alerts")}
}

func (s *AlertStore) Save(ctx context.Context, a alert.Alert) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"alertId": a.AlertID}, bson.M{"$set": a}, options.Update().SetUpsert(true))
	if err != nil {
		return apperr.Storage("failed to upsert alert", err)
	}
	return nil
}

func (s *AlertStore) Get(ctx context.Context, alertID string) (alert.Alert, bool, error) {
	var a alert.Alert
	err := s.col.FindOne(ctx, bson.M{"alertId": alertID}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return alert.Alert{}, false, nil
	}
	if err != nil {
		return alert.Alert{}, false, apperr.Storage("failed to query alert", err)
	}
	return a, true, nil
}

func (s *AlertStore) List(ctx context.Context, filter alert.AlertFilter) ([]alert.Alert, error) {
	query := bson.M{}
	if filter.PatientID != "" {
		query["patientId"] = filter.PatientID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Severity != "" {
		query["alertSeverity"] = filter.Severity
	}

	opts := options.Find().SetSort(bson.M{"observedAt": -1})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := s.col.Find(ctx, query, opts)
	if err != nil {
		return nil, apperr.Storage("failed to query alerts", err)
	}
	defer cursor.Close(ctx)

	var out []alert.Alert
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Storage("failed to decode alerts", err)
	}
	return out, nil
}

// SubscriptionStore implements alert.SubscriptionStore over a
// subscriptions collection.
type SubscriptionStore struct {
	col *mongo.Collection
}

func NewSubscriptionStore(db *Database) *SubscriptionStore {
	return &SubscriptionStore{col: db.collection("subscriptions")}
}

func (s *SubscriptionStore) Save(ctx context.Context, sub alert.Subscription) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"subscriptionId": sub.SubscriptionID}, bson.M{"$set": sub}, options.Update().SetUpsert(true))
	if err != nil {
		return apperr.Storage("failed to upsert subscription", err)
	}
	return nil
}

func (s *SubscriptionStore) Get(ctx context.Context, subscriptionID string) (alert.Subscription, bool, error) {
	var sub alert.Subscription
	err := s.col.FindOne(ctx, bson.M{"subscriptionId": subscriptionID}).Decode(&sub)
	if err == mongo.ErrNoDocuments {
		return alert.Subscription{}, false, nil
	}
	if err != nil {
		return alert.Subscription{}, false, apperr.Storage("failed to query subscription", err)
	}
	return sub, true, nil
}

func (s *SubscriptionStore) Delete(ctx context.Context, subscriptionID string) error {
	if _, err := s.col.DeleteOne(ctx, bson.M{"subscriptionId": subscriptionID}); err != nil {
		return apperr.Storage("failed to delete subscription", err)
	}
	return nil
}

func (s *SubscriptionStore) List(ctx context.Context) ([]alert.Subscription, error) {
	return s.queryAll(ctx, bson.M{})
}

func (s *SubscriptionStore) ActiveMatching(ctx context.Context) ([]alert.Subscription, error) {
	return s.queryAll(ctx, bson.M{"active": true})
}

func (s *SubscriptionStore) queryAll(ctx context.Context, filter bson.M) ([]alert.Subscription, error) {
	cursor, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, apperr.Storage("failed to query subscriptions", err)
	}
	defer cursor.Close(ctx)

	var out []alert.Subscription
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Storage("failed to decode subscriptions", err)
	}
	return out, nil
}

// NotificationStore implements alert.NotificationStore over a
// notifications collection.
type NotificationStore struct {
	col *mongo.Collection
}

func NewNotificationStore(db *Database) *NotificationStore {
	return &NotificationStore{col: db.collection("notifications")}
}

func (s *NotificationStore) Save(ctx context.Context, n alert.Notification) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"notificationId": n.NotificationID}, bson.M{"$set": n}, options.Update().SetUpsert(true))
	if err != nil {
		return apperr.Storage("failed to upsert notification", err)
	}
	return nil
}

func (s *NotificationStore) Get(ctx context.Context, notificationID string) (alert.Notification, bool, error) {
	var n alert.Notification
	err := s.col.FindOne(ctx, bson.M{"notificationId": notificationID}).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return alert.Notification{}, false, nil
	}
	if err != nil {
		return alert.Notification{}, false, apperr.Storage("failed to query notification", err)
	}
	return n, true, nil
}

func (s *NotificationStore) ListByAlert(ctx context.Context, alertID string) ([]alert.Notification, error) {
	cursor, err := s.col.Find(ctx, bson.M{"alertId": alertID})
	if err != nil {
		return nil, apperr.Storage("failed to query notifications by alert", err)
	}
	defer cursor.Close(ctx)

	var out []alert.Notification
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Storage("failed to decode notifications", err)
	}
	return out, nil
}

func (s *NotificationStore) List(ctx context.Context, limit, offset int) ([]alert.Notification, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}

	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Storage("failed to query notifications", err)
	}
	defer cursor.Close(ctx)

	var out []alert.Notification
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Storage("failed to decode notifications", err)
	}
	return out, nil
}
