package storemongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ews-platform/ews-consensus/internal/apperr"
	"github.com/ews-platform/ews-consensus/internal/scoreevent"
)

// EventStore implements scoreevent.EventStore (C5's append-only store) over
// the score_events and score_consensus collections.
type EventStore struct {
	events    *mongo.Collection
	consensus *mongo.Collection
}

func NewEventStore(db *Database) *EventStore {
	return &EventStore{
		events:    db.collection("score_events"),
		consensus: db.collection("score_consensus"),
	}
}

func (s *EventStore) SaveEvent(ctx context.Context, e scoreevent.Event) error {
	if _, err := s.events.InsertOne(ctx, e); err != nil {
		return apperr.Storage("failed to insert score event", err)
	}
	return nil
}

func (s *EventStore) EventsInWindow(ctx context.Context, patientID string, from, to time.Time) ([]scoreevent.Event, error) {
	filter := bson.M{"patientId": patientID, "observedAt": bson.M{"$gte": from, "$lte": to}}
	cursor, err := s.events.Find(ctx, filter)
	if err != nil {
		return nil, apperr.Storage("failed to query score events", err)
	}
	defer cursor.Close(ctx)

	var out []scoreevent.Event
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Storage("failed to decode score events", err)
	}
	return out, nil
}

func (s *EventStore) SaveConsensus(ctx context.Context, c scoreevent.Consensus) error {
	if _, err := s.consensus.InsertOne(ctx, c); err != nil {
		return apperr.Storage("failed to insert score consensus", err)
	}
	return nil
}

func (s *EventStore) ConsensusByID(ctx context.Context, consensusID string) (scoreevent.Consensus, bool, error) {
	var c scoreevent.Consensus
	err := s.consensus.FindOne(ctx, bson.M{"consensusId": consensusID}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return scoreevent.Consensus{}, false, nil
	}
	if err != nil {
		return scoreevent.Consensus{}, false, apperr.Storage("failed to query score consensus", err)
	}
	return c, true, nil
}

func (s *EventStore) QueryEvents(ctx context.Context, filter scoreevent.EventFilter) ([]scoreevent.Event, error) {
	query := bson.M{}
	if filter.PatientID != "" {
		query["patientId"] = filter.PatientID
	}
	if filter.Kind != "" {
		query["kind"] = filter.Kind
	}
	if filter.From != nil || filter.To != nil {
		ts := bson.M{}
		if filter.From != nil {
			ts["$gte"] = *filter.From
		}
		if filter.To != nil {
			ts["$lte"] = *filter.To
		}
		query["observedAt"] = ts
	}

	opts := options.Find().SetSort(bson.M{"observedAt": -1})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.events.Find(ctx, query, opts)
	if err != nil {
		return nil, apperr.Storage("failed to query events", err)
	}
	defer cursor.Close(ctx)

	var out []scoreevent.Event
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Storage("failed to decode events", err)
	}
	return out, nil
}
