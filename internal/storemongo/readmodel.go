package storemongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ews-platform/ews-consensus/internal/apperr"
	"github.com/ews-platform/ews-consensus/internal/readmodel"
)

// ReadModelStore implements readmodel.Store (C5's CQRS projection) over a
// single patient_read_models collection, one document per patientId.
type ReadModelStore struct {
	col *mongo.Collection
}

func NewReadModelStore(db *Database) *ReadModelStore {
	return &ReadModelStore{col: db.collection("patient_read_models")}
}

func (s *ReadModelStore) Get(ctx context.Context, patientID string) (readmodel.PatientReadModel, bool, error) {
	var m readmodel.PatientReadModel
	err := s.col.FindOne(ctx, bson.M{"patientId": patientID}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return readmodel.PatientReadModel{}, false, nil
	}
	if err != nil {
		return readmodel.PatientReadModel{}, false, apperr.Storage("failed to query patient read model", err)
	}
	return m, true, nil
}

func (s *ReadModelStore) Upsert(ctx context.Context, m readmodel.PatientReadModel) error {
	filter := bson.M{"patientId": m.PatientID}
	update := bson.M{"$set": m}
	if _, err := s.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return apperr.Storage("failed to upsert patient read model", err)
	}
	return nil
}

func (s *ReadModelStore) HighRisk(ctx context.Context, minScore int) ([]readmodel.PatientReadModel, error) {
	cursor, err := s.col.Find(ctx, bson.M{"currentScore": bson.M{"$gte": minScore}}, options.Find().SetSort(bson.M{"currentScore": -1}))
	if err != nil {
		return nil, apperr.Storage("failed to query high-risk patients", err)
	}
	defer cursor.Close(ctx)

	var out []readmodel.PatientReadModel
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Storage("failed to decode high-risk patients", err)
	}
	return out, nil
}
