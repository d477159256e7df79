package storemongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ews-platform/ews-consensus/internal/apperr"
	"github.com/ews-platform/ews-consensus/internal/sensor"
)

// SensorStore implements sensor.Store (C2's persistence contract) over two
// collections: sensor_readings and sensor_consensus.
type SensorStore struct {
	readings  *mongo.Collection
	consensus *mongo.Collection
}

func NewSensorStore(db *Database) *SensorStore {
	return &SensorStore{
		readings:  db.collection("sensor_readings"),
		consensus: db.collection("sensor_consensus"),
	}
}

func (s *SensorStore) SaveReading(ctx context.Context, r sensor.Reading) error {
	if _, err := s.readings.InsertOne(ctx, r); err != nil {
		return apperr.Storage("failed to insert sensor reading", err)
	}
	return nil
}

func (s *SensorStore) ReadingsInWindow(ctx context.Context, patientID string, sensorType sensor.Type, from, to time.Time) ([]sensor.Reading, error) {
	filter := bson.M{
		"patientId":  patientID,
		"sensorType": sensorType,
		"observedAt": bson.M{"$gte": from, "$lte": to},
	}
	cursor, err := s.readings.Find(ctx, filter)
	if err != nil {
		return nil, apperr.Storage("failed to query sensor readings", err)
	}
	defer cursor.Close(ctx)

	var out []sensor.Reading
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Storage("failed to decode sensor readings", err)
	}
	return out, nil
}

// SaveConsensus appends a consensus record. Consensus is history, not
// current-state, so every re-evaluation is inserted rather than overwriting
// the previous one — GET /api/data/patient/{patientId} (§6) queries this
// history by time range.
func (s *SensorStore) SaveConsensus(ctx context.Context, c sensor.Consensus) error {
	if _, err := s.consensus.InsertOne(ctx, c); err != nil {
		return apperr.Storage("failed to insert sensor consensus", err)
	}
	return nil
}

func (s *SensorStore) LatestValidConsensusPerType(ctx context.Context, patientID string) (map[sensor.Type]sensor.Consensus, error) {
	filter := bson.M{"patientId": patientID, "valid": true}
	cursor, err := s.consensus.Find(ctx, filter)
	if err != nil {
		return nil, apperr.Storage("failed to query latest sensor consensus", err)
	}
	defer cursor.Close(ctx)

	out := map[sensor.Type]sensor.Consensus{}
	var all []sensor.Consensus
	if err := cursor.All(ctx, &all); err != nil {
		return nil, apperr.Storage("failed to decode sensor consensus", err)
	}
	for _, c := range all {
		if existing, ok := out[c.SensorType]; !ok || c.ConsensusAt.After(existing.ConsensusAt) {
			out[c.SensorType] = c
		}
	}
	return out, nil
}

func (s *SensorStore) ConsensusForPatient(ctx context.Context, patientID string, from, to *time.Time, sensorType *sensor.Type) ([]sensor.Consensus, error) {
	filter := bson.M{"patientId": patientID}
	if sensorType != nil {
		filter["sensorType"] = *sensorType
	}
	if from != nil || to != nil {
		ts := bson.M{}
		if from != nil {
			ts["$gte"] = *from
		}
		if to != nil {
			ts["$lte"] = *to
		}
		filter["consensusAt"] = ts
	}

	cursor, err := s.consensus.Find(ctx, filter, options.Find().SetSort(bson.M{"consensusAt": 1}))
	if err != nil {
		return nil, apperr.Storage("failed to query patient sensor consensus", err)
	}
	defer cursor.Close(ctx)

	var out []sensor.Consensus
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Storage("failed to decode patient sensor consensus", err)
	}
	return out, nil
}
