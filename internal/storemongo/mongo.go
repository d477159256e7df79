// Package storemongo adapts the core's storage interfaces (sensor.Store,
// scoreevent.EventStore, readmodel.Store, alert.*Store) onto MongoDB via
// go.mongodb.org/mongo-driver, the document store named in §1/§6.
package storemongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ews-platform/ews-consensus/internal/apperr"
)

// Database wraps the driver's *mongo.Database with the collections the core
// depends on, constructed once at service startup and closed on shutdown.
type Database struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB with a startup deadline: a bounded connect phase
// during main() rather than an indefinitely-lazy first use.
func Connect(ctx context.Context, uri, dbName string) (*Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperr.Storage("failed to connect to mongodb", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, apperr.Storage("failed to ping mongodb", err)
	}
	return &Database{client: client, db: client.Database(dbName)}, nil
}

func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *Database) collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}
