package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/noah-isme/olympiad-admin-api/pkg/config"
)

// Collection names shared by the document stores.
const (
	StudentsCollection   = "students"
	SalesUsersCollection = "salesusers"
	AuditLogsCollection  = "auditlogs"
)

// NewMongo connects to the document store and verifies the primary is reachable.
func NewMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureMongoIndexes creates the unique email index each account collection
// relies on to arbitrate concurrent inserts.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for _, name := range []string{StudentsCollection, SalesUsersCollection} {
		_, err := db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		})
		if err != nil {
			return fmt.Errorf("create %s email index: %w", name, err)
		}
	}
	_, err := db.Collection(StudentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "rollNo", Value: 1}, {Key: "schoolId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create students roll index: %w", err)
	}
	return nil
}
