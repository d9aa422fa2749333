package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTransactor runs a unit of work in a multi-document transaction.
// Repositories called with the callback's context join the transaction.
type MongoTransactor struct {
	client *mongo.Client
}

// NewMongoTransactor creates a transactor on the given client (requires a replica set)
func NewMongoTransactor(client *mongo.Client) *MongoTransactor {
	return &MongoTransactor{client: client}
}

// WithTransaction runs fn in a transaction, retrying it on transient errors
func (t *MongoTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// PassthroughTransactor runs the unit of work without a transaction, for standalone servers
type PassthroughTransactor struct{}

// WithTransaction calls fn with ctx
func (PassthroughTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
