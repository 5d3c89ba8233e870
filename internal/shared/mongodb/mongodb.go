package mongodb

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoClient wraps the MongoDB client
type MongoClient struct {
	client   *mongo.Client
	database *mongo.Database
}

// validateMongoURI performs basic validation on MongoDB URI to prevent injection attacks
func validateMongoURI(uri string) error {
	if uri == "" {
		return errors.New("mongodb URI cannot be empty")
	}

	parsedURI, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("invalid mongodb URI format: %w", err)
	}

	scheme := parsedURI.Scheme
	if scheme != "mongodb" && scheme != "mongodb+srv" {
		return fmt.Errorf("invalid mongodb URI scheme: %s (must be mongodb or mongodb+srv)", scheme)
	}

	if parsedURI.Host == "" {
		return errors.New("mongodb URI must contain a host")
	}

	return nil
}

// NewMongoClient creates a new MongoDB client with connection pooling configured
func NewMongoClient(uri, database string) (*MongoClient, error) {
	if err := validateMongoURI(uri); err != nil {
		return nil, fmt.Errorf("mongodb URI validation failed: %w", err)
	}

	if database == "" {
		return nil, errors.New("database name cannot be empty")
	}
	if strings.ContainsAny(database, "/\\. \"$*<>:|?") {
		return nil, errors.New("database name contains invalid characters")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnIdleTime(30 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	if strings.Contains(uri, "mongodb+srv://") || strings.Contains(uri, "tls=true") || strings.Contains(uri, "ssl=true") {
		tlsConfig := &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		clientOptions.SetTLSConfig(tlsConfig)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoClient{
		client:   client,
		database: client.Database(database),
	}, nil
}

// Collection returns a collection handle
func (c *MongoClient) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}

// Disconnect closes the MongoDB connection
func (c *MongoClient) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Database returns the database handle
func (c *MongoClient) Database() *mongo.Database {
	return c.database
}

// CreateIndexes creates indexes for a collection
func (c *MongoClient) CreateIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	collection := c.database.Collection(collectionName)
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// WithTransaction runs fn inside a MongoDB session transaction. The
// callback receives a session-bound context and must use it for every
// store operation that belongs to the transaction. Write conflicts abort
// the transaction and surface to the caller unchanged, so the caller can
// classify them as retryable.
func (c *MongoClient) WithTransaction(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	session, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongodb session: %w", err)
	}
	defer session.EndSession(ctx)

	txnCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err = session.WithTransaction(txnCtx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// IsTransientError reports whether err is a transient mongo failure the
// caller may retry (network blips, timeouts, elections).
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError") || cmdErr.HasErrorLabel("UnknownTransactionCommitResult")
	}
	return false
}

// IsWriteConflict reports whether err is a write conflict raised inside a
// transaction by a concurrent writer on the same document.
func IsWriteConflict(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// 112 is WriteConflict
		return cmdErr.Code == 112 || cmdErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}
