package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// defaultTimeout bounds the initial dial and every repository operation that
// is not already running under a caller deadline.
const defaultTimeout = 10 * time.Second

// Config holds the settings for the catalog database connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect dials the server, pings it to catch bad addresses at startup, and
// returns the client together with the selected database handle.
//
// The user and category repositories open change streams, which need the
// server running as a replica set.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("marketplace")

	client, err := mongo.Connect(dialCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(dialCtx, nil); err != nil {
		_ = client.Disconnect(dialCtx)
		return nil, nil, fmt.Errorf("mongo ping %s: %w", cfg.URI, err)
	}

	return client, client.Database(cfg.Database), nil
}
