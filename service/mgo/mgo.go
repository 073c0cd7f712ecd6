package mgo

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Config struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	Username    string
	Password    string
}

var (
	mu     sync.RWMutex
	client *mongo.Client
	dbName string
)

// Init connects to MongoDB and verifies the connection with a ping.
func Init(ctx context.Context, cfg *Config) error {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cli, err := mongo.Connect(cctx, opts)
	if err != nil {
		return errors.Wrap(err, "mongo connect")
	}
	if err := cli.Ping(cctx, readpref.Primary()); err != nil {
		return errors.Wrap(err, "mongo ping")
	}

	mu.Lock()
	client = cli
	dbName = cfg.Database
	mu.Unlock()
	return nil
}

// GetDB returns the configured database handle.
func GetDB() *mongo.Database {
	mu.RLock()
	defer mu.RUnlock()
	if client == nil {
		panic("mgo: not initialized, call Init first")
	}
	return client.Database(dbName)
}

// Close disconnects the client.
func Close(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()
	if client == nil {
		return nil
	}
	err := client.Disconnect(ctx)
	client = nil
	return err
}
