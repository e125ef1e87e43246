package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/credential-service/internal/config"
)

// CloseFunc releases whatever connection a store holds.
type CloseFunc func(ctx context.Context) error

func noopClose(context.Context) error { return nil }

// Open builds the UserStore selected by cfg.DBType, prepares its schema or
// indexes and returns it with its close function.
func Open(ctx context.Context, cfg *config.Config) (UserStore, CloseFunc, error) {
	switch cfg.DBType {
	case config.BackendMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("mongo ping: %w", err)
		}
		s := NewMongoStore(client.Database(cfg.MongoDB))
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return s, client.Disconnect, nil

	case config.BackendPostgres:
		s, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	case config.BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func(context.Context) error { return s.Close() }, nil

	case config.BackendRedis:
		rdb, err := NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("redis connect: %w", err)
		}
		s := NewRedisStore(rdb)
		return s, func(context.Context) error { return s.Close() }, nil

	case config.BackendMemory:
		return NewMemoryStore(), noopClose, nil

	default:
		return nil, nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DBType)
	}
}
