package snapshot

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Redis stores the snapshot blob under a single key. Useful when the board
// runs on a host with a local redis but no writable disk.
type Redis struct {
	client *redis.Client
	key    string
	logger *log.Logger
}

// NewRedis creates a redis-backed store. An empty key falls back to the
// fixed namespace.
func NewRedis(client *redis.Client, key string, logger *log.Logger) *Redis {
	if client == nil {
		panic("snapshot.NewRedis: client is nil")
	}
	if key == "" {
		key = Namespace
	}
	return &Redis{client: client, key: key, logger: logger}
}

func (r *Redis) Load(ctx context.Context) (Document, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if err != redis.Nil && r.logger != nil {
			r.logger.WithError(err).Warn("snapshot unreadable, starting empty")
		}
		return Document{}, nil
	}
	var doc Document
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		// A corrupt blob will only be rewritten on the next mutation, so
		// drop it now rather than re-parse it on every cold start.
		_ = r.client.Del(ctx, r.key).Err()
		if r.logger != nil {
			r.logger.WithError(err).Warn("snapshot corrupt, starting empty")
		}
		return Document{}, nil
	}
	return doc, nil
}

func (r *Redis) Save(ctx context.Context, doc Document) error {
	data, err := sonic.ConfigStd.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
