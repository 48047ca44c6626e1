package brief

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matheuskafuri/newsdesk/internal/cache"
)

const metaKey = "brief"

func errDecode(err error) error {
	return fmt.Errorf("decoding brief entry: %w", err)
}

// SQLiteStore keeps the entry in the cache meta table so it survives
// between CLI runs.
type SQLiteStore struct {
	db *cache.Cache
}

func NewSQLiteStore(db *cache.Cache) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load(_ context.Context) (Entry, error) {
	raw, err := s.db.GetMeta(metaKey)
	if errors.Is(err, cache.ErrNotFound) {
		return Entry{}, ErrNoBrief
	}
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, errDecode(err)
	}
	return e, nil
}

func (s *SQLiteStore) Save(_ context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.SetMeta(metaKey, string(raw))
}

// RedisStore shares the entry between server replicas.
type RedisStore struct {
	client *redis.Client
	key    string
	// Retention bounds how long a stale entry is kept as a fallback.
	retention time.Duration
}

// NewRedisStore connects to the redis instance at url.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(opts)), nil
}

func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: "newsdesk:brief", retention: 24 * time.Hour}
}

func (r *RedisStore) Load(ctx context.Context) (Entry, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNoBrief
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading brief from redis: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, errDecode(err)
	}
	return e, nil
}

func (r *RedisStore) Save(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, raw, r.retention).Err(); err != nil {
		return fmt.Errorf("writing brief to redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
