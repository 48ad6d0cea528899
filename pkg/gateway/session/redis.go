package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Acsight/voiceter-website-sub002/pkg/core"
)

const (
	liveKeyPrefix    = "voiceter:session:"
	archiveKeyPrefix = "voiceter:archive:"
	activeSetKey     = "voiceter:sessions:active"
)

// DefaultSnapshotTTL is how long audit snapshots are retained.
const DefaultSnapshotTTL = 90 * 24 * time.Hour

// RedisStore persists sessions in a Redis-compatible key-value store. Live
// records carry a short activity TTL; audit snapshots a long one.
type RedisStore struct {
	client      *redis.Client
	liveTTL     time.Duration
	snapshotTTL time.Duration
}

// NewRedisStore wraps an existing client. Zero TTLs take defaults.
func NewRedisStore(client *redis.Client, liveTTL, snapshotTTL time.Duration) *RedisStore {
	if liveTTL <= 0 {
		liveTTL = 24 * time.Hour
	}
	if snapshotTTL <= 0 {
		snapshotTTL = DefaultSnapshotTTL
	}
	return &RedisStore{client: client, liveTTL: liveTTL, snapshotTTL: snapshotTTL}
}

// Ping verifies connectivity at startup.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return core.Wrap(core.ErrStoreConnection, "redis ping", err)
	}
	return nil
}

func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return core.New(core.ErrStoreWrite, "session id is required")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return core.Wrap(core.ErrStoreWrite, "marshal session", err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, liveKeyPrefix+s.ID, data, r.liveTTL)
	pipe.SAdd(ctx, activeSetKey, s.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return core.Wrap(core.ErrStoreWrite, "save session", err).WithSession(s.ID)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, liveKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.Newf(core.ErrSessionNotFound, "session %q not found", id)
	}
	if err != nil {
		return nil, core.Wrap(core.ErrStoreRead, "read session", err).WithSession(id)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, core.Wrap(core.ErrStoreRead, "unmarshal session", err).WithSession(id)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, liveKeyPrefix+id)
	pipe.SRem(ctx, activeSetKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return core.Wrap(core.ErrStoreWrite, "delete session", err).WithSession(id)
	}
	return nil
}

func (r *RedisStore) SaveSnapshot(ctx context.Context, rec *Record) error {
	if rec == nil || rec.SessionID == "" {
		return core.New(core.ErrStoreWrite, "snapshot session id is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return core.Wrap(core.ErrStoreWrite, "marshal snapshot", err)
	}
	if err := r.client.Set(ctx, archiveKeyPrefix+rec.SessionID, data, r.snapshotTTL).Err(); err != nil {
		return core.Wrap(core.ErrStoreWrite, "save snapshot", err).WithSession(rec.SessionID)
	}
	return nil
}

func (r *RedisStore) ActiveIDs(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, core.Wrap(core.ErrStoreRead, "list active sessions", err)
	}
	return ids, nil
}
