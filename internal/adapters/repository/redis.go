package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/careerrank/internal/domain/model"
	"github.com/okian/careerrank/pkg/logger"
	"github.com/okian/careerrank/pkg/metrics"
)

const (
	backendRedis       = "redis"
	defaultRedisPrefix = "careerrank"
	redisPingTimeout   = 3 * time.Second
)

// RedisStore keeps candidates in Redis. Each candidate uses four keys:
//
//	{prefix}:cand:{id}:vec   list of little-endian float32 blobs, one per event
//	{prefix}:cand:{id}:orgs  list of organization names
//	{prefix}:cand:{id}:inst  list of institution strings
//	{prefix}:cand:{id}:meta  hash with id, url and event count; marks presence
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	logger logger.Logger
}

// RedisConfig holds the connection settings for DialRedis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DialRedis connects to a standalone Redis server and pings it.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// NewRedisStore creates a store over an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: defaultRedisPrefix,
		logger: logger.Get().Named("redis-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id, suffix string) string {
	return s.prefix + ":cand:" + id + ":" + suffix
}

// indexKey names the set of stored candidate ids.
func (s *RedisStore) indexKey() string { return s.prefix + ":candidates" }

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(backendRedis, op, float64(time.Since(start).Microseconds())/1000)
}

// loadList reads a list key, failing with ErrNotFound if the candidate has no meta hash.
func (s *RedisStore) loadList(ctx context.Context, op, id, suffix string) ([]string, error) {
	defer observe(op, time.Now())

	var (
		exists *redis.IntCmd
		values *redis.StringSliceCmd
	)
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		exists = p.Exists(ctx, s.key(id, "meta"))
		values = p.LRange(ctx, s.key(id, suffix), 0, -1)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis %s %s: %w", op, id, err)
	}
	if exists.Val() == 0 {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return values.Val(), nil
}

// LoadSequence implements Store.
func (s *RedisStore) LoadSequence(ctx context.Context, id string) (model.Sequence, error) {
	blobs, err := s.loadList(ctx, "load_sequence", id, "vec")
	if err != nil {
		return nil, err
	}
	seq := make(model.Sequence, len(blobs))
	for i, b := range blobs {
		v, err := model.DecodeVector([]byte(b))
		if err != nil {
			return nil, fmt.Errorf("candidate %s event %d: %w", id, i, err)
		}
		seq[i] = v
	}
	return seq, nil
}

// LoadOrganizations implements Store.
func (s *RedisStore) LoadOrganizations(ctx context.Context, id string) ([]string, error) {
	return s.loadList(ctx, "load_organizations", id, "orgs")
}

// LoadInstitutions implements Store.
func (s *RedisStore) LoadInstitutions(ctx context.Context, id string) ([]string, error) {
	return s.loadList(ctx, "load_institutions", id, "inst")
}

// Upsert implements Writer. All keys are replaced in one MULTI/EXEC.
func (s *RedisStore) Upsert(ctx context.Context, c model.Candidate) error {
	if err := validateCandidate(c); err != nil {
		return err
	}
	defer observe("upsert", time.Now())

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.key(c.ID, "vec"), s.key(c.ID, "orgs"), s.key(c.ID, "inst"), s.key(c.ID, "meta"))
		if len(c.Sequence) > 0 {
			blobs := make([]any, len(c.Sequence))
			for i, v := range c.Sequence {
				blobs[i] = model.EncodeVector(v)
			}
			p.RPush(ctx, s.key(c.ID, "vec"), blobs...)
		}
		if len(c.Organizations) > 0 {
			p.RPush(ctx, s.key(c.ID, "orgs"), toAny(c.Organizations)...)
		}
		if len(c.Institutions) > 0 {
			p.RPush(ctx, s.key(c.ID, "inst"), toAny(c.Institutions)...)
		}
		p.HSet(ctx, s.key(c.ID, "meta"),
			"id", c.ID,
			"url", c.URL,
			"events", strconv.Itoa(len(c.Sequence)),
		)
		p.SAdd(ctx, s.indexKey(), c.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis upsert %s: %w", c.ID, err)
	}
	s.logger.Debug(ctx, "candidate stored", logger.String("candidate_id", c.ID), logger.Int("events", len(c.Sequence)))
	return nil
}

// Count implements Writer. It reads the id set maintained by Upsert, so a
// candidate stored twice is counted once.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	defer observe("count", time.Now())
	n, err := s.client.SCard(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count: %w", err)
	}
	return int(n), nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, v := range ss {
		out[i] = v
	}
	return out
}
