package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "waterportal"

// RedisStorage keeps records as JSON values in Redis hashes keyed by ID.
// Service request IDs come from an INCR counter so they stay sequential
// across instances.
type RedisStorage struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStorage wraps an existing client. An empty prefix uses "waterportal".
func NewRedisStorage(rdb *redis.Client, prefix string) *RedisStorage {
	prefix = strings.Trim(prefix, ":")
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStorage{rdb: rdb, prefix: prefix}
}

// OpenRedis connects using a redis:// or rediss:// URL, or a bare host:port.
func OpenRedis(ctx context.Context, dsn string) (*RedisStorage, error) {
	opts, err := redisOptions(dsn)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStorage(rdb, ""), nil
}

func redisOptions(dsn string) (*redis.Options, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("redis addr or url is required")
	}
	if strings.HasPrefix(dsn, "redis://") || strings.HasPrefix(dsn, "rediss://") {
		opts, err := redis.ParseURL(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	if strings.Contains(dsn, "://") {
		return nil, fmt.Errorf("unsupported redis scheme in %q (expected redis:// or rediss://)", dsn)
	}
	return &redis.Options{Addr: dsn}, nil
}

func (s *RedisStorage) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *RedisStorage) Close() error { return s.rdb.Close() }

func (s *RedisStorage) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *RedisStorage) CreateServiceRequest(ctx context.Context, req *ServiceRequest) error {
	id, err := s.rdb.Incr(ctx, s.key("service_requests", "seq")).Result()
	if err != nil {
		return fmt.Errorf("allocate service request id: %w", err)
	}
	req.ID = id
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.key("service_requests"), strconv.FormatInt(id, 10), payload).Err()
}

func (s *RedisStorage) ListServiceRequests(ctx context.Context) ([]ServiceRequest, error) {
	vals, err := s.rdb.HVals(ctx, s.key("service_requests")).Result()
	if err != nil {
		return nil, err
	}
	out := make([]ServiceRequest, 0, len(vals))
	for _, v := range vals {
		var r ServiceRequest
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("decode service request: %w", err)
		}
		out = append(out, r)
	}
	sortServiceRequests(out)
	return out, nil
}

func (s *RedisStorage) CountServiceRequestsByStatus(ctx context.Context) (map[string]int, error) {
	list, err := s.ListServiceRequests(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, r := range list {
		counts[r.Status]++
	}
	return counts, nil
}

func (s *RedisStorage) ListAnnouncements(ctx context.Context) ([]Announcement, error) {
	vals, err := s.rdb.HVals(ctx, s.key("announcements")).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Announcement, 0, len(vals))
	for _, v := range vals {
		var a Announcement
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			return nil, fmt.Errorf("decode announcement: %w", err)
		}
		out = append(out, a)
	}
	sortAnnouncements(out)
	return out, nil
}

func (s *RedisStorage) UpsertAnnouncement(ctx context.Context, a Announcement) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.key("announcements"), strconv.FormatInt(a.ID, 10), payload).Err()
}
