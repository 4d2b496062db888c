package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"gradebook-server-go/models"
)

// DefaultStudentsKey is the Redis list holding one JSON document per student.
const DefaultStudentsKey = "students"

// RedisBackend persists the student collection in a single Redis list
type RedisBackend struct {
	Client *redis.Client
	Ctx    context.Context // Base context
	Key    string
	log    *zap.Logger
}

// NewRedisBackend creates a new RedisBackend instance
func NewRedisBackend(client *redis.Client, key string, log *zap.Logger) *RedisBackend {
	if key == "" {
		key = DefaultStudentsKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisBackend{
		Client: client,
		Ctx:    context.Background(),
		Key:    key,
		log:    log,
	}
}

// Load reads every student from the list, in list order. A missing key yields
// an empty collection.
func (b *RedisBackend) Load() ([]models.Student, error) {
	payloads, err := b.Client.LRange(b.Ctx, b.Key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Student{}, nil
		}
		return nil, fmt.Errorf("failed to read students from Redis: %w", err)
	}

	students := make([]models.Student, 0, len(payloads))
	for i, payload := range payloads {
		var st models.Student
		if err := json.Unmarshal([]byte(payload), &st); err != nil {
			return nil, fmt.Errorf("failed to decode student at index %d of %s: %w", i, b.Key, err)
		}
		students = append(students, st)
	}
	return students, nil
}

// Save replaces the list content with students inside a MULTI/EXEC block, so
// readers never observe a half-written collection.
func (b *RedisBackend) Save(students []models.Student) error {
	payloads := make([]interface{}, 0, len(students))
	for _, st := range students {
		raw, err := json.Marshal(st)
		if err != nil {
			return fmt.Errorf("failed to encode student %d: %w", st.ID, err)
		}
		payloads = append(payloads, raw)
	}

	_, err := b.Client.TxPipelined(b.Ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(b.Ctx, b.Key)
		if len(payloads) > 0 {
			pipe.RPush(b.Ctx, b.Key, payloads...)
		}
		return nil
	})
	if err != nil {
		b.log.Error("failed to write students to Redis", zap.String("key", b.Key), zap.Error(err))
		return fmt.Errorf("failed to write students to Redis: %w", err)
	}
	b.log.Debug("saved students to Redis", zap.String("key", b.Key), zap.Int("count", len(students)))
	return nil
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}
