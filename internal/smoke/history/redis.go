package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix — префикс ключей по умолчанию.
const DefaultKeyPrefix = "aihub-smoke"

// RedisOptions — параметры подключения RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix — префикс ключа <prefix>:last:<scenario>.
	KeyPrefix string
	// TTL — время жизни записи. 0 — без срока.
	TTL time.Duration
}

// RedisStore хранит исходы в Redis, чтобы переходы переживали перезапуск hub-watch.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore создаёт RedisStore. Подключение ленивое, проверить его можно через Ping.
func NewRedisStore(opts RedisOptions) *RedisStore {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix: prefix,
		ttl:    opts.TTL,
	}
}

// Key возвращает ключ Redis для сценария.
func (s *RedisStore) Key(scenario string) string {
	return s.prefix + ":last:" + scenario
}

// Ping проверяет доступность Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s недоступен: %w", s.client.Options().Addr, err)
	}
	return nil
}

func (s *RedisStore) Last(ctx context.Context, scenario string) (*Outcome, error) {
	data, err := s.client.Get(ctx, s.Key(scenario)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение истории %s: %w", scenario, err)
	}
	var o Outcome
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("разбор истории %s: %w", scenario, err)
	}
	return &o, nil
}

func (s *RedisStore) Save(ctx context.Context, o Outcome) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("кодирование истории %s: %w", o.Scenario, err)
	}
	if err := s.client.Set(ctx, s.Key(o.Scenario), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("запись истории %s: %w", o.Scenario, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
