package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "link:"
	defaultTTL = time.Hour
)

// Entry — кэшируемая часть ссылки: достаточно для редиректа и инкремента.
// Счётчик посещений не кэшируется, он всегда обновляется в БД.
type Entry struct {
	ID        int64      `json:"id"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired сообщает, истёк ли срок действия закэшированной ссылки.
func (e *Entry) Expired() bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(time.Now())
}

// LinkCache — read-through кэш резолва поверх Redis.
// Nil-получатель допустим: все методы тогда превращаются в no-op,
// сервис работает напрямую с БД.
type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New подключается к Redis и проверяет соединение.
func New(redisDSN string) (*LinkCache, error) {
	opt, err := redis.ParseURL(redisDSN)
	if err != nil {
		return nil, fmt.Errorf("parse redis DSN: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &LinkCache{client: client, ttl: defaultTTL}, nil
}

// Get возвращает закэшированную ссылку по хешу.
func (c *LinkCache) Get(ctx context.Context, hash string) (*Entry, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, keyPrefix+hash).Bytes()
	if err != nil {
		return nil, false
	}

	entry := &Entry{}
	if err := json.Unmarshal(data, entry); err != nil {
		return nil, false
	}
	return entry, true
}

// Set сохраняет ссылку в кэше. Ошибки кэша не критичны и проглатываются:
// источником истины остаётся БД.
func (c *LinkCache) Set(ctx context.Context, hash string, entry Entry) {
	if c == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, keyPrefix+hash, data, c.ttl).Err()
}

// Invalidate удаляет ссылку из кэша.
func (c *LinkCache) Invalidate(ctx context.Context, hash string) {
	if c == nil {
		return
	}
	_ = c.client.Del(ctx, keyPrefix+hash).Err()
}

// Purge удаляет все закэшированные ссылки. Используется при полной очистке
// хранилища, чтобы кэш не отдавал удалённые записи.
func (c *LinkCache) Purge(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
