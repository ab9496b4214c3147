package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ticketdesk/ticket-core/internal/domain"
)

const ticketCachePrefix = "ticket:"

// errCacheMiss signals that the key is absent, as opposed to the cache
// backend being unreachable.
var errCacheMiss = errors.New("cache miss")

// ticketCache is the slice of the cache backend the decorator needs.
type ticketCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// redisTicketCache adapts a go-redis client to the ticketCache interface.
type redisTicketCache struct {
	client *redis.Client
}

func (c *redisTicketCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errCacheMiss
	}
	return raw, err
}

func (c *redisTicketCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisTicketCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// cachedTicketRepository is a read-through cache over GetByID. Writes
// invalidate the cached row. Cache failures degrade to the inner
// repository and are only logged.
type cachedTicketRepository struct {
	inner  TicketRepository
	cache  ticketCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTicketRepository decorates inner with a Redis read cache.
func NewCachedTicketRepository(inner TicketRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) TicketRepository {
	return newCachedTicketRepository(inner, &redisTicketCache{client: client}, ttl, logger)
}

func newCachedTicketRepository(inner TicketRepository, cache ticketCache, ttl time.Duration, logger *zap.Logger) TicketRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &cachedTicketRepository{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (r *cachedTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.inner.Create(ctx, ticket)
}

func (r *cachedTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	key := ticketCachePrefix + id
	raw, err := r.cache.Get(ctx, key)
	if err == nil {
		var ticket domain.Ticket
		if unmarshalErr := json.Unmarshal(raw, &ticket); unmarshalErr == nil {
			return &ticket, nil
		}
		// unreadable entry: evict so the next read repopulates
		_ = r.cache.Del(ctx, key)
	} else if !errors.Is(err, errCacheMiss) {
		r.logger.Debug("ticket cache read failed", zap.String("ticket_id", id), zap.Error(err))
	}

	ticket, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, marshalErr := json.Marshal(ticket); marshalErr == nil {
		if setErr := r.cache.Set(ctx, key, raw, r.ttl); setErr != nil {
			r.logger.Debug("ticket cache write failed", zap.String("ticket_id", id), zap.Error(setErr))
		}
	}
	return ticket, nil
}

func (r *cachedTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if err := r.inner.Update(ctx, ticket); err != nil {
		return err
	}
	r.invalidate(ctx, ticket.ID)
	return nil
}

func (r *cachedTicketRepository) Search(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	return r.inner.Search(ctx, filter)
}

func (r *cachedTicketRepository) AppendEntry(ctx context.Context, entry *domain.ConversationEntry) error {
	if err := r.inner.AppendEntry(ctx, entry); err != nil {
		return err
	}
	r.invalidate(ctx, entry.TicketID)
	return nil
}

func (r *cachedTicketRepository) ListEntries(ctx context.Context, ticketID string) ([]domain.ConversationEntry, error) {
	return r.inner.ListEntries(ctx, ticketID)
}

func (r *cachedTicketRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Del(ctx, ticketCachePrefix+id); err != nil {
		r.logger.Debug("ticket cache invalidation failed", zap.String("ticket_id", id), zap.Error(err))
	}
}
