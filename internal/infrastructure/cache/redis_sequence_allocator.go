package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/redis/go-redis/v9"
)

// SequenceSeeder reports the highest sequence already persisted for (prefix, year).
// It lets a fresh Redis continue where the database left off.
type SequenceSeeder interface {
	MaxSequence(ctx context.Context, prefix string, year int) (int64, error)
}

// RedisSequenceAllocator allocates document numbers with INCR on seq:{PREFIX}:{YEAR}.
// INCR is atomic across every process sharing the Redis instance.
type RedisSequenceAllocator struct {
	client *redis.Client
	clock  document.Clock
	seeder SequenceSeeder
}

// NewRedisSequenceAllocator creates an allocator. seeder may be nil.
func NewRedisSequenceAllocator(client *redis.Client, clock document.Clock, seeder SequenceSeeder) *RedisSequenceAllocator {
	if clock == nil {
		clock = document.SystemClock
	}
	return &RedisSequenceAllocator{client: client, clock: clock, seeder: seeder}
}

func sequenceKey(prefix string, year int) string {
	return "seq:" + prefix + ":" + strconv.Itoa(year)
}

// Next allocates the next number for prefix in the current year
func (a *RedisSequenceAllocator) Next(ctx context.Context, prefix string) (document.Number, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return document.Number{}, errors.New("document prefix cannot be empty")
	}
	year := a.clock().Year()
	key := sequenceKey(prefix, year)

	if err := a.seed(ctx, key, prefix, year); err != nil {
		return document.Number{}, err
	}

	seq, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return document.Number{}, incrError(key, err)
	}
	return document.Number{Prefix: prefix, Year: year, Sequence: seq}, nil
}

// seed initialises a missing counter from the database; SETNX keeps a
// concurrent seed or an existing counter untouched
func (a *RedisSequenceAllocator) seed(ctx context.Context, key, prefix string, year int) error {
	if a.seeder == nil {
		return nil
	}
	exists, err := a.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check sequence %s: %w", key, err)
	}
	if exists > 0 {
		return nil
	}
	last, err := a.seeder.MaxSequence(ctx, prefix, year)
	if err != nil {
		return fmt.Errorf("failed to seed sequence %s: %w", key, err)
	}
	if err := a.client.SetNX(ctx, key, last, 0).Err(); err != nil {
		return fmt.Errorf("failed to seed sequence %s: %w", key, err)
	}
	return nil
}

// incrError classifies a failed INCR. A reply from the server means the
// command was refused and the counter is untouched. Anything else (timeout,
// dropped connection, cancelled context) may have hit after Redis applied it.
func incrError(key string, err error) error {
	var reply redis.Error
	if errors.As(err, &reply) {
		return fmt.Errorf("increment %s refused: %w", key, err)
	}
	return fmt.Errorf("%w: increment %s: %v", document.ErrAllocationOutcomeUnknown, key, err)
}

// Peek returns the last issued sequence for (prefix, year), 0 if none
func (a *RedisSequenceAllocator) Peek(ctx context.Context, prefix string, year int) (int64, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	val, err := a.client.Get(ctx, sequenceKey(prefix, year)).Int64()
	if errors.Is(err, redis.Nil) {
		if a.seeder != nil {
			return a.seeder.MaxSequence(ctx, prefix, year)
		}
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence: %w", err)
	}
	return val, nil
}

var _ document.SequenceAllocator = (*RedisSequenceAllocator)(nil)
