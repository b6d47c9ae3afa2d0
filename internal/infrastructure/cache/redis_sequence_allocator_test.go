package cache

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/autodealer/backend/internal/domain/document"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedHook answers commands without a server: a command listed in fail
// gets that error, INCR and EXISTS otherwise get incrVal and exists
type scriptedHook struct {
	fail    map[string]error
	incrVal int64
	exists  int64
	seen    []string
}

func (h *scriptedHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("dial disabled in tests")
	}
}

func (h *scriptedHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.seen = append(h.seen, cmd.Name())
		if err, ok := h.fail[cmd.Name()]; ok {
			return err
		}
		if c, ok := cmd.(*redis.IntCmd); ok {
			switch cmd.Name() {
			case "incr":
				c.SetVal(h.incrVal)
			case "exists":
				c.SetVal(h.exists)
			}
		}
		return nil
	}
}

func (h *scriptedHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

// serverReply is an error reply sent back by Redis
type serverReply string

func (e serverReply) Error() string { return string(e) }
func (serverReply) RedisError()     {}

func newScriptedAllocator(hook *scriptedHook, seeder SequenceSeeder) *RedisSequenceAllocator {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1})
	client.AddHook(hook)
	clock := func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	return NewRedisSequenceAllocator(client, clock, seeder)
}

func TestRedisSequenceAllocator_Next(t *testing.T) {
	hook := &scriptedHook{incrVal: 12}
	alloc := newScriptedAllocator(hook, nil)

	n, err := alloc.Next(context.Background(), " fv ")
	require.NoError(t, err)
	assert.Equal(t, document.Number{Prefix: "FV", Year: 2026, Sequence: 12}, n)
	assert.Equal(t, []string{"incr"}, hook.seen)
}

func TestRedisSequenceAllocator_LostIncrementIsOutcomeUnknown(t *testing.T) {
	for name, cause := range map[string]error{
		"timeout":           context.DeadlineExceeded,
		"dropped reply":     io.ErrUnexpectedEOF,
		"connection closed": &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")},
	} {
		t.Run(name, func(t *testing.T) {
			alloc := newScriptedAllocator(&scriptedHook{fail: map[string]error{"incr": cause}}, nil)

			_, err := alloc.Next(context.Background(), "FV")
			require.Error(t, err)
			assert.True(t, errors.Is(err, document.ErrAllocationOutcomeUnknown))
			assert.False(t, errors.Is(err, document.ErrAllocationConflict))
		})
	}
}

func TestRedisSequenceAllocator_RefusedIncrementIsPlainFailure(t *testing.T) {
	hook := &scriptedHook{fail: map[string]error{"incr": serverReply("ERR value is not an integer or out of range")}}
	alloc := newScriptedAllocator(hook, nil)

	_, err := alloc.Next(context.Background(), "FV")
	require.Error(t, err)
	assert.False(t, errors.Is(err, document.ErrAllocationOutcomeUnknown))
	assert.False(t, errors.Is(err, document.ErrAllocationConflict))
	assert.Contains(t, err.Error(), "not an integer")
}

func TestRedisSequenceAllocator_SeedFailureConsumesNothing(t *testing.T) {
	for _, cmd := range []string{"exists", "setnx"} {
		t.Run(cmd, func(t *testing.T) {
			hook := &scriptedHook{fail: map[string]error{cmd: io.EOF}, incrVal: 41}
			alloc := newScriptedAllocator(hook, missingCounterSeeder{})

			_, err := alloc.Next(context.Background(), "FV")
			require.Error(t, err)
			assert.False(t, errors.Is(err, document.ErrAllocationOutcomeUnknown))
			assert.False(t, errors.Is(err, document.ErrAllocationConflict))
			assert.NotContains(t, hook.seen, "incr")
		})
	}
}

func TestRedisSequenceAllocator_SeedsMissingCounter(t *testing.T) {
	hook := &scriptedHook{incrVal: 41}
	alloc := newScriptedAllocator(hook, missingCounterSeeder{})

	n, err := alloc.Next(context.Background(), "FV")
	require.NoError(t, err)
	assert.Equal(t, int64(41), n.Sequence)
	assert.Equal(t, []string{"exists", "setnx", "incr"}, hook.seen)
}

type missingCounterSeeder struct{}

func (missingCounterSeeder) MaxSequence(ctx context.Context, prefix string, year int) (int64, error) {
	return 40, nil
}
