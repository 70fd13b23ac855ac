package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/teamboard/pkg/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisSink_RoundTrip(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()

	sub, err := Subscribe(ctx, rdb, "test-instance")
	require.NoError(t, err)
	defer sub.Close()

	sink := NewRedisSink(rdb, "test-instance")
	n := NewNotification(`Failed to move task "Fix bug": network down`, SeverityError)
	sink.Show(n)

	select {
	case got := <-sub.Events():
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, n.Message, got.Message)
		assert.Equal(t, SeverityError, got.Severity)
		assert.True(t, n.At.Equal(got.At))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestSubscribe_InstanceIsolation(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()

	sub, err := Subscribe(ctx, rdb, "instance-a")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, NewRedisSink(rdb, "instance-b").Publish(ctx, NewNotification("other", SeveritySuccess)))
	mine := NewNotification("mine", SeveritySuccess)
	require.NoError(t, NewRedisSink(rdb, "instance-a").Publish(ctx, mine))

	select {
	case got := <-sub.Events():
		assert.Equal(t, mine.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestSubscribe_MalformedMessage(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()

	sub, err := Subscribe(ctx, rdb, "test-instance")
	require.NoError(t, err)
	defer sub.Close()

	channel := store.NotificationsChannel("test-instance")
	require.NoError(t, rdb.Publish(ctx, channel, "not json").Err())
	require.NoError(t, rdb.Publish(ctx, channel, `{"id":"x","message":"m","severity":"loud"}`).Err())

	for range 2 {
		select {
		case err := <-sub.Errors():
			assert.Contains(t, err.Error(), "failed to decode notification")
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for error")
		}
	}

	good := NewNotification("still flowing", SeveritySuccess)
	require.NoError(t, NewRedisSink(rdb, "test-instance").Publish(ctx, good))
	select {
	case got := <-sub.Events():
		assert.Equal(t, good.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("subscription stopped after malformed message")
	}
}

func TestSubscription_Close(t *testing.T) {
	_, rdb := setupRedis(t)

	sub, err := Subscribe(context.Background(), rdb, "test-instance")
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "events channel closes")
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestSubscribe_RedisDown(t *testing.T) {
	mr, rdb := setupRedis(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Subscribe(ctx, rdb, "test-instance")
	assert.Error(t, err)
}

func TestEmitter_WithRedisAndConsole(t *testing.T) {
	_, rdb := setupRedis(t)
	ctx := context.Background()

	sub, err := Subscribe(ctx, rdb, "test-instance")
	require.NoError(t, err)
	defer sub.Close()

	var out bytes.Buffer
	e := NewEmitter(MultiSink{NewConsoleSink(&out), NewRedisSink(rdb, "test-instance")}, 5*time.Millisecond)
	defer e.Close()

	n := e.Notify(`Task "Fix bug" moved to Done`, SeveritySuccess)
	require.NoError(t, e.Flush(ctx))

	assert.Contains(t, out.String(), `Task "Fix bug" moved to Done`)
	select {
	case got := <-sub.Events():
		assert.Equal(t, n.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}
