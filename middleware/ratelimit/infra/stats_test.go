package infra

import (
	"context"
	"testing"
	"time"

	"document-submitter/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStatsStore_CountsByRouteAndKey(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackKeys(true))
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, domain.StatsEvent{Key: "a", Allowed: true, Method: "POST", Path: "/create", Wait: 10 * time.Millisecond}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Key: "a", Allowed: true, Method: "POST", Path: "/create", Wait: 5 * time.Millisecond}))
	require.NoError(t, s.Record(ctx, domain.StatsEvent{Key: "b", Allowed: false, Method: "POST", Path: "/create"}))

	assert.Equal(t, Counters{Admitted: 2, Rejected: 1, TotalWait: 15 * time.Millisecond}, s.Total())
	assert.Equal(t, Counters{Admitted: 2, Rejected: 1, TotalWait: 15 * time.Millisecond}, s.ByRoute()["POST /create"])
	assert.Equal(t, int64(2), s.ByKey()["a"].Admitted)
	assert.Equal(t, int64(1), s.ByKey()["b"].Rejected)
}

func TestMemoryStatsStore_KeysNotTrackedByDefault(t *testing.T) {
	s := NewMemoryStatsStore()
	require.NoError(t, s.Record(context.Background(), domain.StatsEvent{Key: "a", Allowed: true}))
	assert.Empty(t, s.ByKey())
}

func TestRedisStatsStore_NilClientIsNoop(t *testing.T) {
	var s *RedisStatsStore
	assert.NoError(t, s.Record(context.Background(), domain.StatsEvent{Allowed: true}))
}

func TestRedisStatsStore_SurfacesConnectionErrors(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	s := NewRedisStatsStore(rdb, WithStatsPrefix(":test:"), WithStatsBucket(" MINUTE "), WithStatsTrackKeys(true))
	assert.Equal(t, "test", s.prefix)
	assert.Equal(t, "minute", s.bucket)

	err := s.Record(context.Background(), domain.StatsEvent{Key: "k", Allowed: true, Method: "POST", Path: "/x"})
	assert.Error(t, err)
}
