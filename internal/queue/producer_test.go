package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestEnqueue_AddsJobToQueue(t *testing.T) {
	rdb := newTestRedis(t)
	defer rdb.Close()

	producer := NewProducer(rdb)
	ctx := context.Background()

	now := time.Now().Unix()
	job := Job{
		ID:        "job-1",
		Type:      JobTypeSupportEmail,
		Payload:   MustMarshal(map[string]string{"user_id": "42"}),
		MaxRetry:  5,
		CreatedAt: now,
		ExpireAt:  now + 3600,
	}

	err := producer.Enqueue(ctx, job)
	require.NoError(t, err)

	entries, err := rdb.ZRangeWithScores(ctx, QueueKey, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// score is the run-at timestamp, so a fresh job is already eligible
	assert.Equal(t, float64(now), entries[0].Score)

	var stored Job
	err = json.Unmarshal([]byte(entries[0].Member.(string)), &stored)
	require.NoError(t, err)
	assert.Equal(t, "job-1", stored.ID)
	assert.Equal(t, JobTypeSupportEmail, stored.Type)
}

func TestEnqueue_FreshJobIsEligibleImmediately(t *testing.T) {
	rdb := newTestRedis(t)
	defer rdb.Close()

	producer := NewProducer(rdb)
	ctx := context.Background()

	job := Job{
		ID:        "job-eligible",
		Type:      JobTypeSupportEmail,
		CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, producer.Enqueue(ctx, job))

	// the poller fetches everything scored at or below "now"
	due, err := rdb.ZRangeByScore(ctx, QueueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestMustMarshal_ReturnsRawJSON(t *testing.T) {
	raw := MustMarshal(map[string]int{"a": 1})
	assert.JSONEq(t, `{"a":1}`, string(raw))
}
