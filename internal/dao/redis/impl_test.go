package redis

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, workers, buffer int) *RedisCache {
	t.Helper()
	// 任务不访问 Redis，地址不需要可达
	return NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), workers, buffer)
}

func TestSubmitTaskRunsOnWorker(t *testing.T) {
	rc := newTestCache(t, 2, 4)
	defer func() { _ = rc.Close() }()

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		rc.SubmitTask(func() { ran.Add(1) })
	}
	assert.Eventually(t, func() bool { return ran.Load() == 10 }, time.Second, 5*time.Millisecond)
}

func TestSubmitTaskAfterCloseIsDropped(t *testing.T) {
	rc := newTestCache(t, 1, 1)
	require.NoError(t, rc.Close())

	ran := false
	assert.NotPanics(t, func() {
		rc.SubmitTask(func() { ran = true })
	})
	assert.False(t, ran)
	assert.NoError(t, rc.Close())
}

func TestCloseRacesWithSubmit(t *testing.T) {
	rc := newTestCache(t, 1, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			rc.SubmitTask(func() {})
		}
	}()
	_ = rc.Close()
	<-done
}
