package limiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCounters 是 repository.CounterStore 的最小内存实现。
type fakeCounters struct {
	kv     map[string]string
	hashes map[string]map[string]string
	incrs  map[string]int64
}

func newFakeCounters() *fakeCounters {
	return &fakeCounters{
		kv:     make(map[string]string),
		hashes: make(map[string]map[string]string),
		incrs:  make(map[string]int64),
	}
}

func (c *fakeCounters) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok := c.kv[key]
	return value, ok, nil
}

func (c *fakeCounters) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.kv[key] = value
	return nil
}

func (c *fakeCounters) Incr(ctx context.Context, key string) (int64, error) {
	c.incrs[key]++
	return c.incrs[key], nil
}

func (c *fakeCounters) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func (c *fakeCounters) TTL(ctx context.Context, key string) (time.Duration, error) { return -1, nil }

func (c *fakeCounters) MGet(ctx context.Context, keys []string) ([]*string, error) {
	result := make([]*string, len(keys))
	for i, key := range keys {
		if value, ok := c.kv[key]; ok {
			copied := value
			result[i] = &copied
		}
	}
	return result, nil
}

func (c *fakeCounters) HMGet(ctx context.Context, key string, fields ...string) ([]*string, error) {
	result := make([]*string, len(fields))
	hash, ok := c.hashes[key]
	if !ok {
		return result, nil
	}
	for i, field := range fields {
		if value, ok := hash[field]; ok {
			copied := value
			result[i] = &copied
		}
	}
	return result, nil
}

func (c *fakeCounters) HMSet(ctx context.Context, key string, fields map[string]string) error {
	hash, ok := c.hashes[key]
	if !ok {
		hash = make(map[string]string)
		c.hashes[key] = hash
	}
	for field, value := range fields {
		hash[field] = value
	}
	return nil
}

func (c *fakeCounters) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.kv, key)
		delete(c.hashes, key)
		delete(c.incrs, key)
	}
	return nil
}

func TestIPBlocker_MinuteWindow(t *testing.T) {
	// Arrange: 可控时钟
	counters := newFakeCounters()
	blocker := NewIPBlocker(counters, nil)
	now := time.Unix(1_700_000_000, 0)
	blocker.now = func() time.Time { return now }
	ctx := context.Background()

	// Act & Assert: 一分钟内前 5 次放行，第 6 次拒绝
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second)
		require.NoError(t, blocker.Allow(ctx, "1.2.3.4", "/v1/login"), "第 %d 次应放行", i+1)
	}
	now = now.Add(time.Second)
	err := blocker.Allow(ctx, "1.2.3.4", "/v1/login")
	assert.True(t, errors.Is(err, ErrBlocked), "第 6 次应被拒绝")
}

func TestIPBlocker_WindowResetsAfterSilence(t *testing.T) {
	// Arrange
	counters := newFakeCounters()
	blocker := NewIPBlocker(counters, nil)
	now := time.Unix(1_700_000_000, 0)
	blocker.now = func() time.Time { return now }
	ctx := context.Background()

	// 打满分钟窗口
	for i := 0; i < 5; i++ {
		require.NoError(t, blocker.Allow(ctx, "1.2.3.4", "/v1/login"))
	}
	require.Error(t, blocker.Allow(ctx, "1.2.3.4", "/v1/login"))

	// Act: 静默 61 秒后计数归零
	now = now.Add(61 * time.Second)
	err := blocker.Allow(ctx, "1.2.3.4", "/v1/login")

	// Assert
	assert.NoError(t, err, "静默超过一分钟后应重新放行")
}

func TestIPBlocker_BlockedRequestDoesNotRefreshWindow(t *testing.T) {
	// Arrange
	counters := newFakeCounters()
	blocker := NewIPBlocker(counters, nil)
	now := time.Unix(1_700_000_000, 0)
	blocker.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, blocker.Allow(ctx, "1.2.3.4", "/v1/login"))
	}

	// Act: 被拒绝的请求持续到来，但不写回 last_active
	for i := 0; i < 10; i++ {
		now = now.Add(5 * time.Second)
		require.Error(t, blocker.Allow(ctx, "1.2.3.4", "/v1/login"))
	}

	// 自最后一次被放行的请求起满一分钟即恢复
	now = now.Add(15 * time.Second)
	assert.NoError(t, blocker.Allow(ctx, "1.2.3.4", "/v1/login"),
		"持续的被拒请求不应把窗口顶着不放")
}

func TestIPBlocker_DimensionsIndependent(t *testing.T) {
	// Arrange
	counters := newFakeCounters()
	blocker := NewIPBlocker(counters, nil)
	ctx := context.Background()

	// 打满 (ip1, path1)
	for i := 0; i < 5; i++ {
		require.NoError(t, blocker.Allow(ctx, "1.2.3.4", "/v1/login"))
	}
	require.Error(t, blocker.Allow(ctx, "1.2.3.4", "/v1/login"))

	// Assert: 其他 IP 和其他路由不受影响
	assert.NoError(t, blocker.Allow(ctx, "5.6.7.8", "/v1/login"))
	assert.NoError(t, blocker.Allow(ctx, "1.2.3.4", "/v1/register"))
}

func TestIPBlocker_HourRule(t *testing.T) {
	// Arrange: 单条小时规则，上限 3
	counters := newFakeCounters()
	blocker := NewIPBlocker(counters, []Rule{{Field: "hour", Window: time.Hour, MaxCount: 3}})
	now := time.Unix(1_700_000_000, 0)
	blocker.now = func() time.Time { return now }
	ctx := context.Background()

	// Act: 每 10 分钟一次，第 4 次仍在小时窗口内
	for i := 0; i < 3; i++ {
		require.NoError(t, blocker.Allow(ctx, "1.2.3.4", "/v1/x"))
		now = now.Add(10 * time.Minute)
	}

	// Assert
	err := blocker.Allow(ctx, "1.2.3.4", "/v1/x")
	assert.True(t, errors.Is(err, ErrBlocked))
}

func TestIPBlocker_BlockLogsTrippedRule(t *testing.T) {
	// Arrange
	hook := logtest.NewGlobal()
	defer hook.Reset()
	counters := newFakeCounters()
	blocker := NewIPBlocker(counters, []Rule{{Field: "hour", Window: time.Hour, MaxCount: 1}})
	ctx := context.Background()
	require.NoError(t, blocker.Allow(ctx, "1.2.3.4", "/v1/login"))

	// Act
	err := blocker.Allow(ctx, "1.2.3.4", "/v1/login")

	// Assert: 拒绝时记录触发的规则维度
	require.True(t, errors.Is(err, ErrBlocked))
	var entry *logrus.Entry
	for _, logged := range hook.AllEntries() {
		if logged.Message == "request blocked by rate limit" {
			entry = logged
		}
	}
	require.NotNil(t, entry, "拒绝请求时应记录日志")
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "hour", entry.Data["rule"])
	assert.Equal(t, "1.2.3.4", entry.Data["ip"])
	assert.Equal(t, "/v1/login", entry.Data["path"])
}

func TestAttemptGuard_CeilingAndClear(t *testing.T) {
	// Arrange
	counters := newFakeCounters()
	guard := NewAttemptGuard(counters)
	ctx := context.Background()

	// Act & Assert: 前 10 次尝试放行
	for i := 0; i < 10; i++ {
		require.NoError(t, guard.Check(ctx, "13800000001"), "第 %d 次尝试应放行", i+1)
	}
	// 第 11 次拒绝
	err := guard.Check(ctx, "13800000001")
	assert.True(t, errors.Is(err, ErrTooManyAttempts))

	// Clear 后重新放行
	require.NoError(t, guard.Clear(ctx, "13800000001"))
	assert.NoError(t, guard.Check(ctx, "13800000001"))
}
