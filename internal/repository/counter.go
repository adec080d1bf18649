package repository

import (
	"context"
	"time"
)

// CounterStore 抽象低延迟键值缓存：既是限流计数的账本，也是已分配
// 短码的临时唯一性索引。单个操作在单 key 上原子，但多 key 序列
// (先探测后占用、先读后写) 整体上不原子，调用方需自行承担竞态窗口。
type CounterStore interface {
	// Get 读取 key 的值。key 不存在时 ok 为 false，不视为错误。
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set 写入 key。ttl 为 0 表示不过期。
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Incr 原子自增并返回新值。key 不存在时从 0 开始。
	Incr(ctx context.Context, key string) (int64, error)

	// Expire 为 key 设置过期时间。
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// TTL 返回 key 的剩余生存时间。key 不存在或未设置过期时返回负值。
	TTL(ctx context.Context, key string) (time.Duration, error)

	// MGet 一次往返读取多个 key，缺失的 key 对应 nil。
	MGet(ctx context.Context, keys []string) ([]*string, error)

	// HMGet 读取散列 key 的多个字段，缺失的字段对应 nil。
	HMGet(ctx context.Context, key string, fields ...string) ([]*string, error)

	// HMSet 写入散列 key 的多个字段。
	HMSet(ctx context.Context, key string, fields map[string]string) error

	// Del 删除一个或多个 key。
	Del(ctx context.Context, keys ...string) error
}
