// Package limiter 提供基于缓存计数的请求限流: 按 (IP, 路由) 维度的
// 多窗口计数器，以及登录接口的尝试次数护栏。
package limiter

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/rediskey"
	"classroom-scheduler/internal/repository"
)

// ErrBlocked 表示请求超出限流规则，应当被拒绝。
var ErrBlocked = errors.New("limiter: request blocked")

// Rule 是一条限流规则: 窗口内最多允许 MaxCount 次请求。
type Rule struct {
	Field    string        // 计数在散列中的字段名
	Window   time.Duration // 距上次活跃超过该时长则计数归零
	MaxCount int64
}

// DefaultRules 是生产环境的默认规则组合。
func DefaultRules() []Rule {
	return []Rule{
		{Field: "minute", Window: time.Minute, MaxCount: 5},
		{Field: "hour", Window: time.Hour, MaxCount: 10},
		{Field: "day", Window: 24 * time.Hour, MaxCount: 30},
	}
}

const (
	fieldLastActive = "last_active"
	ipBlockTTL      = 24 * time.Hour
)

// IPBlocker 按 (IP, 路由) 记录一个计数散列: 一个 last_active 时间戳
// 加每条规则一个计数字段。同一个 last_active 供所有窗口共用——任一
// 窗口的静默期都以最后一次被放行的请求起算。被拒绝的请求不写回任
// 何字段，因此持续的攻击流量不会把窗口顶着不放。
type IPBlocker struct {
	counters repository.CounterStore
	rules    []Rule
	now      func() time.Time
}

// NewIPBlocker 创建 IPBlocker。rules 为空时使用 DefaultRules。
func NewIPBlocker(counters repository.CounterStore, rules []Rule) *IPBlocker {
	if counters == nil {
		panic("CounterStore cannot be nil for IPBlocker")
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &IPBlocker{counters: counters, rules: rules, now: time.Now}
}

// Allow 判定一次请求。任一规则达到上限时返回 ErrBlocked；放行时把
// 各窗口计数加一并刷新 last_active。
func (b *IPBlocker) Allow(ctx context.Context, ip, path string) error {
	key := rediskey.IPBlock(ip, path)

	fields := make([]string, 0, len(b.rules)+1)
	fields = append(fields, fieldLastActive)
	for _, rule := range b.rules {
		fields = append(fields, rule.Field)
	}

	values, err := b.counters.HMGet(ctx, key, fields...)
	if err != nil {
		return err
	}

	now := b.now()
	lastActive := parseUnix(values[0])

	counts := make([]int64, len(b.rules))
	for i, rule := range b.rules {
		count := parseInt(values[i+1])
		if lastActive.IsZero() || now.Sub(lastActive) >= rule.Window {
			count = 0
		}
		if count >= rule.MaxCount {
			logrus.WithFields(logrus.Fields{
				"ip":   ip,
				"path": path,
				"rule": rule.Field,
			}).Warn("request blocked by rate limit")
			return ErrBlocked
		}
		counts[i] = count + 1
	}

	update := map[string]string{
		fieldLastActive: strconv.FormatInt(now.Unix(), 10),
	}
	for i, rule := range b.rules {
		update[rule.Field] = strconv.FormatInt(counts[i], 10)
	}
	if err := b.counters.HMSet(ctx, key, update); err != nil {
		return err
	}
	return b.counters.Expire(ctx, key, ipBlockTTL)
}

func parseUnix(value *string) time.Time {
	if value == nil {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(*value, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func parseInt(value *string) int64 {
	if value == nil {
		return 0
	}
	n, err := strconv.ParseInt(*value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
