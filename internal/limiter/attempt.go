package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/rediskey"
	"classroom-scheduler/internal/repository"
)

// ErrTooManyAttempts 表示同一手机号的失败尝试已达上限。
var ErrTooManyAttempts = errors.New("limiter: too many attempts")

const (
	attemptCeiling = 10
	attemptWindow  = 10 * time.Minute
)

// AttemptGuard 守卫按手机号计数的登录尝试: 十分钟窗口内最多十次，
// 登录成功时清零。计数先加后判，窗口在第一次尝试时启动。
type AttemptGuard struct {
	counters repository.CounterStore
}

// NewAttemptGuard 创建 AttemptGuard。
func NewAttemptGuard(counters repository.CounterStore) *AttemptGuard {
	if counters == nil {
		panic("CounterStore cannot be nil for AttemptGuard")
	}
	return &AttemptGuard{counters: counters}
}

// Check 记录一次尝试。达到上限时返回 ErrTooManyAttempts。
func (g *AttemptGuard) Check(ctx context.Context, phone string) error {
	key := rediskey.PhoneTryLoginCount(phone)

	count, err := g.counters.Incr(ctx, key)
	if err != nil {
		return err
	}
	if count == 1 {
		if err := g.counters.Expire(ctx, key, attemptWindow); err != nil {
			return err
		}
	}
	if count > attemptCeiling {
		logrus.WithField("phone", phone).Warn("login attempts exhausted")
		return ErrTooManyAttempts
	}
	return nil
}

// Clear 在登录成功后清零计数。
func (g *AttemptGuard) Clear(ctx context.Context, phone string) error {
	return g.counters.Del(ctx, rediskey.PhoneTryLoginCount(phone))
}
