package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/domain"
	"classroom-scheduler/internal/rediskey"
	"classroom-scheduler/internal/repository"
)

// UserPmiService 负责个人会议号 (PMI) 的分配与查询。
// PMI 与邀请码共用同一个码空间：候选先经缓存探测，再对关系表做
// 最终校验，因为 PMI 必须在缓存失效后继续有效。
type UserPmiService struct {
	store      repository.Store
	counters   repository.CounterStore
	regionCode string
}

// NewUserPmiService 创建 UserPmiService 实例。
func NewUserPmiService(store repository.Store, counters repository.CounterStore, regionCode string) *UserPmiService {
	if store == nil || counters == nil {
		panic("Store and CounterStore cannot be nil for UserPmiService")
	}
	return &UserPmiService{store: store, counters: counters, regionCode: regionCode}
}

// GetOrCreate 返回用户的 PMI，不存在时分配一个并永久落库。
// 已有绑定永不重新分配。候选批次耗尽时返回 ErrUserPmiDrained。
func (s *UserPmiService) GetOrCreate(ctx context.Context, userUUID string) (string, error) {
	existing, err := s.store.Pmi().FindByUserUUID(ctx, userUUID)
	if err == nil {
		return existing.Pmi, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	pmi, err := s.generate(ctx)
	if err != nil {
		return "", err
	}

	if err := s.store.Pmi().Insert(ctx, &domain.UserPmi{UserUUID: userUUID, Pmi: pmi}); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 并发首次分配时落库慢的一方撞唯一索引。用户维度撞索引说明
			// 另一方已经写入，回读并返回那一行；回读仍为空则冲突出在
			// pmi 列上，让调用方重试。
			winner, findErr := s.store.Pmi().FindByUserUUID(ctx, userUUID)
			if findErr == nil {
				return winner.Pmi, nil
			}
			if errors.Is(findErr, repository.ErrNotFound) {
				return "", ErrCanRetry
			}
			return "", findErr
		}
		return "", err
	}

	logrus.WithFields(logrus.Fields{"user_uuid": userUUID, "pmi": pmi}).Info("pmi allocated")
	return pmi, nil
}

// generate 生成一批候选 PMI，返回第一个既未被邀请码占用、也未被
// 任何用户绑定的候选。
func (s *UserPmiService) generate(ctx context.Context) (string, error) {
	candidates := make([]string, 0, inviteCodeBatchSize)
	keys := make([]string, 0, inviteCodeBatchSize)
	for i := 0; i < inviteCodeBatchSize; i++ {
		code, err := randomCode(inviteCodeLength)
		if err != nil {
			return "", err
		}
		code = s.regionCode + code
		candidates = append(candidates, code)
		keys = append(keys, rediskey.RoomInviteCode(code))
	}

	values, err := s.counters.MGet(ctx, keys)
	if err != nil {
		return "", err
	}
	vacant := make([]string, 0, len(candidates))
	for i, value := range values {
		if value == nil {
			vacant = append(vacant, candidates[i])
		}
	}

	used, err := s.store.Pmi().FilterExisting(ctx, vacant)
	if err != nil {
		return "", err
	}
	for _, candidate := range vacant {
		if _, taken := used[candidate]; !taken {
			return candidate, nil
		}
	}

	logrus.Warnf("all %d pmi candidates taken", inviteCodeBatchSize)
	return "", ErrUserPmiDrained
}

// ExistsRoom 判断用户的 PMI 当前是否绑定着一个存活的个人房间。
// 缓存里有占用记录但数据库中没有对应房间时，说明占用已经陈旧，
// 删除正反映射以恢复 PMI 可用性。
func (s *UserPmiService) ExistsRoom(ctx context.Context, userUUID string) (bool, error) {
	user, err := s.store.Pmi().FindByUserUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	roomUUID, ok, err := s.counters.Get(ctx, rediskey.RoomInviteCode(user.Pmi))
	if err != nil || !ok {
		return false, err
	}

	room, err := s.store.Rooms().FindByUUID(ctx, roomUUID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if room != nil && room.PeriodicUUID == "" && room.RoomStatus != domain.RoomStatusStopped {
		return true, nil
	}

	// 缓存占用指向的房间已不存在，清掉以免 PMI 永久不可用
	if err := s.counters.Del(ctx,
		rediskey.RoomInviteCode(user.Pmi),
		rediskey.RoomInviteCodeReverse(roomUUID),
	); err != nil {
		logrus.WithError(err).Warn("failed to clear stale pmi invite code")
	}
	return false, nil
}
