package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/rediskey"
	"classroom-scheduler/internal/repository"
)

const (
	// 每次分配生成的候选码数量，一次 MGET 探测完
	inviteCodeBatchSize = 30
	// 候选码中随机数字的位数 (不含区域前缀)
	inviteCodeLength = 10
	// 邀请码占用的缓存有效期
	inviteCodeTTL = 50 * 24 * time.Hour
)

// InviteCodeService 负责邀请码的分配与查询。
//
// 这是概率性的唯一性方案：对一批候选码做一次存在性探测，取第一个
// 空闲者占用。探测与占用写入不是原子的一对，极窄的竞态窗口下同一
// 码可能被分配两次——鉴于码空间远大于并发分配速率，这是有意接受
// 的取舍，不要改成原子原语。
type InviteCodeService struct {
	counters   repository.CounterStore
	regionCode string // 固定区域前缀数字
}

// NewInviteCodeService 创建 InviteCodeService 实例。
func NewInviteCodeService(counters repository.CounterStore, regionCode string) *InviteCodeService {
	if counters == nil {
		panic("CounterStore cannot be nil for InviteCodeService")
	}
	return &InviteCodeService{counters: counters, regionCode: regionCode}
}

// Allocate 为 roomUUID 分配一个邀请码并在缓存中占用正反两个映射。
// 一批候选全部被占用时返回 ErrInviteCodeDrained，调用方可换批重试
// 或回退为 roomUUID 本身。
func (s *InviteCodeService) Allocate(ctx context.Context, roomUUID string) (string, error) {
	inviteCode, err := s.generate(ctx)
	if err != nil {
		return "", err
	}

	// 正向映射服务按码加入，反向映射让房间无需反向扫描即可报告自己的码
	if err := s.counters.Set(ctx, rediskey.RoomInviteCode(inviteCode), roomUUID, inviteCodeTTL); err != nil {
		return "", err
	}
	if err := s.counters.Set(ctx, rediskey.RoomInviteCodeReverse(roomUUID), inviteCode, inviteCodeTTL); err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{"room_uuid": roomUUID, "invite_code": inviteCode}).
		Debug("invite code allocated")
	return inviteCode, nil
}

// generate 生成一批候选码并返回第一个未被占用的。
func (s *InviteCodeService) generate(ctx context.Context) (string, error) {
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
	for i, value := range values {
		if value == nil {
			return candidates[i], nil
		}
	}

	logrus.Warnf("all %d invite code candidates taken", inviteCodeBatchSize)
	return "", ErrInviteCodeDrained
}

// RoomUUIDByCode 按邀请码解析房间 UUID。码未被占用时返回 ErrRoomNotFound。
func (s *InviteCodeService) RoomUUIDByCode(ctx context.Context, inviteCode string) (string, error) {
	roomUUID, ok, err := s.counters.Get(ctx, rediskey.RoomInviteCode(inviteCode))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrRoomNotFound
	}
	return roomUUID, nil
}

// CodeByRoomUUID 返回房间当前的邀请码；没有占用记录时返回房间 UUID
// 本身 (邀请码耗尽时创建房间的回退形态)。
func (s *InviteCodeService) CodeByRoomUUID(ctx context.Context, roomUUID string) (string, error) {
	inviteCode, ok, err := s.counters.Get(ctx, rediskey.RoomInviteCodeReverse(roomUUID))
	if err != nil {
		return "", err
	}
	if !ok {
		return roomUUID, nil
	}
	return inviteCode, nil
}

// Release 删除房间的邀请码占用，正反映射一起清除。
func (s *InviteCodeService) Release(ctx context.Context, roomUUID, inviteCode string) error {
	return s.counters.Del(ctx,
		rediskey.RoomInviteCode(inviteCode),
		rediskey.RoomInviteCodeReverse(roomUUID),
	)
}
