package service

import (
	"context"
	"errors"

	"classroom-scheduler/internal/domain"
	"classroom-scheduler/internal/repository"
)

// JoinResult 是加入房间后返回给客户端的入会信息。
type JoinResult struct {
	RoomUUID           string
	PeriodicUUID       string
	OwnerUUID          string
	RoomType           domain.RoomType
	RoomStatus         domain.RoomStatus
	WhiteboardRoomUUID string
	Region             domain.Region
	RtcUID             string
}

// Join 通过邀请码或 UUID 加入房间。入参可以是邀请码、房间 UUID 或
// 周期序列 UUID；周期序列解析为当前活跃的那一次课程，并同时建立序
// 列成员关系，后续子房间顺延时成员会被自动带入。
func (s *RoomService) Join(ctx context.Context, uuidOrCode, userUUID string) (*JoinResult, error) {
	targetUUID := uuidOrCode
	if looksLikeInviteCode(uuidOrCode) {
		resolved, err := s.codes.RoomUUIDByCode(ctx, uuidOrCode)
		if err != nil {
			return nil, err
		}
		targetUUID = resolved
	}

	room, err := s.store.Rooms().FindByUUID(ctx, targetUUID)
	if errors.Is(err, repository.ErrNotFound) {
		// 不是房间 UUID，按周期序列 UUID 再试一次
		room, err = s.resolvePeriodic(ctx, targetUUID)
	}
	if err != nil {
		return nil, err
	}

	if room.RoomStatus == domain.RoomStatusStopped {
		return nil, ErrRoomIsEnded
	}

	var rtcUID string
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if room.PeriodicUUID != "" {
			joined, err := tx.PeriodicUsers().Exists(ctx, room.PeriodicUUID, userUUID)
			if err != nil {
				return err
			}
			if !joined {
				if err := tx.PeriodicUsers().Insert(ctx, &domain.RoomPeriodicUser{
					PeriodicUUID: room.PeriodicUUID,
					UserUUID:     userUUID,
				}); err != nil {
					return err
				}
			}
		}

		member, err := tx.RoomUsers().Find(ctx, room.RoomUUID, userUUID)
		if err == nil {
			rtcUID = member.RtcUID
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		rtcUID, err = randomDigits(rtcUIDLength)
		if err != nil {
			return err
		}
		return tx.RoomUsers().Insert(ctx, &domain.RoomUser{
			RoomUUID: room.RoomUUID,
			UserUUID: userUUID,
			RtcUID:   rtcUID,
		})
	})
	if err != nil {
		return nil, err
	}

	return &JoinResult{
		RoomUUID:           room.RoomUUID,
		PeriodicUUID:       room.PeriodicUUID,
		OwnerUUID:          room.OwnerUUID,
		RoomType:           room.RoomType,
		RoomStatus:         room.RoomStatus,
		WhiteboardRoomUUID: room.WhiteboardRoomUUID,
		Region:             room.Region,
		RtcUID:             rtcUID,
	}, nil
}

// resolvePeriodic 把周期序列 UUID 解析为当前活跃的子房间。
func (s *RoomService) resolvePeriodic(ctx context.Context, periodicUUID string) (*domain.Room, error) {
	config, err := s.store.PeriodicConfigs().FindByUUID(ctx, periodicUUID)
	if err != nil {
		return nil, mapNotFound(err, ErrRoomNotFound)
	}
	if config.PeriodicStatus == domain.PeriodicStatusStopped {
		return nil, ErrPeriodicEnded
	}

	room, err := s.store.Rooms().FindActiveByPeriodicUUID(ctx, periodicUUID)
	if err != nil {
		return nil, mapNotFound(err, ErrRoomNotFound)
	}
	return room, nil
}

// looksLikeInviteCode 判断入参形如邀请码 (纯数字，UUID 不可能满足)。
func looksLikeInviteCode(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
