package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"classroom-scheduler/internal/domain"
	"classroom-scheduler/internal/repository"
)

// CreateOrdinaryParams 是创建普通房间的入参。
type CreateOrdinaryParams struct {
	OwnerUUID string
	Title     string
	RoomType  domain.RoomType
	Region    domain.Region
	BeginTime time.Time
	EndTime   time.Time
}

// CreateOrdinaryResult 是创建普通房间的结果。
type CreateOrdinaryResult struct {
	RoomUUID   string
	InviteCode string
}

// CreateOrdinary 创建一间单次房间: 校验时间区间，向白板服务申请房
// 间，落库 Room 与房主成员记录，提交后分配邀请码。
func (s *RoomService) CreateOrdinary(ctx context.Context, params CreateOrdinaryParams) (*CreateOrdinaryResult, error) {
	now := s.now()
	if beginTimeTooEarly(params.BeginTime, now) || !validTimeInterval(params.BeginTime, params.EndTime) {
		return nil, ErrParamsCheckFailed
	}

	roomUUID := uuid.NewString()

	whiteboardRoomUUID, err := s.whiteboard.CreateRoom(ctx, params.Region)
	if err != nil {
		return nil, err
	}

	rtcUID, err := randomDigits(rtcUIDLength)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Rooms().Insert(ctx, &domain.Room{
			RoomUUID:           roomUUID,
			OwnerUUID:          params.OwnerUUID,
			Title:              params.Title,
			RoomType:           params.RoomType,
			RoomStatus:         domain.RoomStatusIdle,
			BeginTime:          params.BeginTime,
			EndTime:            params.EndTime,
			Region:             params.Region,
			WhiteboardRoomUUID: whiteboardRoomUUID,
		}); err != nil {
			return err
		}
		return tx.RoomUsers().Insert(ctx, &domain.RoomUser{
			RoomUUID: roomUUID,
			UserUUID: params.OwnerUUID,
			RtcUID:   rtcUID,
		})
	})
	if err != nil {
		return nil, err
	}

	inviteCode := allocateInviteCode(ctx, s.codes, roomUUID)

	return &CreateOrdinaryResult{
		RoomUUID:   roomUUID,
		InviteCode: inviteCode,
	}, nil
}
