package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/domain"
)

// RoomListItem 是房间列表中的一项。
type RoomListItem struct {
	RoomUUID     string
	PeriodicUUID string
	OwnerUUID    string
	Title        string
	RoomType     domain.RoomType
	RoomStatus   domain.RoomStatus
	BeginTime    time.Time
	EndTime      time.Time
	InviteCode   string
}

// List 返回用户加入的全部未删除房间，按开始时间升序。每项附带当前
// 邀请码；周期性子房间的邀请码绑定在序列上。
func (s *RoomService) List(ctx context.Context, userUUID string) ([]RoomListItem, error) {
	rooms, err := s.store.Rooms().ListForUser(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	items := make([]RoomListItem, 0, len(rooms))
	for _, room := range rooms {
		codeOwner := room.RoomUUID
		if room.PeriodicUUID != "" {
			codeOwner = room.PeriodicUUID
		}
		inviteCode, err := s.codes.CodeByRoomUUID(ctx, codeOwner)
		if err != nil {
			// 缓存故障不阻塞列表，回退为 UUID
			logrus.WithError(err).WithField("room_uuid", room.RoomUUID).
				Warn("failed to look up invite code")
			inviteCode = codeOwner
		}
		items = append(items, RoomListItem{
			RoomUUID:     room.RoomUUID,
			PeriodicUUID: room.PeriodicUUID,
			OwnerUUID:    room.OwnerUUID,
			Title:        room.Title,
			RoomType:     room.RoomType,
			RoomStatus:   room.RoomStatus,
			BeginTime:    room.BeginTime,
			EndTime:      room.EndTime,
			InviteCode:   inviteCode,
		})
	}
	return items, nil
}
