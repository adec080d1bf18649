package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/domain"
	"classroom-scheduler/internal/repository"
)

// RoomService 负责房间生命周期状态机:
//
//	Idle → Started ⇄ Paused → Stopped (终态)
//	Idle → 取消删除
//
// 所有多行变更都在一个数据库事务内完成；外部白板封禁只在事务提交
// 之后调度，失败不回滚，由任务队列至少一次地重试。
type RoomService struct {
	store      repository.Store
	codes      *InviteCodeService
	whiteboard Whiteboard
	banner     WhiteboardBanner
	now        func() time.Time
}

// NewRoomService 创建 RoomService 实例。
func NewRoomService(store repository.Store, codes *InviteCodeService, whiteboard Whiteboard, banner WhiteboardBanner) *RoomService {
	if store == nil || codes == nil || whiteboard == nil || banner == nil {
		panic("dependencies cannot be nil for RoomService")
	}
	return &RoomService{
		store:      store,
		codes:      codes,
		whiteboard: whiteboard,
		banner:     banner,
		now:        time.Now,
	}
}

// Start 把房间从 Idle 置为 Started，开始时间改为当前时刻。
// 已在运行 (Started/Paused) 时幂等成功且不改动开始时间；已结束的
// 房间拒绝再启动。周期性子房间启动时同步镜像行，并在序列首次启动
// 时把序列状态从 Idle 翻转为 Started (带条件，只触发一次)。
func (s *RoomService) Start(ctx context.Context, roomUUID, callerUUID string) error {
	room, err := s.store.Rooms().FindOwned(ctx, roomUUID, callerUUID)
	if err != nil {
		return mapNotFound(err, ErrRoomNotFound)
	}

	if room.RoomStatus.IsRunning() {
		return nil
	}
	if room.RoomStatus == domain.RoomStatusStopped {
		return ErrRoomIsEnded
	}

	return s.store.InTx(ctx, func(tx repository.Store) error {
		beginTime := s.now()

		if err := tx.Rooms().UpdateStatusBegin(ctx, roomUUID, domain.RoomStatusStarted, beginTime); err != nil {
			return err
		}

		if room.PeriodicUUID != "" {
			if err := tx.PeriodicConfigs().UpdateStatusFrom(ctx, room.PeriodicUUID,
				domain.PeriodicStatusIdle, domain.PeriodicStatusStarted); err != nil {
				return err
			}
			if err := tx.Periodic().UpdateStatusBegin(ctx, roomUUID, domain.RoomStatusStarted, beginTime); err != nil {
				return err
			}
		}
		return nil
	})
}

// Pause 把运行中的房间置为 Paused。已暂停时幂等成功；其余状态拒绝。
func (s *RoomService) Pause(ctx context.Context, roomUUID, callerUUID string) error {
	room, err := s.store.Rooms().FindOwned(ctx, roomUUID, callerUUID)
	if err != nil {
		return mapNotFound(err, ErrRoomNotFound)
	}

	if room.RoomStatus == domain.RoomStatusPaused {
		return nil
	}
	if room.RoomStatus != domain.RoomStatusStarted {
		return ErrRoomNotRunning
	}

	return s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Rooms().UpdateStatus(ctx, roomUUID, domain.RoomStatusPaused); err != nil {
			return err
		}
		if room.PeriodicUUID != "" {
			return tx.Periodic().UpdateStatus(ctx, roomUUID, domain.RoomStatusPaused)
		}
		return nil
	})
}

// Stop 结束运行中的房间。周期性子房间结束时把下一个 Idle 子房间
// 物化成新的 Room (邀请码继续指向序列，保持稳定)；没有下一个时整个
// 序列置为 Stopped。提交后调度白板封禁。
func (s *RoomService) Stop(ctx context.Context, roomUUID, callerUUID string) error {
	room, err := s.store.Rooms().FindOwned(ctx, roomUUID, callerUUID)
	if err != nil {
		return mapNotFound(err, ErrRoomNotFound)
	}

	if !room.RoomStatus.IsRunning() {
		return ErrRoomNotRunning
	}

	var periodicRow *domain.RoomPeriodic
	if room.PeriodicUUID != "" {
		periodicRow, err = s.store.Periodic().FindOne(ctx, room.PeriodicUUID, roomUUID)
		if err != nil {
			return mapNotFound(err, ErrRoomNotFound)
		}
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		endTime := s.now()

		if err := tx.Rooms().UpdateStatusEnd(ctx, roomUUID, domain.RoomStatusStopped, endTime); err != nil {
			return err
		}

		if room.PeriodicUUID == "" {
			return nil
		}

		if err := tx.Periodic().UpdateStatusEnd(ctx, roomUUID, domain.RoomStatusStopped, endTime); err != nil {
			return err
		}

		next, err := tx.Periodic().FindNextIdle(ctx, room.PeriodicUUID, periodicRow.BeginTime)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// 最后一次课程结束，整个序列完结
				return tx.PeriodicConfigs().UpdateStatus(ctx, room.PeriodicUUID, domain.PeriodicStatusStopped)
			}
			return err
		}

		config, err := tx.PeriodicConfigs().FindByUUID(ctx, room.PeriodicUUID)
		if err != nil {
			// 还有子房间却没有配置行，数据已经损坏
			logrus.WithField("periodic_uuid", room.PeriodicUUID).
				Error("periodic config missing while sub rooms remain")
			return ErrCanRetry
		}

		return materializeNextRoom(ctx, tx, s.whiteboard, config, callerUUID, next)
	})
	if err != nil {
		return err
	}

	s.scheduleBan(ctx, room.Region, room.WhiteboardRoomUUID)
	return nil
}

// CancelOrdinary 取消普通房间。任何成员调用都会移除自己的成员记录；
// 调用者同时是房主且房间仍为 Idle 时，一并删除房间行，并在提交后
// 释放邀请码、调度白板封禁。运行中的房间房主必须先 Stop 才能取消；
// 周期性子房间走专用入口，这里拒绝。
func (s *RoomService) CancelOrdinary(ctx context.Context, roomUUID, callerUUID string) error {
	room, err := s.store.Rooms().FindByUUID(ctx, roomUUID)
	if err != nil {
		return mapNotFound(err, ErrRoomNotFound)
	}

	if room.PeriodicUUID != "" {
		return ErrNotPermission
	}

	isOwner := room.OwnerUUID == callerUUID
	if isOwner && room.RoomStatus.IsRunning() {
		return ErrRoomIsRunning
	}

	removeRoom := isOwner && room.RoomStatus == domain.RoomStatusIdle

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.RoomUsers().Remove(ctx, roomUUID, callerUUID); err != nil {
			return err
		}
		if removeRoom {
			return tx.Rooms().Remove(ctx, roomUUID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 外部副作用严格排在提交之后：失败只会留下可重试的外部状态，
	// 不会让数据库和外部系统互相矛盾
	if removeRoom {
		s.releaseInviteCode(ctx, roomUUID)
		s.scheduleBan(ctx, room.Region, room.WhiteboardRoomUUID)
	}
	return nil
}

// CancelPeriodic 取消整个周期序列。任何成员调用都会移除自己在当前
// 活跃房间和序列里的成员记录；调用者是序列房主时，一并删除全部
// 非 Stopped 子房间和序列配置。活跃房间运行中时房主不得取消。
func (s *RoomService) CancelPeriodic(ctx context.Context, periodicUUID, callerUUID string) error {
	isMember, err := s.store.PeriodicUsers().Exists(ctx, periodicUUID, callerUUID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrPeriodicNotFound
	}

	config, err := s.store.PeriodicConfigs().FindByUUID(ctx, periodicUUID)
	if err != nil {
		return mapNotFound(err, ErrPeriodicNotFound)
	}

	room, err := s.store.Rooms().FindActiveByPeriodicUUID(ctx, periodicUUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// 序列存在就必须有一个非 Stopped 的房间
			logrus.WithField("periodic_uuid", periodicUUID).
				Error("periodic series has no active room")
			return ErrCanRetry
		}
		return err
	}

	isRoomOwner := room.OwnerUUID == callerUUID
	if isRoomOwner && room.RoomStatus.IsRunning() {
		return ErrRoomIsRunning
	}

	isSeriesOwner := config.OwnerUUID == callerUUID
	removeRoom := isRoomOwner && room.RoomStatus == domain.RoomStatusIdle

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.RoomUsers().Remove(ctx, room.RoomUUID, callerUUID); err != nil {
			return err
		}
		if removeRoom {
			if err := tx.Rooms().Remove(ctx, room.RoomUUID); err != nil {
				return err
			}
		}
		if err := tx.PeriodicUsers().Remove(ctx, periodicUUID, callerUUID); err != nil {
			return err
		}
		if isSeriesOwner {
			if err := tx.Periodic().RemoveAllActive(ctx, periodicUUID); err != nil {
				return err
			}
			return tx.PeriodicConfigs().Remove(ctx, periodicUUID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if isSeriesOwner {
		s.releaseInviteCode(ctx, periodicUUID)
	}
	if removeRoom {
		s.scheduleBan(ctx, room.Region, room.WhiteboardRoomUUID)
	}
	return nil
}

// scheduleBan 调度白板封禁，失败只记日志。
func (s *RoomService) scheduleBan(ctx context.Context, region domain.Region, whiteboardRoomUUID string) {
	if err := s.banner.ScheduleBan(ctx, region, whiteboardRoomUUID); err != nil {
		logrus.WithError(err).WithField("whiteboard_room_uuid", whiteboardRoomUUID).
			Warn("failed to schedule whiteboard ban")
	}
}

// releaseInviteCode 释放 uuid (房间或序列) 占用的邀请码，失败只记日志。
func (s *RoomService) releaseInviteCode(ctx context.Context, uuid string) {
	inviteCode, err := s.codes.CodeByRoomUUID(ctx, uuid)
	if err != nil {
		logrus.WithError(err).WithField("uuid", uuid).Warn("failed to look up invite code for release")
		return
	}
	if inviteCode == uuid {
		// 没有占用记录 (分配时回退成了 UUID)，无需释放
		return
	}
	if err := s.codes.Release(ctx, uuid, inviteCode); err != nil {
		logrus.WithError(err).WithField("uuid", uuid).Warn("failed to release invite code")
	}
}

// mapNotFound 把仓库层的未找到错误翻译为业务错误，其余错误原样透出。
func mapNotFound(err, business error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return business
	}
	return err
}
