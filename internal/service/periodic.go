package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/domain"
	"classroom-scheduler/internal/repository"
)

// PeriodicService 维护周期序列中按 BeginTime 排序的子房间列表，
// 并在子房间被删除或改期时保持序列配置的状态一致。
type PeriodicService struct {
	store      repository.Store
	codes      *InviteCodeService
	whiteboard Whiteboard
	banner     WhiteboardBanner
	now        func() time.Time
}

// NewPeriodicService 创建 PeriodicService 实例。
func NewPeriodicService(store repository.Store, codes *InviteCodeService, whiteboard Whiteboard, banner WhiteboardBanner) *PeriodicService {
	if store == nil || codes == nil || whiteboard == nil || banner == nil {
		panic("dependencies cannot be nil for PeriodicService")
	}
	return &PeriodicService{
		store:      store,
		codes:      codes,
		whiteboard: whiteboard,
		banner:     banner,
		now:        time.Now,
	}
}

// CreatePeriodicParams 是创建周期序列的入参。
// Rate 大于 0 时按次数展开；否则按 EndAt 截止日展开。
type CreatePeriodicParams struct {
	OwnerUUID string
	Title     string
	RoomType  domain.RoomType
	Region    domain.Region
	BeginTime time.Time
	EndTime   time.Time
	Weeks     []domain.Week
	Rate      int
	EndAt     time.Time
}

// CreatePeriodicResult 是创建周期序列的结果。
type CreatePeriodicResult struct {
	PeriodicUUID  string
	FirstRoomUUID string
	InviteCode    string
}

// CreatePeriodic 按重复规则展开全部子房间，写入序列配置，并物化第
// 一次课程。提交后为序列分配邀请码 (码指向 periodicUUID，因此单次
// 课程的增删不影响邀请码)。
func (s *PeriodicService) CreatePeriodic(ctx context.Context, params CreatePeriodicParams) (*CreatePeriodicResult, error) {
	now := s.now()
	if beginTimeTooEarly(params.BeginTime, now) || !validTimeInterval(params.BeginTime, params.EndTime) {
		return nil, ErrParamsCheckFailed
	}
	if len(params.Weeks) == 0 {
		return nil, ErrParamsCheckFailed
	}

	var dates []dateInterval
	if params.Rate > 0 {
		dates = datesByRate(params.BeginTime, params.EndTime, params.Weeks, params.Rate)
	} else {
		if params.EndAt.Before(params.EndTime) {
			return nil, ErrParamsCheckFailed
		}
		dates = datesByEndTime(params.BeginTime, params.EndTime, params.EndAt, params.Weeks)
	}
	if len(dates) == 0 {
		return nil, ErrParamsCheckFailed
	}

	periodicUUID := uuid.NewString()

	rows := make([]domain.RoomPeriodic, 0, len(dates))
	for _, date := range dates {
		rows = append(rows, domain.RoomPeriodic{
			PeriodicUUID: periodicUUID,
			FakeRoomUUID: uuid.NewString(),
			BeginTime:    date.Begin,
			EndTime:      date.End,
			RoomStatus:   domain.RoomStatusIdle,
		})
	}

	seriesEnd := params.EndAt
	if params.Rate > 0 {
		seriesEnd = dates[len(dates)-1].Begin
	}

	whiteboardRoomUUID, err := s.whiteboard.CreateRoom(ctx, params.Region)
	if err != nil {
		return nil, err
	}

	rtcUID, err := randomDigits(rtcUIDLength)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Periodic().InsertMany(ctx, rows); err != nil {
			return err
		}
		if err := tx.PeriodicConfigs().Insert(ctx, &domain.RoomPeriodicConfig{
			PeriodicUUID:        periodicUUID,
			OwnerUUID:           params.OwnerUUID,
			Title:               params.Title,
			RoomType:            params.RoomType,
			Weeks:               formatWeeks(params.Weeks),
			Rate:                params.Rate,
			RoomOriginBeginTime: params.BeginTime,
			RoomOriginEndTime:   params.EndTime,
			EndTime:             seriesEnd,
			PeriodicStatus:      domain.PeriodicStatusIdle,
			Region:              params.Region,
		}); err != nil {
			return err
		}
		if err := tx.PeriodicUsers().Insert(ctx, &domain.RoomPeriodicUser{
			PeriodicUUID: periodicUUID,
			UserUUID:     params.OwnerUUID,
		}); err != nil {
			return err
		}

		// 物化第一次课程
		if err := tx.Rooms().Insert(ctx, &domain.Room{
			RoomUUID:           rows[0].FakeRoomUUID,
			PeriodicUUID:       periodicUUID,
			OwnerUUID:          params.OwnerUUID,
			Title:              params.Title,
			RoomType:           params.RoomType,
			RoomStatus:         domain.RoomStatusIdle,
			BeginTime:          rows[0].BeginTime,
			EndTime:            rows[0].EndTime,
			Region:             params.Region,
			WhiteboardRoomUUID: whiteboardRoomUUID,
		}); err != nil {
			return err
		}
		return tx.RoomUsers().Insert(ctx, &domain.RoomUser{
			RoomUUID: rows[0].FakeRoomUUID,
			UserUUID: params.OwnerUUID,
			RtcUID:   rtcUID,
		})
	})
	if err != nil {
		return nil, err
	}

	inviteCode := allocateInviteCode(ctx, s.codes, periodicUUID)

	return &CreatePeriodicResult{
		PeriodicUUID:  periodicUUID,
		FirstRoomUUID: rows[0].FakeRoomUUID,
		InviteCode:    inviteCode,
	}, nil
}

// CancelSubRoom 由序列房主删除一次课程。该次课程已物化且未在运行
// 时，对应的 Room 行一起删除，并把成员与标题等绑定顺延物化到下一
// 个 Idle 子房间上；没有下一个时序列置为 Stopped。
func (s *PeriodicService) CancelSubRoom(ctx context.Context, periodicUUID, roomUUID, callerUUID string) error {
	config, err := s.store.PeriodicConfigs().FindOwned(ctx, periodicUUID, callerUUID)
	if err != nil {
		return mapNotFound(err, ErrRoomNotFound)
	}

	periodicRow, err := s.store.Periodic().FindOne(ctx, periodicUUID, roomUUID)
	if err != nil {
		return mapNotFound(err, ErrRoomNotFound)
	}

	// 未物化的未来课程没有 Room 行，room 为 nil 是正常情况
	room, err := s.store.Rooms().FindMaterialized(ctx, periodicUUID, roomUUID, callerUUID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if room != nil && room.RoomStatus.IsRunning() {
		return ErrRoomIsRunning
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Periodic().Remove(ctx, periodicUUID, roomUUID); err != nil {
			return err
		}

		if room == nil {
			return nil
		}

		if err := tx.Rooms().Remove(ctx, roomUUID); err != nil {
			return err
		}

		next, err := tx.Periodic().FindNextIdle(ctx, periodicUUID, periodicRow.BeginTime)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// 删掉的是最后一个活跃子房间，序列完结
				return tx.PeriodicConfigs().UpdateStatus(ctx, periodicUUID, domain.PeriodicStatusStopped)
			}
			return err
		}
		return materializeNextRoom(ctx, tx, s.whiteboard, config, callerUUID, next)
	})
	if err != nil {
		return err
	}

	if room != nil {
		if err := s.banner.ScheduleBan(ctx, room.Region, room.WhiteboardRoomUUID); err != nil {
			logrus.WithError(err).WithField("whiteboard_room_uuid", room.WhiteboardRoomUUID).
				Warn("failed to schedule whiteboard ban")
		}
	}
	return nil
}

// UpdateSubRoom 修改一次 Idle 课程的起止时间。改动受相邻课程约束:
// 新开始时间必须严格晚于上一节的结束时间 (没有上一节时晚于当前时
// 刻，允许一分钟时钟冗余)；新结束时间必须严格早于下一节的开始时间。
func (s *PeriodicService) UpdateSubRoom(ctx context.Context, periodicUUID, roomUUID string, beginTime, endTime time.Time, callerUUID string) error {
	if _, err := s.store.PeriodicConfigs().FindOwned(ctx, periodicUUID, callerUUID); err != nil {
		return mapNotFound(err, ErrPeriodicNotFound)
	}

	periodicRow, err := s.store.Periodic().FindOne(ctx, periodicUUID, roomUUID)
	if err != nil {
		return mapNotFound(err, ErrRoomNotFound)
	}

	if periodicRow.RoomStatus != domain.RoomStatusIdle {
		return ErrRoomNotIdle
	}

	changeBegin := !beginTime.Equal(periodicRow.BeginTime)
	changeEnd := !endTime.Equal(periodicRow.EndTime)
	if !changeBegin && !changeEnd {
		return nil
	}

	if !validTimeInterval(beginTime, endTime) {
		return ErrParamsCheckFailed
	}

	if changeBegin {
		previous, err := s.store.Periodic().FindPrevious(ctx, periodicUUID, periodicRow.BeginTime)
		switch {
		case err == nil:
			if !beginTime.After(previous.EndTime) {
				return ErrParamsCheckFailed
			}
		case errors.Is(err, repository.ErrNotFound):
			// 第一节课必须晚于当前时间
			if beginTimeTooEarly(beginTime, s.now()) {
				return ErrParamsCheckFailed
			}
		default:
			return err
		}
	}

	if changeEnd {
		next, err := s.store.Periodic().FindNext(ctx, periodicUUID, periodicRow.BeginTime)
		switch {
		case err == nil:
			if !endTime.Before(next.BeginTime) {
				return ErrParamsCheckFailed
			}
		case errors.Is(err, repository.ErrNotFound):
			// 最后一节课，结束时间没有上界
		default:
			return err
		}
	}

	return s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Periodic().UpdateSchedule(ctx, roomUUID, beginTime, endTime); err != nil {
			return err
		}

		// 已物化的课程同步更新 Room 行
		if _, err := tx.Rooms().FindByUUID(ctx, roomUUID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		return tx.Rooms().UpdateSchedule(ctx, roomUUID, beginTime, endTime)
	})
}

const rtcUIDLength = 6

// materializeNextRoom 把序列中的下一个 Idle 子房间物化成 Room 行，
// 并为序列全部成员生成新的房间成员记录，使标题、类型与邀请码绑定
// 在子房间被删除或结束后继续顺延。只能在事务内调用。
func materializeNextRoom(
	ctx context.Context,
	tx repository.Store,
	whiteboard Whiteboard,
	config *domain.RoomPeriodicConfig,
	ownerUUID string,
	next *domain.RoomPeriodic,
) error {
	whiteboardRoomUUID, err := whiteboard.CreateRoom(ctx, config.Region)
	if err != nil {
		return err
	}

	if err := tx.Rooms().Insert(ctx, &domain.Room{
		RoomUUID:           next.FakeRoomUUID,
		PeriodicUUID:       config.PeriodicUUID,
		OwnerUUID:          ownerUUID,
		Title:              config.Title,
		RoomType:           config.RoomType,
		RoomStatus:         domain.RoomStatusIdle,
		BeginTime:          next.BeginTime,
		EndTime:            next.EndTime,
		Region:             config.Region,
		WhiteboardRoomUUID: whiteboardRoomUUID,
	}); err != nil {
		return err
	}

	userUUIDs, err := tx.PeriodicUsers().ListUserUUIDs(ctx, config.PeriodicUUID)
	if err != nil {
		return err
	}

	roomUsers := make([]domain.RoomUser, 0, len(userUUIDs))
	for _, userUUID := range userUUIDs {
		rtcUID, err := randomDigits(rtcUIDLength)
		if err != nil {
			return err
		}
		roomUsers = append(roomUsers, domain.RoomUser{
			RoomUUID: next.FakeRoomUUID,
			UserUUID: userUUID,
			RtcUID:   rtcUID,
		})
	}
	return tx.RoomUsers().InsertMany(ctx, roomUsers)
}

// allocateInviteCode 分配邀请码；失败时回退为 uuid 并记录告警，
// 房间创建不因邀请码耗尽而失败。
func allocateInviteCode(ctx context.Context, codes *InviteCodeService, uuid string) string {
	inviteCode, err := codes.Allocate(ctx, uuid)
	if err != nil {
		logrus.WithError(err).WithField("uuid", uuid).Warn("generate invite code failed, fallback to uuid")
		return uuid
	}
	return inviteCode
}
