package repository

import (
	"context"
	"time"

	"classroom-scheduler/internal/domain"
)

// RoomRepository 定义了房间数据的存储和检索操作。
// 所有查询统一排除软删除的行；找不到记录时返回 ErrNotFound。
type RoomRepository interface {
	// FindByUUID 根据房间 UUID 查找房间。
	FindByUUID(ctx context.Context, roomUUID string) (*domain.Room, error)

	// FindOwned 查找由 ownerUUID 拥有的房间，用于需要房主身份的操作。
	FindOwned(ctx context.Context, roomUUID, ownerUUID string) (*domain.Room, error)

	// FindActiveByPeriodicUUID 查找周期序列当前唯一的非 Stopped 房间。
	FindActiveByPeriodicUUID(ctx context.Context, periodicUUID string) (*domain.Room, error)

	// FindMaterialized 查找某个子房间对应的已物化房间 (按序列、房间和房主过滤)。
	FindMaterialized(ctx context.Context, periodicUUID, roomUUID, ownerUUID string) (*domain.Room, error)

	// Insert 插入一个新房间。
	Insert(ctx context.Context, room *domain.Room) error

	// UpdateStatusBegin 更新房间状态并把开始时间改为 beginTime。
	UpdateStatusBegin(ctx context.Context, roomUUID string, status domain.RoomStatus, beginTime time.Time) error

	// UpdateStatus 只更新房间状态。
	UpdateStatus(ctx context.Context, roomUUID string, status domain.RoomStatus) error

	// UpdateStatusEnd 更新房间状态并把结束时间改为 endTime (停止时使用)。
	UpdateStatusEnd(ctx context.Context, roomUUID string, status domain.RoomStatus, endTime time.Time) error

	// UpdateSchedule 更新房间的起止时间 (改期时使用)。
	UpdateSchedule(ctx context.Context, roomUUID string, beginTime, endTime time.Time) error

	// Remove 软删除房间。
	Remove(ctx context.Context, roomUUID string) error

	// ListForUser 返回 userUUID 加入的全部未删除房间，按开始时间升序。
	ListForUser(ctx context.Context, userUUID string) ([]domain.Room, error)
}

// RoomPeriodicRepository 定义了周期子房间的存储和检索操作。
type RoomPeriodicRepository interface {
	// FindOne 按序列和子房间 UUID 查找一次课程。
	FindOne(ctx context.Context, periodicUUID, fakeRoomUUID string) (*domain.RoomPeriodic, error)

	// FindNextIdle 返回同一序列中 beginTime 严格大于 after 的第一个 Idle
	// 子房间 (按 begin_time 升序)。不存在时返回 ErrNotFound。
	FindNextIdle(ctx context.Context, periodicUUID string, after time.Time) (*domain.RoomPeriodic, error)

	// FindNext 返回同一序列中 beginTime 严格大于 after 的第一个子房间，
	// 不限状态。改期时用于校验结束时间上界。
	FindNext(ctx context.Context, periodicUUID string, after time.Time) (*domain.RoomPeriodic, error)

	// FindPrevious 返回同一序列中 beginTime 严格小于 before 的最后一个
	// 子房间 (按 begin_time 降序)。改期时用于校验开始时间下界。
	FindPrevious(ctx context.Context, periodicUUID string, before time.Time) (*domain.RoomPeriodic, error)

	// InsertMany 批量插入子房间 (创建周期序列时使用)。
	InsertMany(ctx context.Context, rooms []domain.RoomPeriodic) error

	// UpdateStatusBegin 按 fakeRoomUUID 更新状态与开始时间 (镜像 Room 的变更)。
	UpdateStatusBegin(ctx context.Context, fakeRoomUUID string, status domain.RoomStatus, beginTime time.Time) error

	// UpdateStatus 按 fakeRoomUUID 只更新状态。
	UpdateStatus(ctx context.Context, fakeRoomUUID string, status domain.RoomStatus) error

	// UpdateStatusEnd 按 fakeRoomUUID 更新状态与结束时间。
	UpdateStatusEnd(ctx context.Context, fakeRoomUUID string, status domain.RoomStatus, endTime time.Time) error

	// UpdateSchedule 按 fakeRoomUUID 更新起止时间。
	UpdateSchedule(ctx context.Context, fakeRoomUUID string, beginTime, endTime time.Time) error

	// Remove 软删除一个子房间。
	Remove(ctx context.Context, periodicUUID, fakeRoomUUID string) error

	// RemoveAllActive 软删除序列中全部非 Stopped 的子房间。
	RemoveAllActive(ctx context.Context, periodicUUID string) error
}

// RoomPeriodicConfigRepository 定义了周期序列配置的存储和检索操作。
type RoomPeriodicConfigRepository interface {
	// FindByUUID 按序列 UUID 查找配置。
	FindByUUID(ctx context.Context, periodicUUID string) (*domain.RoomPeriodicConfig, error)

	// FindOwned 查找由 ownerUUID 拥有的序列配置。
	FindOwned(ctx context.Context, periodicUUID, ownerUUID string) (*domain.RoomPeriodicConfig, error)

	// Insert 插入序列配置。
	Insert(ctx context.Context, config *domain.RoomPeriodicConfig) error

	// UpdateStatus 无条件更新序列状态。
	UpdateStatus(ctx context.Context, periodicUUID string, status domain.PeriodicStatus) error

	// UpdateStatusFrom 仅当序列当前状态为 from 时更新为 to。
	// 序列首次启动 Idle→Started 的翻转依赖该条件，保证只触发一次。
	UpdateStatusFrom(ctx context.Context, periodicUUID string, from, to domain.PeriodicStatus) error

	// Remove 软删除序列配置。
	Remove(ctx context.Context, periodicUUID string) error
}
