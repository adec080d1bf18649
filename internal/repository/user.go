package repository

import (
	"context"

	"classroom-scheduler/internal/domain"
)

// UserRepository 定义了用户数据的检索操作 (登录使用)。
type UserRepository interface {
	// FindByPhone 按手机号查找用户。
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)

	// Insert 插入一个新用户。
	Insert(ctx context.Context, user *domain.User) error
}

// RoomUserRepository 定义了房间成员关系的操作。
type RoomUserRepository interface {
	// Insert 插入一条成员记录。同一 (房间, 用户) 已存在行 (含软删除的
	// 墓碑) 时复活该行并更新 rtcUID，退出后重新加入依赖该语义。
	Insert(ctx context.Context, roomUser *domain.RoomUser) error

	// InsertMany 批量插入成员记录 (子房间顺延时使用)，冲突语义同 Insert。
	InsertMany(ctx context.Context, roomUsers []domain.RoomUser) error

	// Find 查找一条成员记录。
	Find(ctx context.Context, roomUUID, userUUID string) (*domain.RoomUser, error)

	// Exists 判断成员记录是否存在。
	Exists(ctx context.Context, roomUUID, userUUID string) (bool, error)

	// Remove 软删除成员记录。记录不存在时不报错。
	Remove(ctx context.Context, roomUUID, userUUID string) error
}

// RoomPeriodicUserRepository 定义了周期序列成员关系的操作。
type RoomPeriodicUserRepository interface {
	// Insert 插入一条序列成员记录。已存在行 (含软删除的墓碑) 时复活该行。
	Insert(ctx context.Context, periodicUser *domain.RoomPeriodicUser) error

	// Exists 判断序列成员记录是否存在。
	Exists(ctx context.Context, periodicUUID, userUUID string) (bool, error)

	// Remove 软删除序列成员记录。记录不存在时不报错。
	Remove(ctx context.Context, periodicUUID, userUUID string) error

	// ListUserUUIDs 返回序列的全部成员 UUID。
	ListUserUUIDs(ctx context.Context, periodicUUID string) ([]string, error)
}

// UserPmiRepository 定义了个人会议号绑定的操作。
type UserPmiRepository interface {
	// FindByUserUUID 查找用户已绑定的 PMI。
	FindByUserUUID(ctx context.Context, userUUID string) (*domain.UserPmi, error)

	// Insert 插入一条新绑定。PMI 冲突时返回 ErrDuplicateEntry。
	Insert(ctx context.Context, pmi *domain.UserPmi) error

	// FilterExisting 返回 candidates 中已被任何用户占用的 PMI 集合。
	// PMI 必须能在缓存失效后存活，因此分配前要对关系表做最终校验。
	FilterExisting(ctx context.Context, candidates []string) (map[string]struct{}, error)
}
