package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classroom-scheduler/internal/domain"
)

// 成员关系表的唯一索引包含软删除的墓碑行，退出再加入时普通 INSERT
// 会撞索引。写入统一走 upsert：撞上墓碑就复活该行并刷新 rtc_uid。
var reviveRoomUser = clause.OnConflict{
	DoUpdates: append(
		clause.AssignmentColumns([]string{"rtc_uid"}),
		clause.Assignments(map[string]interface{}{"is_delete": false})...,
	),
}

var revivePeriodicUser = clause.OnConflict{
	DoUpdates: clause.Assignments(map[string]interface{}{"is_delete": false}),
}

// GormUserRepository 是 UserRepository 接口的 GORM 实现。
type GormUserRepository struct {
	db *gorm.DB
}

func (r *GormUserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var user domain.User
	err := alive(r.db.WithContext(ctx)).Where("phone = ?", phone).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find user by phone: %w", mapError(err))
	}
	return &user, nil
}

func (r *GormUserRepository) Insert(ctx context.Context, user *domain.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("gorm: insert user %q: %w", user.UserUUID, mapError(err))
	}
	return nil
}

// GormRoomUserRepository 是 RoomUserRepository 接口的 GORM 实现。
type GormRoomUserRepository struct {
	db *gorm.DB
}

func (r *GormRoomUserRepository) Insert(ctx context.Context, roomUser *domain.RoomUser) error {
	if err := r.db.WithContext(ctx).Clauses(reviveRoomUser).Create(roomUser).Error; err != nil {
		return fmt.Errorf("gorm: insert room user (%q, %q): %w", roomUser.RoomUUID, roomUser.UserUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomUserRepository) InsertMany(ctx context.Context, roomUsers []domain.RoomUser) error {
	if len(roomUsers) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(reviveRoomUser).Create(&roomUsers).Error; err != nil {
		return fmt.Errorf("gorm: insert %d room users: %w", len(roomUsers), mapError(err))
	}
	return nil
}

func (r *GormRoomUserRepository) Find(ctx context.Context, roomUUID, userUUID string) (*domain.RoomUser, error) {
	var roomUser domain.RoomUser
	err := alive(r.db.WithContext(ctx)).
		Where("room_uuid = ? AND user_uuid = ?", roomUUID, userUUID).
		First(&roomUser).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find room user (%q, %q): %w", roomUUID, userUUID, mapError(err))
	}
	return &roomUser, nil
}

func (r *GormRoomUserRepository) Exists(ctx context.Context, roomUUID, userUUID string) (bool, error) {
	var count int64
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomUser{})).
		Where("room_uuid = ? AND user_uuid = ?", roomUUID, userUUID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count room users (%q, %q): %w", roomUUID, userUUID, mapError(err))
	}
	return count > 0, nil
}

func (r *GormRoomUserRepository) Remove(ctx context.Context, roomUUID, userUUID string) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomUser{})).
		Where("room_uuid = ? AND user_uuid = ?", roomUUID, userUUID).
		Update("is_delete", true).Error
	if err != nil {
		return fmt.Errorf("gorm: remove room user (%q, %q): %w", roomUUID, userUUID, mapError(err))
	}
	return nil
}

// GormPeriodicUserRepository 是 RoomPeriodicUserRepository 接口的 GORM 实现。
type GormPeriodicUserRepository struct {
	db *gorm.DB
}

func (r *GormPeriodicUserRepository) Insert(ctx context.Context, periodicUser *domain.RoomPeriodicUser) error {
	if err := r.db.WithContext(ctx).Clauses(revivePeriodicUser).Create(periodicUser).Error; err != nil {
		return fmt.Errorf("gorm: insert periodic user (%q, %q): %w", periodicUser.PeriodicUUID, periodicUser.UserUUID, mapError(err))
	}
	return nil
}

func (r *GormPeriodicUserRepository) Exists(ctx context.Context, periodicUUID, userUUID string) (bool, error) {
	var count int64
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodicUser{})).
		Where("periodic_uuid = ? AND user_uuid = ?", periodicUUID, userUUID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count periodic users (%q, %q): %w", periodicUUID, userUUID, mapError(err))
	}
	return count > 0, nil
}

func (r *GormPeriodicUserRepository) Remove(ctx context.Context, periodicUUID, userUUID string) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodicUser{})).
		Where("periodic_uuid = ? AND user_uuid = ?", periodicUUID, userUUID).
		Update("is_delete", true).Error
	if err != nil {
		return fmt.Errorf("gorm: remove periodic user (%q, %q): %w", periodicUUID, userUUID, mapError(err))
	}
	return nil
}

func (r *GormPeriodicUserRepository) ListUserUUIDs(ctx context.Context, periodicUUID string) ([]string, error) {
	var userUUIDs []string
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodicUser{})).
		Where("periodic_uuid = ?", periodicUUID).
		Pluck("user_uuid", &userUUIDs).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list periodic users of %q: %w", periodicUUID, mapError(err))
	}
	return userUUIDs, nil
}

// GormUserPmiRepository 是 UserPmiRepository 接口的 GORM 实现。
type GormUserPmiRepository struct {
	db *gorm.DB
}

func (r *GormUserPmiRepository) FindByUserUUID(ctx context.Context, userUUID string) (*domain.UserPmi, error) {
	var pmi domain.UserPmi
	err := alive(r.db.WithContext(ctx)).Where("user_uuid = ?", userUUID).First(&pmi).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find pmi of user %q: %w", userUUID, mapError(err))
	}
	return &pmi, nil
}

func (r *GormUserPmiRepository) Insert(ctx context.Context, pmi *domain.UserPmi) error {
	if err := r.db.WithContext(ctx).Create(pmi).Error; err != nil {
		return fmt.Errorf("gorm: insert pmi for user %q: %w", pmi.UserUUID, mapError(err))
	}
	return nil
}

func (r *GormUserPmiRepository) FilterExisting(ctx context.Context, candidates []string) (map[string]struct{}, error) {
	used := make(map[string]struct{})
	if len(candidates) == 0 {
		return used, nil
	}
	var rows []string
	err := alive(r.db.WithContext(ctx).Model(&domain.UserPmi{})).
		Where("pmi IN ?", candidates).
		Pluck("pmi", &rows).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: filter existing pmi: %w", mapError(err))
	}
	for _, pmi := range rows {
		used[pmi] = struct{}{}
	}
	return used, nil
}
