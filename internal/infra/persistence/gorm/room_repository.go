package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"classroom-scheduler/internal/domain"
)

// GormRoomRepository 是 RoomRepository 接口的 GORM 实现。
type GormRoomRepository struct {
	db *gorm.DB
}

func (r *GormRoomRepository) FindByUUID(ctx context.Context, roomUUID string) (*domain.Room, error) {
	var room domain.Room
	err := alive(r.db.WithContext(ctx)).Where("room_uuid = ?", roomUUID).First(&room).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find room by uuid %q: %w", roomUUID, mapError(err))
	}
	return &room, nil
}

func (r *GormRoomRepository) FindOwned(ctx context.Context, roomUUID, ownerUUID string) (*domain.Room, error) {
	var room domain.Room
	err := alive(r.db.WithContext(ctx)).
		Where("room_uuid = ? AND owner_uuid = ?", roomUUID, ownerUUID).
		First(&room).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find owned room %q: %w", roomUUID, mapError(err))
	}
	return &room, nil
}

func (r *GormRoomRepository) FindActiveByPeriodicUUID(ctx context.Context, periodicUUID string) (*domain.Room, error) {
	var room domain.Room
	err := alive(r.db.WithContext(ctx)).
		Where("periodic_uuid = ? AND room_status <> ?", periodicUUID, domain.RoomStatusStopped).
		First(&room).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find active room of periodic %q: %w", periodicUUID, mapError(err))
	}
	return &room, nil
}

func (r *GormRoomRepository) FindMaterialized(ctx context.Context, periodicUUID, roomUUID, ownerUUID string) (*domain.Room, error) {
	var room domain.Room
	err := alive(r.db.WithContext(ctx)).
		Where("periodic_uuid = ? AND room_uuid = ? AND owner_uuid = ?", periodicUUID, roomUUID, ownerUUID).
		First(&room).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find materialized room %q: %w", roomUUID, mapError(err))
	}
	return &room, nil
}

func (r *GormRoomRepository) Insert(ctx context.Context, room *domain.Room) error {
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("gorm: insert room %q: %w", room.RoomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomRepository) UpdateStatusBegin(ctx context.Context, roomUUID string, status domain.RoomStatus, beginTime time.Time) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.Room{})).
		Where("room_uuid = ?", roomUUID).
		Updates(map[string]interface{}{"room_status": status, "begin_time": beginTime}).Error
	if err != nil {
		return fmt.Errorf("gorm: update room %q status/begin: %w", roomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomRepository) UpdateStatus(ctx context.Context, roomUUID string, status domain.RoomStatus) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.Room{})).
		Where("room_uuid = ?", roomUUID).
		Update("room_status", status).Error
	if err != nil {
		return fmt.Errorf("gorm: update room %q status: %w", roomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomRepository) UpdateStatusEnd(ctx context.Context, roomUUID string, status domain.RoomStatus, endTime time.Time) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.Room{})).
		Where("room_uuid = ?", roomUUID).
		Updates(map[string]interface{}{"room_status": status, "end_time": endTime}).Error
	if err != nil {
		return fmt.Errorf("gorm: update room %q status/end: %w", roomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomRepository) UpdateSchedule(ctx context.Context, roomUUID string, beginTime, endTime time.Time) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.Room{})).
		Where("room_uuid = ?", roomUUID).
		Updates(map[string]interface{}{"begin_time": beginTime, "end_time": endTime}).Error
	if err != nil {
		return fmt.Errorf("gorm: update room %q schedule: %w", roomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomRepository) Remove(ctx context.Context, roomUUID string) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.Room{})).
		Where("room_uuid = ?", roomUUID).
		Update("is_delete", true).Error
	if err != nil {
		return fmt.Errorf("gorm: remove room %q: %w", roomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomRepository) ListForUser(ctx context.Context, userUUID string) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).Model(&domain.Room{}).
		Joins("JOIN room_users ru ON ru.room_uuid = rooms.room_uuid AND ru.user_uuid = ? AND ru.is_delete = ?", userUUID, false).
		Where("rooms.is_delete = ?", false).
		Order("rooms.begin_time ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list rooms for user %q: %w", userUUID, mapError(err))
	}
	return rooms, nil
}
