package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"classroom-scheduler/internal/domain"
)

// GormRoomPeriodicRepository 是 RoomPeriodicRepository 接口的 GORM 实现。
type GormRoomPeriodicRepository struct {
	db *gorm.DB
}

func (r *GormRoomPeriodicRepository) FindOne(ctx context.Context, periodicUUID, fakeRoomUUID string) (*domain.RoomPeriodic, error) {
	var row domain.RoomPeriodic
	err := alive(r.db.WithContext(ctx)).
		Where("periodic_uuid = ? AND fake_room_uuid = ?", periodicUUID, fakeRoomUUID).
		First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find periodic room %q: %w", fakeRoomUUID, mapError(err))
	}
	return &row, nil
}

func (r *GormRoomPeriodicRepository) FindNextIdle(ctx context.Context, periodicUUID string, after time.Time) (*domain.RoomPeriodic, error) {
	var row domain.RoomPeriodic
	err := alive(r.db.WithContext(ctx)).
		Where("periodic_uuid = ? AND room_status = ? AND begin_time > ?", periodicUUID, domain.RoomStatusIdle, after).
		Order("begin_time ASC").
		First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find next idle periodic room of %q: %w", periodicUUID, mapError(err))
	}
	return &row, nil
}

func (r *GormRoomPeriodicRepository) FindNext(ctx context.Context, periodicUUID string, after time.Time) (*domain.RoomPeriodic, error) {
	var row domain.RoomPeriodic
	err := alive(r.db.WithContext(ctx)).
		Where("periodic_uuid = ? AND begin_time > ?", periodicUUID, after).
		Order("begin_time ASC").
		First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find next periodic room of %q: %w", periodicUUID, mapError(err))
	}
	return &row, nil
}

func (r *GormRoomPeriodicRepository) FindPrevious(ctx context.Context, periodicUUID string, before time.Time) (*domain.RoomPeriodic, error) {
	var row domain.RoomPeriodic
	err := alive(r.db.WithContext(ctx)).
		Where("periodic_uuid = ? AND begin_time < ?", periodicUUID, before).
		Order("begin_time DESC").
		First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find previous periodic room of %q: %w", periodicUUID, mapError(err))
	}
	return &row, nil
}

func (r *GormRoomPeriodicRepository) InsertMany(ctx context.Context, rooms []domain.RoomPeriodic) error {
	if len(rooms) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rooms).Error; err != nil {
		return fmt.Errorf("gorm: insert %d periodic rooms: %w", len(rooms), mapError(err))
	}
	return nil
}

func (r *GormRoomPeriodicRepository) UpdateStatusBegin(ctx context.Context, fakeRoomUUID string, status domain.RoomStatus, beginTime time.Time) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodic{})).
		Where("fake_room_uuid = ?", fakeRoomUUID).
		Updates(map[string]interface{}{"room_status": status, "begin_time": beginTime}).Error
	if err != nil {
		return fmt.Errorf("gorm: update periodic room %q status/begin: %w", fakeRoomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomPeriodicRepository) UpdateStatus(ctx context.Context, fakeRoomUUID string, status domain.RoomStatus) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodic{})).
		Where("fake_room_uuid = ?", fakeRoomUUID).
		Update("room_status", status).Error
	if err != nil {
		return fmt.Errorf("gorm: update periodic room %q status: %w", fakeRoomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomPeriodicRepository) UpdateStatusEnd(ctx context.Context, fakeRoomUUID string, status domain.RoomStatus, endTime time.Time) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodic{})).
		Where("fake_room_uuid = ?", fakeRoomUUID).
		Updates(map[string]interface{}{"room_status": status, "end_time": endTime}).Error
	if err != nil {
		return fmt.Errorf("gorm: update periodic room %q status/end: %w", fakeRoomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomPeriodicRepository) UpdateSchedule(ctx context.Context, fakeRoomUUID string, beginTime, endTime time.Time) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodic{})).
		Where("fake_room_uuid = ?", fakeRoomUUID).
		Updates(map[string]interface{}{"begin_time": beginTime, "end_time": endTime}).Error
	if err != nil {
		return fmt.Errorf("gorm: update periodic room %q schedule: %w", fakeRoomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomPeriodicRepository) Remove(ctx context.Context, periodicUUID, fakeRoomUUID string) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodic{})).
		Where("periodic_uuid = ? AND fake_room_uuid = ?", periodicUUID, fakeRoomUUID).
		Update("is_delete", true).Error
	if err != nil {
		return fmt.Errorf("gorm: remove periodic room %q: %w", fakeRoomUUID, mapError(err))
	}
	return nil
}

func (r *GormRoomPeriodicRepository) RemoveAllActive(ctx context.Context, periodicUUID string) error {
	// 走到这里时子房间状态应该只剩 Idle，用 <> Stopped 只是兜底
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodic{})).
		Where("periodic_uuid = ? AND room_status <> ?", periodicUUID, domain.RoomStatusStopped).
		Update("is_delete", true).Error
	if err != nil {
		return fmt.Errorf("gorm: remove active periodic rooms of %q: %w", periodicUUID, mapError(err))
	}
	return nil
}

// GormPeriodicConfigRepository 是 RoomPeriodicConfigRepository 接口的 GORM 实现。
type GormPeriodicConfigRepository struct {
	db *gorm.DB
}

func (r *GormPeriodicConfigRepository) FindByUUID(ctx context.Context, periodicUUID string) (*domain.RoomPeriodicConfig, error) {
	var config domain.RoomPeriodicConfig
	err := alive(r.db.WithContext(ctx)).Where("periodic_uuid = ?", periodicUUID).First(&config).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find periodic config %q: %w", periodicUUID, mapError(err))
	}
	return &config, nil
}

func (r *GormPeriodicConfigRepository) FindOwned(ctx context.Context, periodicUUID, ownerUUID string) (*domain.RoomPeriodicConfig, error) {
	var config domain.RoomPeriodicConfig
	err := alive(r.db.WithContext(ctx)).
		Where("periodic_uuid = ? AND owner_uuid = ?", periodicUUID, ownerUUID).
		First(&config).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find owned periodic config %q: %w", periodicUUID, mapError(err))
	}
	return &config, nil
}

func (r *GormPeriodicConfigRepository) Insert(ctx context.Context, config *domain.RoomPeriodicConfig) error {
	if err := r.db.WithContext(ctx).Create(config).Error; err != nil {
		return fmt.Errorf("gorm: insert periodic config %q: %w", config.PeriodicUUID, mapError(err))
	}
	return nil
}

func (r *GormPeriodicConfigRepository) UpdateStatus(ctx context.Context, periodicUUID string, status domain.PeriodicStatus) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodicConfig{})).
		Where("periodic_uuid = ?", periodicUUID).
		Update("periodic_status", status).Error
	if err != nil {
		return fmt.Errorf("gorm: update periodic config %q status: %w", periodicUUID, mapError(err))
	}
	return nil
}

func (r *GormPeriodicConfigRepository) UpdateStatusFrom(ctx context.Context, periodicUUID string, from, to domain.PeriodicStatus) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodicConfig{})).
		Where("periodic_uuid = ? AND periodic_status = ?", periodicUUID, from).
		Update("periodic_status", to).Error
	if err != nil {
		return fmt.Errorf("gorm: update periodic config %q status from %s: %w", periodicUUID, from, mapError(err))
	}
	return nil
}

func (r *GormPeriodicConfigRepository) Remove(ctx context.Context, periodicUUID string) error {
	err := alive(r.db.WithContext(ctx).Model(&domain.RoomPeriodicConfig{})).
		Where("periodic_uuid = ?", periodicUUID).
		Update("is_delete", true).Error
	if err != nil {
		return fmt.Errorf("gorm: remove periodic config %q: %w", periodicUUID, mapError(err))
	}
	return nil
}
