// Package gormpersistence 提供 repository 各接口的 GORM 实现。
// 软删除 (is_delete) 由本层统一过滤，上层查询不感知墓碑行。
package gormpersistence

import (
	"context"
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"classroom-scheduler/internal/repository"
)

// GormStore 是 repository.Store 的 GORM 实现。
// 同一个 GormStore 绑定一个 *gorm.DB，事务中的 Store 绑定事务句柄。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建 GormStore 实例。
func NewGormStore(db *gorm.DB) *GormStore {
	if db == nil {
		panic("database connection cannot be nil for GormStore")
	}
	return &GormStore{db: db}
}

func (s *GormStore) Rooms() repository.RoomRepository {
	return &GormRoomRepository{db: s.db}
}

func (s *GormStore) Periodic() repository.RoomPeriodicRepository {
	return &GormRoomPeriodicRepository{db: s.db}
}

func (s *GormStore) PeriodicConfigs() repository.RoomPeriodicConfigRepository {
	return &GormPeriodicConfigRepository{db: s.db}
}

func (s *GormStore) RoomUsers() repository.RoomUserRepository {
	return &GormRoomUserRepository{db: s.db}
}

func (s *GormStore) PeriodicUsers() repository.RoomPeriodicUserRepository {
	return &GormPeriodicUserRepository{db: s.db}
}

func (s *GormStore) Pmi() repository.UserPmiRepository {
	return &GormUserPmiRepository{db: s.db}
}

func (s *GormStore) Users() repository.UserRepository {
	return &GormUserRepository{db: s.db}
}

// InTx 在单个数据库事务中执行 fn，fn 返回错误时回滚。
func (s *GormStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// mapError 把 GORM / MySQL 错误映射为仓库层错误。
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return repository.ErrDuplicateEntry
	}
	return err
}

// alive 统一附加软删除过滤条件。
func alive(db *gorm.DB) *gorm.DB {
	return db.Where("is_delete = ?", false)
}
