package repository

import "context"

// Store 聚合调度核心的全部关系型存储库，并提供事务执行能力。
// 所有跨表的读改写序列必须通过 InTx 在同一个事务中完成。
type Store interface {
	Rooms() RoomRepository
	Periodic() RoomPeriodicRepository
	PeriodicConfigs() RoomPeriodicConfigRepository
	RoomUsers() RoomUserRepository
	PeriodicUsers() RoomPeriodicUserRepository
	Pmi() UserPmiRepository
	Users() UserRepository

	// InTx 在一个事务中执行 fn，fn 内通过传入的 Store 访问各存储库。
	// fn 返回错误时整个事务回滚，否则原子提交。
	InTx(ctx context.Context, fn func(tx Store) error) error
}
