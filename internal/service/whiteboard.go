package service

import (
	"context"

	"classroom-scheduler/internal/domain"
)

// Whiteboard 抽象外部白板会话服务。
type Whiteboard interface {
	// CreateRoom 为指定区域创建一个白板会话，返回会话 UUID。
	CreateRoom(ctx context.Context, region domain.Region) (string, error)

	// BanRoom 封禁 (回收) 一个白板会话。实现必须幂等：封禁已不存在的
	// 会话不报错，因为任务可能被至少一次地重试。
	BanRoom(ctx context.Context, region domain.Region, whiteboardRoomUUID string) error
}

// WhiteboardBanner 在数据库事务提交之后调度白板封禁。
// 调度失败只记录日志，不回滚已提交的事务。
type WhiteboardBanner interface {
	ScheduleBan(ctx context.Context, region domain.Region, whiteboardRoomUUID string) error
}
