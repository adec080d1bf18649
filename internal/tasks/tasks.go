// Package tasks 定义任务队列里流转的任务类型与载荷。
package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"classroom-scheduler/internal/domain"
)

// 任务类型常量
const (
	TypeWhiteboardBan = "whiteboard:ban" // 白板会话封禁任务类型
)

// WhiteboardBanPayload 定义了白板封禁任务的数据结构。
type WhiteboardBanPayload struct {
	Region             domain.Region `json:"region"`
	WhiteboardRoomUUID string        `json:"whiteboard_room_uuid"`
}

// NewWhiteboardBanTask 创建一个白板封禁任务。
func NewWhiteboardBanTask(region domain.Region, whiteboardRoomUUID string) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(WhiteboardBanPayload{
		Region:             region,
		WhiteboardRoomUUID: whiteboardRoomUUID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWhiteboardBan, payloadBytes), nil
}

// Enqueuer 把任务投递到队列，实现业务层的事后调度接口。
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer 创建 Enqueuer 实例。
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	if client == nil {
		panic("asynq client cannot be nil for Enqueuer")
	}
	return &Enqueuer{client: client}
}

// ScheduleBan 投递一个白板封禁任务。任务按至少一次语义处理，
// 消费端必须幂等。
func (e *Enqueuer) ScheduleBan(ctx context.Context, region domain.Region, whiteboardRoomUUID string) error {
	task, err := NewWhiteboardBanTask(region, whiteboardRoomUUID)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue("default"), asynq.MaxRetry(10))
	return err
}
