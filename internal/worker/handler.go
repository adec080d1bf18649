package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/service"
	"classroom-scheduler/internal/tasks"
)

// WhiteboardBanHandler 处理白板封禁任务。
type WhiteboardBanHandler struct {
	whiteboard service.Whiteboard
}

// NewWhiteboardBanHandler 创建 Handler 实例。
func NewWhiteboardBanHandler(whiteboard service.Whiteboard) *WhiteboardBanHandler {
	return &WhiteboardBanHandler{whiteboard: whiteboard}
}

// ProcessTask 实现 asynq.Handler 接口。封禁操作本身幂等，
// 重复投递的任务会再次封禁同一个会话并成功返回。
func (h *WhiteboardBanHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	logCtx := logrus.WithField("task_type", t.Type())

	var payload tasks.WhiteboardBanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	logCtx = logCtx.WithField("whiteboard_room_uuid", payload.WhiteboardRoomUUID)
	if err := h.whiteboard.BanRoom(ctx, payload.Region, payload.WhiteboardRoomUUID); err != nil {
		logCtx.WithError(err).Error("Failed to ban whiteboard room")
		return fmt.Errorf("ban whiteboard room %s: %w", payload.WhiteboardRoomUUID, err)
	}

	logCtx.Info("Whiteboard ban task processed successfully")
	return nil
}
