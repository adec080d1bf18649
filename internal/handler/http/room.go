package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/domain"
	"classroom-scheduler/internal/middleware"
	"classroom-scheduler/internal/service"
)

// RoomHandler 封装了房间生命周期与加入、列表相关的 HTTP 处理逻辑。
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 创建 RoomHandler 实例。
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// CreateOrdinaryRequest 定义创建普通房间请求的结构体。
type CreateOrdinaryRequest struct {
	Title     string          `json:"title" binding:"required,max=150"`
	RoomType  domain.RoomType `json:"room_type" binding:"required"`
	Region    domain.Region   `json:"region" binding:"required"`
	BeginTime time.Time       `json:"begin_time" binding:"required"`
	EndTime   time.Time       `json:"end_time" binding:"required"`
}

// CreateOrdinary 处理创建普通房间的请求。
func (h *RoomHandler) CreateOrdinary(c *gin.Context) {
	userUUID := middleware.UserUUID(c)
	logCtx := logrus.WithField("user_uuid", userUUID)

	var req CreateOrdinaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.CreateOrdinary: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	result, err := h.roomService.CreateOrdinary(c.Request.Context(), service.CreateOrdinaryParams{
		OwnerUUID: userUUID,
		Title:     req.Title,
		RoomType:  req.RoomType,
		Region:    req.Region,
		BeginTime: req.BeginTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		logCtx.WithError(err).Warn("Handler.CreateOrdinary: Failed to create room")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithFields(logrus.Fields{"room_uuid": result.RoomUUID, "invite_code": result.InviteCode}).
		Info("Handler.CreateOrdinary: Room created successfully")
	c.JSON(http.StatusOK, gin.H{
		"room_uuid":   result.RoomUUID,
		"invite_code": result.InviteCode,
	})
}

// roomUUIDRequest 是只携带房间 UUID 的请求体。
type roomUUIDRequest struct {
	RoomUUID string `json:"room_uuid" binding:"required"`
}

// Start 处理启动房间的请求。
func (h *RoomHandler) Start(c *gin.Context) {
	h.lifecycle(c, "start", h.roomService.Start)
}

// Pause 处理暂停房间的请求。
func (h *RoomHandler) Pause(c *gin.Context) {
	h.lifecycle(c, "pause", h.roomService.Pause)
}

// Stop 处理结束房间的请求。
func (h *RoomHandler) Stop(c *gin.Context) {
	h.lifecycle(c, "stop", h.roomService.Stop)
}

// CancelOrdinary 处理取消普通房间的请求。
func (h *RoomHandler) CancelOrdinary(c *gin.Context) {
	h.lifecycle(c, "cancel", h.roomService.CancelOrdinary)
}

// lifecycle 是生命周期操作的公共骨架: 取认证用户、绑定 room_uuid、
// 调用对应的业务操作。
func (h *RoomHandler) lifecycle(c *gin.Context, name string, op func(ctx context.Context, roomUUID, callerUUID string) error) {
	userUUID := middleware.UserUUID(c)
	logCtx := logrus.WithFields(logrus.Fields{"user_uuid": userUUID, "op": name})

	var req roomUUIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.lifecycle: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: room_uuid is required"})
		return
	}

	if err := op(c.Request.Context(), req.RoomUUID, userUUID); err != nil {
		logCtx.WithField("room_uuid", req.RoomUUID).WithError(err).Warn("Handler.lifecycle: Operation failed")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("room_uuid", req.RoomUUID).Info("Handler.lifecycle: Operation succeeded")
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// JoinRequest 定义加入房间请求的结构体，入参可以是邀请码或 UUID。
type JoinRequest struct {
	UUID string `json:"uuid" binding:"required,max=40"`
}

// Join 处理加入房间的请求。
func (h *RoomHandler) Join(c *gin.Context) {
	userUUID := middleware.UserUUID(c)
	logCtx := logrus.WithField("user_uuid", userUUID)

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.Join: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: uuid is required"})
		return
	}

	result, err := h.roomService.Join(c.Request.Context(), req.UUID, userUUID)
	if err != nil {
		logCtx.WithField("uuid", req.UUID).WithError(err).Warn("Handler.Join: Failed to join room")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("room_uuid", result.RoomUUID).Info("Handler.Join: User joined room successfully")
	c.JSON(http.StatusOK, gin.H{
		"room_uuid":            result.RoomUUID,
		"periodic_uuid":        result.PeriodicUUID,
		"owner_uuid":           result.OwnerUUID,
		"room_type":            result.RoomType,
		"room_status":          result.RoomStatus,
		"whiteboard_room_uuid": result.WhiteboardRoomUUID,
		"region":               result.Region,
		"rtc_uid":              result.RtcUID,
	})
}

// List 返回当前用户加入的全部房间。
func (h *RoomHandler) List(c *gin.Context) {
	userUUID := middleware.UserUUID(c)

	items, err := h.roomService.List(c.Request.Context(), userUUID)
	if err != nil {
		logrus.WithField("user_uuid", userUUID).WithError(err).Error("Handler.List: Failed to list rooms")
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": items})
}
