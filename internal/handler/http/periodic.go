package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/domain"
	"classroom-scheduler/internal/middleware"
	"classroom-scheduler/internal/service"
)

// PeriodicHandler 封装了周期序列相关的 HTTP 处理逻辑。
type PeriodicHandler struct {
	periodicService *service.PeriodicService
	roomService     *service.RoomService
}

// NewPeriodicHandler 创建 PeriodicHandler 实例。
func NewPeriodicHandler(periodicService *service.PeriodicService, roomService *service.RoomService) *PeriodicHandler {
	return &PeriodicHandler{periodicService: periodicService, roomService: roomService}
}

// CreatePeriodicRequest 定义创建周期序列请求的结构体。
// Rate 与 EndAt 二选一: Rate 大于 0 时按次数展开，否则按截止日展开。
type CreatePeriodicRequest struct {
	Title     string          `json:"title" binding:"required,max=150"`
	RoomType  domain.RoomType `json:"room_type" binding:"required"`
	Region    domain.Region   `json:"region" binding:"required"`
	BeginTime time.Time       `json:"begin_time" binding:"required"`
	EndTime   time.Time       `json:"end_time" binding:"required"`
	Weeks     []domain.Week   `json:"weeks" binding:"required,min=1,max=7"`
	Rate      int             `json:"rate" binding:"omitempty,min=1,max=50"`
	EndAt     time.Time       `json:"end_at"`
}

// Create 处理创建周期序列的请求。
func (h *PeriodicHandler) Create(c *gin.Context) {
	userUUID := middleware.UserUUID(c)
	logCtx := logrus.WithField("user_uuid", userUUID)

	var req CreatePeriodicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.CreatePeriodic: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	result, err := h.periodicService.CreatePeriodic(c.Request.Context(), service.CreatePeriodicParams{
		OwnerUUID: userUUID,
		Title:     req.Title,
		RoomType:  req.RoomType,
		Region:    req.Region,
		BeginTime: req.BeginTime,
		EndTime:   req.EndTime,
		Weeks:     req.Weeks,
		Rate:      req.Rate,
		EndAt:     req.EndAt,
	})
	if err != nil {
		logCtx.WithError(err).Warn("Handler.CreatePeriodic: Failed to create periodic room")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("periodic_uuid", result.PeriodicUUID).Info("Handler.CreatePeriodic: Periodic room created successfully")
	c.JSON(http.StatusOK, gin.H{
		"periodic_uuid":   result.PeriodicUUID,
		"first_room_uuid": result.FirstRoomUUID,
		"invite_code":     result.InviteCode,
	})
}

// periodicUUIDRequest 是只携带序列 UUID 的请求体。
type periodicUUIDRequest struct {
	PeriodicUUID string `json:"periodic_uuid" binding:"required"`
}

// Cancel 处理取消整个周期序列的请求。
func (h *PeriodicHandler) Cancel(c *gin.Context) {
	userUUID := middleware.UserUUID(c)
	logCtx := logrus.WithField("user_uuid", userUUID)

	var req periodicUUIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.CancelPeriodic: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: periodic_uuid is required"})
		return
	}

	if err := h.roomService.CancelPeriodic(c.Request.Context(), req.PeriodicUUID, userUUID); err != nil {
		logCtx.WithField("periodic_uuid", req.PeriodicUUID).WithError(err).Warn("Handler.CancelPeriodic: Failed to cancel")
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("periodic_uuid", req.PeriodicUUID).Info("Handler.CancelPeriodic: Periodic room cancelled")
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// subRoomRequest 是针对单次课程的请求体。
type subRoomRequest struct {
	PeriodicUUID string `json:"periodic_uuid" binding:"required"`
	RoomUUID     string `json:"room_uuid" binding:"required"`
}

// CancelSubRoom 处理删除单次课程的请求。
func (h *PeriodicHandler) CancelSubRoom(c *gin.Context) {
	userUUID := middleware.UserUUID(c)
	logCtx := logrus.WithField("user_uuid", userUUID)

	var req subRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.CancelSubRoom: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: periodic_uuid and room_uuid required"})
		return
	}

	if err := h.periodicService.CancelSubRoom(c.Request.Context(), req.PeriodicUUID, req.RoomUUID, userUUID); err != nil {
		logCtx.WithFields(logrus.Fields{"periodic_uuid": req.PeriodicUUID, "room_uuid": req.RoomUUID}).
			WithError(err).Warn("Handler.CancelSubRoom: Failed to cancel sub room")
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// UpdateSubRoomRequest 定义修改单次课程时间的请求体。
type UpdateSubRoomRequest struct {
	PeriodicUUID string    `json:"periodic_uuid" binding:"required"`
	RoomUUID     string    `json:"room_uuid" binding:"required"`
	BeginTime    time.Time `json:"begin_time" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
}

// UpdateSubRoom 处理修改单次课程起止时间的请求。
func (h *PeriodicHandler) UpdateSubRoom(c *gin.Context) {
	userUUID := middleware.UserUUID(c)
	logCtx := logrus.WithField("user_uuid", userUUID)

	var req UpdateSubRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.UpdateSubRoom: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	err := h.periodicService.UpdateSubRoom(c.Request.Context(), req.PeriodicUUID, req.RoomUUID, req.BeginTime, req.EndTime, userUUID)
	if err != nil {
		logCtx.WithFields(logrus.Fields{"periodic_uuid": req.PeriodicUUID, "room_uuid": req.RoomUUID}).
			WithError(err).Warn("Handler.UpdateSubRoom: Failed to update sub room")
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
