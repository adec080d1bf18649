package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/middleware"
	"classroom-scheduler/internal/service"
)

// PmiHandler 封装了个人会议号相关的 HTTP 处理逻辑。
type PmiHandler struct {
	pmiService *service.UserPmiService
}

// NewPmiHandler 创建 PmiHandler 实例。
func NewPmiHandler(pmiService *service.UserPmiService) *PmiHandler {
	return &PmiHandler{pmiService: pmiService}
}

// Get 返回当前用户的个人会议号，首次调用时分配。
func (h *PmiHandler) Get(c *gin.Context) {
	userUUID := middleware.UserUUID(c)

	pmi, err := h.pmiService.GetOrCreate(c.Request.Context(), userUUID)
	if err != nil {
		logrus.WithField("user_uuid", userUUID).WithError(err).Error("Handler.PmiGet: Failed to get pmi")
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pmi": pmi})
}

// ExistsRoom 返回当前用户的个人会议号上是否挂着活跃房间。
func (h *PmiHandler) ExistsRoom(c *gin.Context) {
	userUUID := middleware.UserUUID(c)

	exists, err := h.pmiService.ExistsRoom(c.Request.Context(), userUUID)
	if err != nil {
		logrus.WithField("user_uuid", userUUID).WithError(err).Error("Handler.PmiExistsRoom: Failed to check pmi room")
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": exists})
}
