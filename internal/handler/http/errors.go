package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"classroom-scheduler/internal/service"
)

// HandleServiceError 把业务层的哨兵错误翻译为 HTTP 状态码。
// 未识别的错误按服务端错误处理并记录 error 日志。
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrPeriodicNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotPermission):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrRoomIsRunning),
		errors.Is(err, service.ErrRoomNotRunning),
		errors.Is(err, service.ErrRoomNotIdle),
		errors.Is(err, service.ErrRoomIsEnded),
		errors.Is(err, service.ErrPeriodicEnded):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrParamsCheckFailed),
		errors.Is(err, service.ErrPhoneRegistered):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserOrPasswordIncorrect):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrExhaustiveAttack):
		ErrorResponse(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrInviteCodeDrained),
		errors.Is(err, service.ErrUserPmiDrained),
		errors.Is(err, service.ErrCanRetry):
		ErrorResponse(c, http.StatusServiceUnavailable, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
