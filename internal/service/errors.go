package service

import "errors"

// 业务层错误。全部为可恢复错误，由 handler 层翻译为 {status, code}
// 响应；只有未知错误 (事务/连接失败) 以通用失败透出并记录 error 日志。
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPeriodicNotFound = errors.New("periodic room not found")

	// ErrNotPermission 表示调用者不是房主，或试图通过普通房间入口
	// 操作周期性子房间。
	ErrNotPermission = errors.New("not permission")

	ErrRoomIsRunning  = errors.New("room is running")
	ErrRoomNotRunning = errors.New("room not running")
	ErrRoomNotIdle    = errors.New("room not idle")
	ErrRoomIsEnded    = errors.New("room is ended")
	ErrPeriodicEnded  = errors.New("periodic has been ended")

	ErrParamsCheckFailed = errors.New("params check failed")

	// ErrInviteCodeDrained 表示一批邀请码候选全部被占用，调用方可换批重试。
	ErrInviteCodeDrained = errors.New("invite code drained")
	// ErrUserPmiDrained 表示 PMI 候选批次耗尽。
	ErrUserPmiDrained = errors.New("user pmi drained")

	// ErrExhaustiveAttack 表示登录/验证尝试次数超限。
	ErrExhaustiveAttack = errors.New("exhaustive attack")

	ErrUserOrPasswordIncorrect = errors.New("user or password incorrect")
	ErrPhoneRegistered         = errors.New("phone already registered")

	// ErrCanRetry 表示数据暂时不一致 (如周期序列没有任何非 Stopped
	// 的子房间)，客户端可以稍后重试。出现即意味着存在 bug 或数据损坏。
	ErrCanRetry = errors.New("current data inconsistent, retry later")
)
