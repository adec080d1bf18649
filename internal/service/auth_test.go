package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"classroom-scheduler/internal/limiter"
	"classroom-scheduler/internal/rediskey"
	"classroom-scheduler/internal/service"
)

func newAuthEnv(t *testing.T) (*env, *service.AuthService) {
	t.Helper()
	e := newEnv(t)
	guard := limiter.NewAttemptGuard(e.counters)
	authService, err := service.NewAuthService(e.store.Users(), guard, "test-secret", 1)
	require.NoError(t, err, "创建 AuthService 不应失败")
	return e, authService
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	// Arrange
	e, authService := newAuthEnv(t)
	ctx := context.Background()

	// Act: 注册
	user, err := authService.Register(ctx, "13800000001", "小明", "StrongPass123")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.UserUUID)
	assert.Empty(t, user.Password, "返回的用户密码应为空")

	stored, err := e.store.Users().FindByPhone(ctx, "13800000001")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("StrongPass123")),
		"密码应被正确哈希")

	// Act: 登录
	token, err := authService.Login(ctx, "13800000001", "StrongPass123")

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestAuthService_Register_DuplicatePhone(t *testing.T) {
	// Arrange
	_, authService := newAuthEnv(t)
	ctx := context.Background()
	_, err := authService.Register(ctx, "13800000001", "小明", "password1")
	require.NoError(t, err)

	// Act
	_, err = authService.Register(ctx, "13800000001", "小红", "password2")

	// Assert
	assert.True(t, errors.Is(err, service.ErrPhoneRegistered))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	// Arrange
	_, authService := newAuthEnv(t)
	ctx := context.Background()
	_, err := authService.Register(ctx, "13800000001", "小明", "correct-password")
	require.NoError(t, err)

	// Act
	_, err = authService.Login(ctx, "13800000001", "wrong-password")

	// Assert: 统一返回认证失败，不区分用户不存在与密码错误
	assert.True(t, errors.Is(err, service.ErrUserOrPasswordIncorrect))

	_, err = authService.Login(ctx, "13899999999", "whatever")
	assert.True(t, errors.Is(err, service.ErrUserOrPasswordIncorrect))
}

func TestAuthService_Login_AttemptCeiling(t *testing.T) {
	// Arrange
	e, authService := newAuthEnv(t)
	ctx := context.Background()
	_, err := authService.Register(ctx, "13800000001", "小明", "correct-password")
	require.NoError(t, err)

	// Act: 连续失败 10 次把计数推到上限
	for i := 0; i < 10; i++ {
		_, err := authService.Login(ctx, "13800000001", "wrong-password")
		assert.True(t, errors.Is(err, service.ErrUserOrPasswordIncorrect))
	}

	// Assert: 第 11 次即使密码正确也被拒绝
	_, err = authService.Login(ctx, "13800000001", "correct-password")
	assert.True(t, errors.Is(err, service.ErrExhaustiveAttack))

	// 窗口内计数存在
	_, ok, _ := e.counters.Get(ctx, rediskey.PhoneTryLoginCount("13800000001"))
	assert.True(t, ok)
}

func TestAuthService_Login_SuccessClearsAttempts(t *testing.T) {
	// Arrange
	e, authService := newAuthEnv(t)
	ctx := context.Background()
	_, err := authService.Register(ctx, "13800000001", "小明", "correct-password")
	require.NoError(t, err)

	// 失败几次后成功登录
	for i := 0; i < 3; i++ {
		authService.Login(ctx, "13800000001", "wrong-password")
	}
	_, err = authService.Login(ctx, "13800000001", "correct-password")
	require.NoError(t, err)

	// Assert: 成功后计数清零
	_, ok, _ := e.counters.Get(ctx, rediskey.PhoneTryLoginCount("13800000001"))
	assert.False(t, ok, "登录成功应清零尝试计数")
}
