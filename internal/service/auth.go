package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"classroom-scheduler/internal/domain"
	"classroom-scheduler/internal/limiter"
	"classroom-scheduler/internal/repository"
)

// AuthService 负责手机号登录与注册的业务逻辑。
type AuthService struct {
	users     repository.UserRepository
	attempts  *limiter.AttemptGuard
	jwtSecret []byte
	jwtExpiry time.Duration
}

// NewAuthService 创建 AuthService 实例。
// jwtSecretKey 应从安全配置中获取；jwtExpiryHours 定义 token 过期的小时数。
func NewAuthService(users repository.UserRepository, attempts *limiter.AttemptGuard, jwtSecretKey string, jwtExpiryHours int) (*AuthService, error) {
	if users == nil || attempts == nil {
		panic("dependencies cannot be nil for AuthService")
	}
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("JWT secret key cannot be empty")
	}
	if jwtExpiryHours <= 0 {
		jwtExpiryHours = 24
	}
	return &AuthService{
		users:     users,
		attempts:  attempts,
		jwtSecret: []byte(jwtSecretKey),
		jwtExpiry: time.Duration(jwtExpiryHours) * time.Hour,
	}, nil
}

// Register 处理用户注册，手机号唯一。
func (s *AuthService) Register(ctx context.Context, phone, userName, password string) (*domain.User, error) {
	logCtx := logrus.WithField("phone", phone)

	if phone == "" || password == "" {
		return nil, ErrParamsCheckFailed
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash password during registration")
		return nil, err
	}

	user := &domain.User{
		UserUUID: uuid.NewString(),
		UserName: userName,
		Phone:    phone,
		Password: hashedPassword,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.Warn("Registration failed: phone already registered")
			return nil, ErrPhoneRegistered
		}
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, err
	}

	logCtx.WithField("user_uuid", user.UserUUID).Info("User registered successfully")
	user.Password = ""
	return user, nil
}

// Login 处理手机号密码登录。每次调用先记一次尝试，同一手机号十分
// 钟内最多十次，超过后直接返回 ErrExhaustiveAttack 而不再触碰数据
// 库；登录成功时清零计数。
func (s *AuthService) Login(ctx context.Context, phone, password string) (string, error) {
	logCtx := logrus.WithField("phone", phone)

	if err := s.attempts.Check(ctx, phone); err != nil {
		if errors.Is(err, limiter.ErrTooManyAttempts) {
			return "", ErrExhaustiveAttack
		}
		return "", err
	}

	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logCtx.Warn("Login attempt failed: user not found")
		} else {
			logCtx.WithError(err).Warn("Login attempt failed: error finding user")
		}
		return "", ErrUserOrPasswordIncorrect
	}

	if !checkPassword(password, user.Password) {
		logCtx.Warn("Login attempt failed: invalid password")
		return "", ErrUserOrPasswordIncorrect
	}

	token, err := s.generateJWT(user.UserUUID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate JWT token during login")
		return "", err
	}

	// 成功后清零，失败计数只约束连续失败
	if err := s.attempts.Clear(ctx, phone); err != nil {
		logCtx.WithError(err).Warn("Failed to clear login attempt counter")
	}

	logCtx.WithField("user_uuid", user.UserUUID).Info("User logged in successfully")
	return token, nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

func checkPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// generateJWT 为指定用户生成 JWT Token，主体为 user_uuid。
func (s *AuthService) generateJWT(userUUID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_uuid": userUUID,
		"exp":       time.Now().Add(s.jwtExpiry).Unix(),
		"iat":       time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
