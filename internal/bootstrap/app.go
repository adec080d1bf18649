// Package bootstrap 负责配置装载与应用组件的组装。
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "classroom-scheduler/internal/handler/http"
	gormpersistence "classroom-scheduler/internal/infra/persistence/gorm"
	"classroom-scheduler/internal/infra/setup"
	redisstate "classroom-scheduler/internal/infra/state/redis"
	"classroom-scheduler/internal/infra/whiteboard"
	"classroom-scheduler/internal/limiter"
	"classroom-scheduler/internal/middleware"
	"classroom-scheduler/internal/service"
	"classroom-scheduler/internal/tasks"
	"classroom-scheduler/internal/worker"
)

// Config 结构体用于存储从环境变量或文件加载的配置。
type Config struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret      string
	JWTExpiryHours int

	ServerPort string
	LogLevel   string
	AppEnv     string

	// RegionCode 是邀请码和 PMI 的固定数字前缀，按部署区域配置。
	RegionCode string

	WhiteboardBaseURL string
	WhiteboardToken   string
}

// LoadConfig 从环境变量加载配置。
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)，忽略错误，允许只使用环境变量
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:            os.Getenv("MYSQL_USER"),
		DBPassword:        os.Getenv("MYSQL_PASSWORD"),
		DBHost:            os.Getenv("MYSQL_HOST"),
		DBPort:            os.Getenv("MYSQL_PORT"),
		DBName:            os.Getenv("MYSQL_DB"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		ServerPort:        os.Getenv("SERVER_PORT"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		AppEnv:            os.Getenv("APP_ENV"),
		RegionCode:        os.Getenv("REGION_CODE"),
		WhiteboardBaseURL: os.Getenv("WHITEBOARD_BASE_URL"),
		WhiteboardToken:   os.Getenv("WHITEBOARD_TOKEN"),
		JWTExpiryHours:    24,
	}

	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	if hours, err := strconv.Atoi(os.Getenv("JWT_EXPIRY_HOURS")); err == nil && hours > 0 {
		cfg.JWTExpiryHours = hours
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.RegionCode == "" {
		cfg.RegionCode = "1"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	if cfg.WhiteboardBaseURL == "" || cfg.WhiteboardToken == "" {
		return nil, fmt.Errorf("environment variables WHITEBOARD_BASE_URL and WHITEBOARD_TOKEN must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App 结构体包含应用的所有组件和配置。
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	HttpServer  *http.Server
}

// NewApp 创建并初始化应用的所有组件。
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Info("Configuration loaded successfully")

	// 3. 初始化基础设施
	log.Info("Initializing infrastructure...")
	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	asynqClient := asynq.NewClient(redisClientOpt)
	log.Info("Infrastructure initialized successfully")

	// 4. 初始化存储层
	store := gormpersistence.NewGormStore(db)
	counters := redisstate.NewRedisCounterStore(redisClient)

	// 5. 初始化外部服务与任务调度
	whiteboardClient := whiteboard.NewClient(cfg.WhiteboardBaseURL, cfg.WhiteboardToken)
	banner := tasks.NewEnqueuer(asynqClient)

	// 6. 初始化 Services
	log.Info("Initializing services...")
	attemptGuard := limiter.NewAttemptGuard(counters)
	authService, err := service.NewAuthService(store.Users(), attemptGuard, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	inviteCodes := service.NewInviteCodeService(counters, cfg.RegionCode)
	roomService := service.NewRoomService(store, inviteCodes, whiteboardClient, banner)
	periodicService := service.NewPeriodicService(store, inviteCodes, whiteboardClient, banner)
	pmiService := service.NewUserPmiService(store, counters, cfg.RegionCode)
	log.Info("Services initialized")

	// 7. 初始化 Handlers
	authHandler := httpHandler.NewAuthHandler(authService)
	roomHandler := httpHandler.NewRoomHandler(roomService)
	periodicHandler := httpHandler.NewPeriodicHandler(periodicService, roomService)
	pmiHandler := httpHandler.NewPmiHandler(pmiService)

	// 8. 初始化 Worker Server
	workerServer := worker.NewWorkerServer(redisClientOpt, whiteboardClient, log)

	// 9. 初始化 Gin Engine 和路由
	log.Info("Setting up Gin router...")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))

	ipBlocker := limiter.NewIPBlocker(counters, limiter.DefaultRules())

	api := router.Group("/api")
	authRoutes := api.Group("/auth").Use(middleware.IPBlock(ipBlocker))
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}
	roomRoutes := api.Group("/rooms").Use(middleware.Auth(cfg.JWTSecret))
	{
		roomRoutes.POST("/create/ordinary", roomHandler.CreateOrdinary)
		roomRoutes.POST("/create/periodic", periodicHandler.Create)
		roomRoutes.POST("/start", roomHandler.Start)
		roomRoutes.POST("/pause", roomHandler.Pause)
		roomRoutes.POST("/stop", roomHandler.Stop)
		roomRoutes.POST("/cancel/ordinary", roomHandler.CancelOrdinary)
		roomRoutes.POST("/cancel/periodic", periodicHandler.Cancel)
		roomRoutes.POST("/cancel/periodic-sub-room", periodicHandler.CancelSubRoom)
		roomRoutes.POST("/update/periodic-sub-room", periodicHandler.UpdateSubRoom)
		roomRoutes.POST("/join", roomHandler.Join)
		roomRoutes.GET("/list", roomHandler.List)
	}
	pmiRoutes := api.Group("/pmi").Use(middleware.Auth(cfg.JWTSecret))
	{
		pmiRoutes.GET("", pmiHandler.Get)
		pmiRoutes.GET("/exists-room", pmiHandler.ExistsRoom)
	}
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	// 10. 初始化 HTTP Server
	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		AsynqClient: asynqClient,
		AsynqServer: workerServer,
		HttpServer:  httpServer,
	}, nil
}

// Start 启动应用的后台 Goroutine 和 HTTP 服务器。
func (a *App) Start() {
	go a.AsynqServer.Start()
	a.Log.Info("Asynq worker server routine started")

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 按依赖反序优雅关闭应用。
func (a *App) Shutdown(ctx context.Context) {
	a.Log.Info("Shutting down application...")

	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("HTTP server shutdown failed: %v", err)
	}

	a.AsynqServer.Shutdown()

	if err := a.AsynqClient.Close(); err != nil {
		a.Log.Errorf("Asynq client close failed: %v", err)
	}
	if err := a.RedisClient.Close(); err != nil {
		a.Log.Errorf("Redis client close failed: %v", err)
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			a.Log.Errorf("Database close failed: %v", err)
		}
	}

	a.Log.Info("Application shut down complete.")
}

// LoggerMiddleware 返回请求日志中间件。
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"ip":      c.ClientIP(),
			"latency": time.Since(start).String(),
		}).Info("request handled")
	}
}
