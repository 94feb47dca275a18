package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mood_chat_server/internal/config"
	"mood_chat_server/internal/dao/memory"
	dao "mood_chat_server/internal/dao/mysql"
	"mood_chat_server/internal/dao/mysql/repository"
	myredis "mood_chat_server/internal/dao/redis"
	"mood_chat_server/internal/handler"
	"mood_chat_server/internal/https_server"
	"mood_chat_server/internal/infrastructure/logger"
	"mood_chat_server/internal/infrastructure/mq"
	"mood_chat_server/internal/service"
	"mood_chat_server/internal/service/chat"
	"mood_chat_server/pkg/util/jwt"
	"mood_chat_server/pkg/util/snowflake"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()
	zap.L().Info("日志初始化成功")

	// 3. 初始化存储
	repos, err := initStorage(conf)
	if err != nil {
		zap.L().Fatal("存储初始化失败", zap.Error(err))
	}
	zap.L().Info("存储初始化成功", zap.String("driver", conf.Driver))

	// 4. 初始化 Redis（可选，失败时不使用缓存）
	var cache myredis.AsyncCacheService
	if conf.RedisConfig.Enabled {
		redisCache, err := myredis.Init(&conf.RedisConfig)
		if err != nil {
			zap.L().Warn("Redis 不可用，关闭消息缓存", zap.Error(err))
		} else {
			defer func() { _ = redisCache.Close() }()
			cache = redisCache
			zap.L().Info("Redis 初始化成功")
		}
	}

	// 5. 初始化 JWT、雪花 ID、参数校验翻译
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)
	snowflake.Init(conf.SnowflakeConfig.MachineID)
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("初始化翻译器失败", zap.Error(err))
	}

	// 6. 初始化 Service 层 (依赖注入)
	svc := service.NewServices(repos, cache, conf.GroupConfig)
	zap.L().Info("Service 层初始化成功")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. 初始化实时层
	hub := chat.NewHub(svc.Group)
	svc.Sweeper.OnGroupDeleted(hub.EvictRoom)
	if conf.KafkaConfig.MessageMode == "kafka" {
		kafkaClient := mq.NewKafkaClient(conf.KafkaConfig)
		if err := kafkaClient.CreateTopic(); err != nil {
			zap.L().Warn("create kafka topic", zap.Error(err))
		}
		defer kafkaClient.Close()
		broker := chat.NewKafkaBroker(hub, kafkaClient)
		svc.GroupImpl.SetBroadcaster(broker)
		go broker.Start(ctx)
	} else {
		svc.GroupImpl.SetBroadcaster(hub)
	}
	zap.L().Info("ChatServer 初始化成功", zap.String("mode", conf.KafkaConfig.MessageMode))

	// 8. 启动定时清理
	go svc.Sweeper.Start(ctx)

	// 9. 启动 HTTP 服务
	engine := https_server.Init(&conf.MainConfig, handler.NewHandlers(svc, hub))
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler: engine,
	}
	go func() {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 等待信号
	<-ctx.Done()
	zap.L().Info("关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("server shutdown", zap.Error(err))
	}
	// WebSocket 连接已被劫持，srv.Shutdown 管不到；先断开它们，再由 defer 关闭 Kafka 和 Redis
	if err := hub.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("hub shutdown", zap.Error(err))
	}
	zap.L().Info("服务器已关闭")
}

// initStorage 按 storageConfig.driver 选择存储实现
func initStorage(conf *config.Config) (*repository.Repositories, error) {
	switch conf.Driver {
	case "mysql":
		return dao.Init(conf)
	case "memory":
		zap.L().Warn("使用内存存储，重启后数据丢失")
		return memory.NewRepositories(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Driver)
	}
}
