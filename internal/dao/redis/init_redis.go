// Package redis 提供 Redis 缓存操作的封装
// 使用 github.com/redis/go-redis/v9 作为底层客户端
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mood_chat_server/internal/config"

	"github.com/redis/go-redis/v9"
)

// Init 建立 Redis 连接并启动缓存 Worker Pool
// 连接失败直接返回错误，由调用方决定是否降级为无缓存运行
func Init(conf *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Host + ":" + strconv.Itoa(conf.Port),
		Password: conf.Password,
		DB:       conf.Db,
		// 连接池配置
		PoolSize:     50,
		MinIdleConns: 8, // 与 Worker 数量匹配
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s:%d: %w", conf.Host, conf.Port, err)
	}

	// 8 个 Worker，缓冲区 1000，群消息缓存失效任务共享
	return NewRedisCache(client, 8, 1000), nil
}
