// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"time"

	"mood_chat_server/internal/config"
	"mood_chat_server/internal/dao/mysql/repository"
	myredis "mood_chat_server/internal/dao/redis"
	"mood_chat_server/internal/service/cleanup"
	"mood_chat_server/internal/service/group"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过 Services 访问各个 Service
type Services struct {
	Group   GroupService   // 群组 Service
	Cleanup CleanupService // 清理 Service

	// 以下为具体实现，main.go 用来注入 broadcaster、启动定时清理
	GroupImpl *group.Service
	Sweeper   *cleanup.Sweeper
}

// NewServices 创建并注入所有 Service 实例
// 依赖注入流程：
//  1. 创建清理器（群组服务的惰性清理依赖它）
//  2. 创建匿名昵称分配器和群组服务
//  3. 注册删除回调：群组删除后释放群组服务的本地状态
//
// cache 为 nil 表示不启用 Redis 缓存
func NewServices(repos *repository.Repositories, cache myredis.AsyncCacheService, conf config.GroupConfig) *Services {
	sweeper := cleanup.NewSweeper(repos, conf.SweepInterval())

	opts := []group.Option{
		group.WithMoodGroupTTL(time.Duration(conf.MoodGroupTTLHours) * time.Hour),
		group.WithRecentLimit(conf.RecentMessageLimit),
		group.WithMaxMessageLength(conf.MaxMessageLength),
	}
	if cache != nil {
		opts = append(opts, group.WithCache(cache))
	}
	alias := group.NewAliasAllocator(repos.GroupMember, conf.MaxAliasAttempts)
	groupSvc := group.NewGroupService(repos, alias, sweeper, opts...)
	sweeper.OnGroupDeleted(groupSvc.ForgetGroup)

	return &Services{
		Group:     groupSvc,
		Cleanup:   sweeper,
		GroupImpl: groupSvc,
		Sweeper:   sweeper,
	}
}
