// Package memory 提供 Repository 接口的进程内实现
// 语义与 gorm 实现保持一致：Get 未命中返回 CodeNotFound，查询按列名过滤、排序、分页
// 用于本地开发（storageConfig.driver = "memory"）和各包的单元测试
package memory

import (
	"context"
	"sync"

	"mood_chat_server/internal/dao/mysql/repository"
	"mood_chat_server/internal/model"
	"mood_chat_server/pkg/errorx"
)

// Store 三个集合共用一把锁，返回值一律是拷贝
type Store struct {
	mu       sync.RWMutex
	groups   map[string]model.Group
	members  map[string]model.GroupMember
	messages map[int64]model.GroupMessage
}

// NewStore 创建空的内存存储
func NewStore() *Store {
	return &Store{
		groups:   make(map[string]model.Group),
		members:  make(map[string]model.GroupMember),
		messages: make(map[int64]model.GroupMessage),
	}
}

// Repositories 以内存存储构造 Repository 聚合
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Group:       &groupRepository{s},
		GroupMember: &groupMemberRepository{s},
		Message:     &groupMessageRepository{s},
	}
}

// NewRepositories 等价于 NewStore().Repositories()
func NewRepositories() *repository.Repositories {
	return NewStore().Repositories()
}

// checkCtx 已取消或超时的调用与 gorm 实现一样归为 StoreUnavailable
func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errorx.Wrap(err, errorx.CodeStoreUnavailable, "memory store")
	}
	return nil
}
