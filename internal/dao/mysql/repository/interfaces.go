// Package repository 定义数据访问层接口和聚合结构
// 采用 Repository 模式将数据访问逻辑与业务逻辑分离
// 接口在此文件定义，gorm 实现在各自的文件中，内存实现见 internal/dao/memory
package repository

import (
	"context"

	"mood_chat_server/internal/model"
)

// ==================== Repository 接口定义 ====================
//
// 所有方法的错误约定：
//   - Get 未命中 -> errorx.CodeNotFound
//   - 其他驱动错误（包括超时） -> errorx.CodeStoreUnavailable
//
// 本层不做重试，也不包含业务规则。

// GroupRepository 群组数据访问接口
type GroupRepository interface {
	// Get 根据 id 查找群组
	Get(ctx context.Context, id string) (*model.Group, error)
	// Find 按条件、排序、分页查询群组
	Find(ctx context.Context, q Query) ([]model.Group, error)
	// Count 按条件计数（忽略排序与分页）
	Count(ctx context.Context, q Query) (int64, error)
	// Create 创建群组
	Create(ctx context.Context, group *model.Group) error
	// Update 局部更新，fields 的 key 为列名
	Update(ctx context.Context, id string, fields map[string]any) error
	// IncrementMemberCount member_count + 1
	IncrementMemberCount(ctx context.Context, id string) error
	// DecrementMemberCount member_count - 1，最小为 0
	DecrementMemberCount(ctx context.Context, id string) error
	// Delete 物理删除，记录不存在不报错
	Delete(ctx context.Context, id string) error
}

// GroupMemberRepository 群成员数据访问接口
type GroupMemberRepository interface {
	Get(ctx context.Context, id string) (*model.GroupMember, error)
	Find(ctx context.Context, q Query) ([]model.GroupMember, error)
	Count(ctx context.Context, q Query) (int64, error)
	Create(ctx context.Context, member *model.GroupMember) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// GroupMessageRepository 群消息数据访问接口
// 消息写入后不可修改，因此没有 Update
type GroupMessageRepository interface {
	Get(ctx context.Context, id int64) (*model.GroupMessage, error)
	Find(ctx context.Context, q Query) ([]model.GroupMessage, error)
	Count(ctx context.Context, q Query) (int64, error)
	Create(ctx context.Context, message *model.GroupMessage) error
	Delete(ctx context.Context, id int64) error
}

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	Group       GroupRepository        // 群组 Repository
	GroupMember GroupMemberRepository  // 群成员 Repository
	Message     GroupMessageRepository // 群消息 Repository
}
