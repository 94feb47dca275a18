// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层和实时层调用
package service

import (
	"context"

	"mood_chat_server/internal/dto/request"
	"mood_chat_server/internal/dto/respond"
	"mood_chat_server/internal/model"
)

// GroupService 群组业务接口
// 处理群组的创建、加入退出、匿名昵称和群消息
type GroupService interface {
	// CreateGroup 创建群组，群主自动入群
	CreateGroup(ctx context.Context, ownerId string, req request.CreateGroupRequest) (*model.Group, error)
	// GetOrCreateMoodGroup 获取情绪群，不存在或已过期时新建
	GetOrCreateMoodGroup(ctx context.Context, userId, moodType string) (*model.Group, error)
	// JoinGroup 加入群组，重复加入返回已有成员记录
	JoinGroup(ctx context.Context, userId, groupId string) (*model.GroupMember, error)
	// LeaveGroup 退出群组
	LeaveGroup(ctx context.Context, userId, groupId string) error
	// AutoJoinMoodGroup 按情绪自动加入
	AutoJoinMoodGroup(ctx context.Context, userId, moodType string) (*respond.AutoJoinRespond, error)
	// SendMessage 发送群消息并实时推送
	SendMessage(ctx context.Context, userId, groupId, body string) (*model.GroupMessage, error)
	// ChangeAnonymousName 更换匿名昵称
	ChangeAnonymousName(ctx context.Context, userId, groupId string) (*model.GroupMember, error)
	// GetGroupChat 聊天页数据
	GetGroupChat(ctx context.Context, userId, groupId string) (*respond.GroupChatRespond, error)
	// GetRecentMessages 进房回放的最近消息
	GetRecentMessages(ctx context.Context, groupId string) ([]model.GroupMessage, error)
	// GetAvailableGroups 可加入的群组列表
	GetAvailableGroups(ctx context.Context) ([]model.Group, error)
	// GetUserGroups 我加入的群组
	GetUserGroups(ctx context.Context, userId string) ([]model.Group, error)
}

// CleanupService 过期群组清理接口（管理端）
type CleanupService interface {
	// CleanupGroup 级联删除单个群组
	CleanupGroup(ctx context.Context, groupId string) (respond.CleanupResult, error)
	// CleanupExpiredGroups 立即清理所有过期群组
	CleanupExpiredGroups(ctx context.Context) (respond.CleanupResult, error)
	// IsExpired 群组是否已过期
	IsExpired(ctx context.Context, groupId string) (bool, error)
	// GroupsExpiringWithin 即将过期的群组
	GroupsExpiringWithin(ctx context.Context, hours int) ([]model.Group, error)
	// CleanupStats 清理统计
	CleanupStats(ctx context.Context) (*respond.CleanupStats, error)
}
