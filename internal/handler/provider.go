// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
package handler

import (
	"mood_chat_server/internal/service"
	"mood_chat_server/internal/service/chat"
)

// Handlers 聚合所有 Handler 实例
// Router 层通过此结构访问各个 Handler
type Handlers struct {
	Group   *GroupHandler
	Cleanup *CleanupHandler
	Ws      *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
func NewHandlers(svc *service.Services, hub *chat.Hub) *Handlers {
	return &Handlers{
		Group:   NewGroupHandler(svc.Group),
		Cleanup: NewCleanupHandler(svc.Cleanup),
		Ws:      NewWsHandler(hub),
	}
}
