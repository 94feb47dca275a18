// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接升级
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mood_chat_server/internal/service/chat"
)

// WsHandler WebSocket 入口
type WsHandler struct {
	hub *chat.Hub
}

func NewWsHandler(hub *chat.Hub) *WsHandler {
	return &WsHandler{hub: hub}
}

// Connect 升级为 WebSocket，连接绑定 token 中的用户
// GET /wss?token=xxx
func (h *WsHandler) Connect(c *gin.Context) {
	// Upgrade 失败时 gorilla 已经写出了 HTTP 错误响应
	if err := chat.ServeWs(h.hub, c.Writer, c.Request, currentUserId(c)); err != nil {
		zap.L().Warn("websocket upgrade failed", zap.Error(err))
	}
}
