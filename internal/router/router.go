// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mood_chat_server/internal/handler"
	"mood_chat_server/internal/infrastructure/middleware"
)

// Router 路由管理器，持有 Handler 聚合
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// /ping 和 /metrics 无需认证，其余路由都挂在 JWTAuth 之后
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := r.Group("/", middleware.JWTAuth())
	rt.RegisterGroupRoutes(authed)     // 群组路由
	rt.RegisterAdminRoutes(authed)     // 清理管理路由
	rt.RegisterWebSocketRoutes(authed) // WebSocket 路由
}
