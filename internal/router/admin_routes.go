// Package router 提供 HTTP 路由注册
// 本文件定义管理端路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes 注册过期群组清理相关路由（需要认证）
func (rt *Router) RegisterAdminRoutes(rg *gin.RouterGroup) {
	cleanupGroup := rg.Group("/admin/cleanup")
	{
		cleanupGroup.GET("/stats", rt.handlers.Cleanup.Stats)         // 群组数量统计
		cleanupGroup.GET("/expiring", rt.handlers.Cleanup.Expiring)   // 即将过期的群组
		cleanupGroup.GET("/isExpired", rt.handlers.Cleanup.IsExpired) // 单个群组是否过期
		cleanupGroup.POST("/run", rt.handlers.Cleanup.Run)            // 立即清理
	}
}
