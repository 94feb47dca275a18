// Package router 提供 HTTP 路由注册
// 本文件定义群组相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterGroupRoutes 注册群组相关路由（需要认证）
func (rt *Router) RegisterGroupRoutes(rg *gin.RouterGroup) {
	groupGroup := rg.Group("/group")
	{
		// ===== 群组生命周期 =====
		groupGroup.POST("/createGroup", rt.handlers.Group.CreateGroup) // 创建群组
		groupGroup.POST("/joinGroup", rt.handlers.Group.JoinGroup)     // 加入群组
		groupGroup.POST("/leaveGroup", rt.handlers.Group.LeaveGroup)   // 退出群组
		groupGroup.POST("/autoJoin", rt.handlers.Group.AutoJoin)       // 按情绪自动加入

		// ===== 聊天 =====
		groupGroup.POST("/sendMessage", rt.handlers.Group.SendMessage)                 // 发送群消息
		groupGroup.POST("/changeAnonymousName", rt.handlers.Group.ChangeAnonymousName) // 更换匿名昵称
		groupGroup.GET("/getGroupChat", rt.handlers.Group.GetGroupChat)                // 聊天页数据

		// ===== 列表 =====
		groupGroup.GET("/available", rt.handlers.Group.GetAvailableGroups) // 可加入的群组
		groupGroup.GET("/myGroups", rt.handlers.Group.GetMyGroups)         // 我加入的群组
	}
}
