// Package handler 提供 HTTP 请求处理器
// 本文件处理群组相关的 API 请求，用户身份一律取自鉴权中间件
package handler

import (
	"github.com/gin-gonic/gin"

	"mood_chat_server/internal/dto/request"
	"mood_chat_server/internal/service"
)

// GroupHandler 群组请求处理器
type GroupHandler struct {
	groupSvc service.GroupService
}

// NewGroupHandler 创建群组处理器实例
func NewGroupHandler(groupSvc service.GroupService) *GroupHandler {
	return &GroupHandler{groupSvc: groupSvc}
}

// CreateGroup 创建群组，创建者自动入群
// POST /group/createGroup
// 请求体: request.CreateGroupRequest
// 响应: model.Group
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req request.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	group, err := h.groupSvc.CreateGroup(c.Request.Context(), currentUserId(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, group)
}

// JoinGroup 加入群组
// POST /group/joinGroup
// 请求体: request.GroupIdRequest
// 响应: model.GroupMember
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	var req request.GroupIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	member, err := h.groupSvc.JoinGroup(c.Request.Context(), currentUserId(c), req.GroupId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, member)
}

// LeaveGroup 退出群组
// POST /group/leaveGroup
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	var req request.GroupIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.groupSvc.LeaveGroup(c.Request.Context(), currentUserId(c), req.GroupId); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// AutoJoin 按情绪自动加入情绪群
// POST /group/autoJoin
// 请求体: request.AutoJoinRequest
// 响应: respond.AutoJoinRespond
func (h *GroupHandler) AutoJoin(c *gin.Context) {
	var req request.AutoJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.groupSvc.AutoJoinMoodGroup(c.Request.Context(), currentUserId(c), req.MoodType)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// SendMessage 发送群消息，在线成员通过 WebSocket 收到 newGroupMessage
// POST /group/sendMessage
// 请求体: request.SendMessageRequest
// 响应: model.GroupMessage
func (h *GroupHandler) SendMessage(c *gin.Context) {
	var req request.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	msg, err := h.groupSvc.SendMessage(c.Request.Context(), currentUserId(c), req.GroupId, req.Message)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, msg)
}

// ChangeAnonymousName 更换匿名昵称
// POST /group/changeAnonymousName
func (h *GroupHandler) ChangeAnonymousName(c *gin.Context) {
	var req request.GroupIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	member, err := h.groupSvc.ChangeAnonymousName(c.Request.Context(), currentUserId(c), req.GroupId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, member)
}

// GetGroupChat 聊天页数据
// GET /group/getGroupChat?group_id=xxx
// 响应: respond.GroupChatRespond
func (h *GroupHandler) GetGroupChat(c *gin.Context) {
	var req request.GroupIdRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.groupSvc.GetGroupChat(c.Request.Context(), currentUserId(c), req.GroupId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetAvailableGroups 可加入的群组
// GET /group/available
func (h *GroupHandler) GetAvailableGroups(c *gin.Context) {
	groups, err := h.groupSvc.GetAvailableGroups(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, groups)
}

// GetMyGroups 我加入的群组
// GET /group/myGroups
func (h *GroupHandler) GetMyGroups(c *gin.Context) {
	groups, err := h.groupSvc.GetUserGroups(c.Request.Context(), currentUserId(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, groups)
}
