package handler

import (
	"github.com/gin-gonic/gin"

	"mood_chat_server/internal/dto/request"
	"mood_chat_server/internal/dto/respond"
	"mood_chat_server/internal/service"
)

// CleanupHandler 过期群组清理（管理端）
type CleanupHandler struct {
	cleanupSvc service.CleanupService
}

func NewCleanupHandler(cleanupSvc service.CleanupService) *CleanupHandler {
	return &CleanupHandler{cleanupSvc: cleanupSvc}
}

// Stats GET /admin/cleanup/stats
func (h *CleanupHandler) Stats(c *gin.Context) {
	stats, err := h.cleanupSvc.CleanupStats(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, stats)
}

// Expiring GET /admin/cleanup/expiring?hours=24
func (h *CleanupHandler) Expiring(c *gin.Context) {
	var req request.ExpiringRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	groups, err := h.cleanupSvc.GroupsExpiringWithin(c.Request.Context(), req.Hours)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, groups)
}

// IsExpired GET /admin/cleanup/isExpired?group_id=xxx
func (h *CleanupHandler) IsExpired(c *gin.Context) {
	var req request.GroupIdRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	expired, err := h.cleanupSvc.IsExpired(c.Request.Context(), req.GroupId)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.IsExpiredRespond{GroupId: req.GroupId, IsExpired: expired})
}

// Run POST /admin/cleanup/run 立即执行一轮清理
func (h *CleanupHandler) Run(c *gin.Context) {
	result, err := h.cleanupSvc.CleanupExpiredGroups(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, result)
}
