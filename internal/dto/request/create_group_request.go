package request

// CreateGroupRequest 创建群组请求
// 群主即当前登录用户，不从请求体读取
type CreateGroupRequest struct {
	Name           string `json:"name" binding:"required,max=64"`
	Description    string `json:"description" binding:"max=500"`
	Type           string `json:"type" binding:"required,oneof=mood_based topic_based time_based community_based"`
	ExpiresInHours *int   `json:"expires_in_hours" binding:"omitempty,min=1"`
}
