package request

// GroupIdRequest 只携带群组 ID 的请求
// 用于加群、退群、换匿名昵称（JSON 体），以及聊天页、过期查询（query 参数）
type GroupIdRequest struct {
	GroupId string `json:"group_id" form:"group_id" binding:"required"`
}
