package request

// SendMessageRequest 发送群消息请求，长度上限由 service 层按配置校验
type SendMessageRequest struct {
	GroupId string `json:"group_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}
