package request

// ExpiringRequest 查询即将过期的群组
type ExpiringRequest struct {
	Hours int `form:"hours" binding:"required,min=1,max=720"`
}
