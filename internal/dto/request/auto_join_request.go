package request

// AutoJoinRequest 按情绪自动加入情绪群
type AutoJoinRequest struct {
	MoodType string `json:"mood_type" binding:"required,max=32,mood"`
}
