package respond

// CleanupResult 级联删除统计，可累加
type CleanupResult struct {
	DeletedGroups   int `json:"deleted_groups"`
	DeletedMessages int `json:"deleted_messages"`
	DeletedMembers  int `json:"deleted_members"`
}

// Add 累加另一组统计
func (r *CleanupResult) Add(other CleanupResult) {
	r.DeletedGroups += other.DeletedGroups
	r.DeletedMessages += other.DeletedMessages
	r.DeletedMembers += other.DeletedMembers
}

// CleanupStats 群组数量概览
type CleanupStats struct {
	TotalGroups   int64 `json:"total_groups"`
	ExpiredGroups int64 `json:"expired_groups"`
	ActiveGroups  int64 `json:"active_groups"`
}

// IsExpiredRespond 单个群组是否已过期
type IsExpiredRespond struct {
	GroupId   string `json:"group_id"`
	IsExpired bool   `json:"is_expired"`
}
