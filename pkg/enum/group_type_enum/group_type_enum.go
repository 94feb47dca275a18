package group_type_enum

// 群组类型，与存储中的 type 字段一一对应
const (
	MoodBased      = "mood_based"
	TopicBased     = "topic_based"
	TimeBased      = "time_based"
	CommunityBased = "community_based"
)

// IsValid 判断类型字符串是否为已知枚举值
func IsValid(t string) bool {
	switch t {
	case MoodBased, TopicBased, TimeBased, CommunityBased:
		return true
	}
	return false
}
