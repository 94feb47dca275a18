package respond

import "mood_chat_server/internal/model"

// GroupChatRespond 聊天页数据
// Messages 按时间正序
type GroupChatRespond struct {
	Group           *model.Group         `json:"group"`
	Messages        []model.GroupMessage `json:"messages"`
	MyAnonymousName string               `json:"my_anonymous_name"`
}

// AutoJoinRespond 自动加入情绪群的结果
type AutoJoinRespond struct {
	Group      *model.Group       `json:"group"`
	Membership *model.GroupMember `json:"membership"`
}
