// Package chat 实现群聊实时层
// events.go
// 核心职责：WebSocket 帧格式与事件名
// 所有帧都是 {"event": "<name>", "data": {...}}
package chat

import (
	"encoding/json"
	"strconv"
	"time"

	"mood_chat_server/internal/model"
)

// 客户端 -> 服务端
const (
	EventJoinGroupRoom    = "joinGroupRoom"
	EventLeaveGroupRoom   = "leaveGroupRoom"
	EventSendGroupMessage = "sendGroupMessage"
	EventTyping           = "typing"
	EventGetOnlineMembers = "getOnlineMembers"
)

// 服务端 -> 客户端
const (
	EventNewGroupMessage    = "newGroupMessage"
	EventJoinedRoom         = "joinedRoom"
	EventLeftRoom           = "leftRoom"
	EventUserTyping         = "userTyping"
	EventOnlineMembersCount = "onlineMembersCount"
	EventMessageError       = "messageError"
)

// Envelope 帧外层
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomPayload joinGroupRoom / leaveGroupRoom / getOnlineMembers 的参数
type RoomPayload struct {
	GroupId string `json:"groupId"`
}

// SendPayload sendGroupMessage 的参数
// 发送者身份取自连接，忽略帧里的 userId
type SendPayload struct {
	GroupId string `json:"groupId"`
	Message string `json:"message"`
}

// TypingPayload typing / userTyping
type TypingPayload struct {
	GroupId       string `json:"groupId"`
	AnonymousName string `json:"anonymousName"`
	IsTyping      bool   `json:"isTyping"`
}

// NewGroupMessage 推送给房间的群消息，不含发送者 user_id
type NewGroupMessage struct {
	Id              string    `json:"id"`
	AnonymousSender string    `json:"anonymous_sender"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"created_at"`
	GroupId         string    `json:"groupId"`
}

// JoinedRoom 进房成功
type JoinedRoom struct {
	GroupId  string `json:"groupId"`
	RoomName string `json:"roomName"`
	Message  string `json:"message"`
}

// LeftRoom 离房成功
type LeftRoom struct {
	GroupId string `json:"groupId"`
	Message string `json:"message"`
}

// OnlineMembersCount 房间在线连接数
type OnlineMembersCount struct {
	GroupId     string `json:"groupId"`
	OnlineCount int    `json:"onlineCount"`
}

// MessageError 只发给触发错误的连接
type MessageError struct {
	Error   string `json:"error"`
	GroupId string `json:"groupId,omitempty"`
}

// NewMessageFrame 由已持久化的消息构造推送内容
func NewMessageFrame(msg *model.GroupMessage) NewGroupMessage {
	return NewGroupMessage{
		Id:              strconv.FormatInt(msg.Id, 10),
		AnonymousSender: msg.AnonymousSender,
		Message:         msg.Body,
		CreatedAt:       msg.CreatedAt,
		GroupId:         msg.GroupId,
	}
}

// encodeFrame 序列化为一帧
func encodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
