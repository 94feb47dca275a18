// Package chat 实现群聊实时层
// hub.go
// 核心职责：房间管理与事件分发
// 1. 维护 groupId -> 房间 的映射，每个房间有自己的读写锁
// 2. 处理客户端上行事件（进房、离房、发消息、输入中、在线人数）
// 3. 把已持久化的群消息扇出给房间内所有连接
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"mood_chat_server/internal/model"
	"mood_chat_server/pkg/constants"
	"mood_chat_server/pkg/errorx"
)

// GroupMessenger 实时层依赖的群组业务
type GroupMessenger interface {
	SendMessage(ctx context.Context, userId, groupId, body string) (*model.GroupMessage, error)
	GetRecentMessages(ctx context.Context, groupId string) ([]model.GroupMessage, error)
}

// room 一个群组的在线连接集合
type room struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// snapshot 拷贝当前成员，推送时不持有房间锁
func (r *room) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Hub 房间注册表
// 加锁顺序固定为 Hub.mu -> room.mu
type Hub struct {
	groups GroupMessenger

	mu      sync.Mutex
	rooms   map[string]*room
	clients map[*Client]map[string]struct{} // 连接 -> 所在房间
	conns   sync.WaitGroup                  // 已登记且尚未注销的连接
}

// NewHub 创建 Hub
func NewHub(groups GroupMessenger) *Hub {
	return &Hub{
		groups:  groups,
		rooms:   make(map[string]*room),
		clients: make(map[*Client]map[string]struct{}),
	}
}

// Register 登记新连接
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = make(map[string]struct{})
	h.conns.Add(1)
	h.mu.Unlock()
}

// Unregister 连接断开：离开所有房间，空房间随之删除
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms, ok := h.clients[c]
	if !ok {
		return
	}
	for groupId := range rooms {
		h.removeLocked(c, groupId)
	}
	delete(h.clients, c)
	h.conns.Done()
}

// Shutdown 断开所有连接，等读协程处理完手上的帧并注销
// 需在 HTTP 服务停止接收新连接之后调用，返回后不会再有连接发起业务调用
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	for c := range h.clients {
		c.cancel()
	}
	n := len(h.clients)
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		zap.L().Info("实时连接已全部断开", zap.Int("connections", n))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) join(c *Client, groupId string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms, ok := h.clients[c]
	if !ok {
		return
	}
	r, ok := h.rooms[groupId]
	if !ok {
		r = &room{clients: make(map[*Client]struct{})}
		h.rooms[groupId] = r
	}
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()
	rooms[groupId] = struct{}{}
}

func (h *Hub) leave(c *Client, groupId string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, groupId)
}

// removeLocked 调用方持有 h.mu
func (h *Hub) removeLocked(c *Client, groupId string) {
	if rooms, ok := h.clients[c]; ok {
		delete(rooms, groupId)
	}
	r, ok := h.rooms[groupId]
	if !ok {
		return
	}
	r.mu.Lock()
	delete(r.clients, c)
	empty := len(r.clients) == 0
	r.mu.Unlock()
	if empty {
		delete(h.rooms, groupId)
	}
}

func (h *Hub) lookup(groupId string) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[groupId]
}

func (h *Hub) inRoom(c *Client, groupId string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[c][groupId]
	return ok
}

// OnlineCount 房间内的连接数
func (h *Hub) OnlineCount(groupId string) int {
	r := h.lookup(groupId)
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// BroadcastMessage 单机模式下 Hub 本身就是 broadcaster
func (h *Hub) BroadcastMessage(_ context.Context, msg *model.GroupMessage) error {
	h.DeliverMessage(NewMessageFrame(msg))
	return nil
}

// DeliverMessage 推送给本实例上该房间的所有连接
func (h *Hub) DeliverMessage(frame NewGroupMessage) {
	r := h.lookup(frame.GroupId)
	if r == nil {
		return
	}
	data, err := encodeFrame(EventNewGroupMessage, frame)
	if err != nil {
		zap.L().Error(err.Error())
		return
	}
	for _, c := range r.snapshot() {
		c.enqueue(data)
	}
}

// EvictRoom 群组被删除后清空房间，并通知房间内的连接
func (h *Hub) EvictRoom(groupId string) {
	h.mu.Lock()
	r, ok := h.rooms[groupId]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.rooms, groupId)
	members := r.snapshot()
	for _, c := range members {
		delete(h.clients[c], groupId)
	}
	h.mu.Unlock()

	for _, c := range members {
		c.sendEvent(EventMessageError, MessageError{Error: "group has been deleted", GroupId: groupId})
	}
	zap.L().Info("房间已关闭", zap.String("group_id", groupId), zap.Int("connections", len(members)))
}

// HandleFrame 处理一帧上行消息，错误以 messageError 回给当前连接
func (h *Hub) HandleFrame(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		c.sendEvent(EventMessageError, MessageError{Error: "invalid frame"})
		return
	}

	switch env.Event {
	case EventJoinGroupRoom:
		var p RoomPayload
		if !decodePayload(c, env, &p) {
			return
		}
		h.handleJoin(c, p.GroupId)
	case EventLeaveGroupRoom:
		var p RoomPayload
		if !decodePayload(c, env, &p) {
			return
		}
		h.leave(c, p.GroupId)
		c.sendEvent(EventLeftRoom, LeftRoom{GroupId: p.GroupId, Message: "Left group chat"})
	case EventSendGroupMessage:
		var p SendPayload
		if !decodePayload(c, env, &p) {
			return
		}
		if _, err := h.groups.SendMessage(c.ctx, c.userId, p.GroupId, p.Message); err != nil {
			c.sendEvent(EventMessageError, MessageError{Error: errorMessage(err), GroupId: p.GroupId})
		}
	case EventTyping:
		var p TypingPayload
		if !decodePayload(c, env, &p) {
			return
		}
		h.handleTyping(c, p)
	case EventGetOnlineMembers:
		var p RoomPayload
		if !decodePayload(c, env, &p) {
			return
		}
		c.sendEvent(EventOnlineMembersCount, OnlineMembersCount{GroupId: p.GroupId, OnlineCount: h.OnlineCount(p.GroupId)})
	default:
		c.sendEvent(EventMessageError, MessageError{Error: "unknown event " + env.Event})
	}
}

// handleJoin 先进房再回放：回放与实时推送可能有重叠，客户端按消息 id 去重
func (h *Hub) handleJoin(c *Client, groupId string) {
	h.join(c, groupId)
	messages, err := h.groups.GetRecentMessages(c.ctx, groupId)
	if err != nil {
		h.leave(c, groupId)
		c.sendEvent(EventMessageError, MessageError{Error: errorMessage(err), GroupId: groupId})
		return
	}
	for i := range messages {
		c.sendEvent(EventNewGroupMessage, NewMessageFrame(&messages[i]))
	}
	c.sendEvent(EventJoinedRoom, JoinedRoom{
		GroupId:  groupId,
		RoomName: constants.ROOM_PREFIX + groupId,
		Message:  "Joined group chat successfully",
	})
}

// handleTyping 输入状态只转发给同房间的其他连接，不落库
func (h *Hub) handleTyping(c *Client, p TypingPayload) {
	if !h.inRoom(c, p.GroupId) {
		c.sendEvent(EventMessageError, MessageError{Error: "not in room", GroupId: p.GroupId})
		return
	}
	r := h.lookup(p.GroupId)
	if r == nil {
		return
	}
	data, err := encodeFrame(EventUserTyping, p)
	if err != nil {
		zap.L().Error(err.Error())
		return
	}
	for _, other := range r.snapshot() {
		if other != c {
			other.enqueue(data)
		}
	}
}

func decodePayload(c *Client, env Envelope, v interface{ validGroup() bool }) bool {
	if err := json.Unmarshal(env.Data, v); err != nil || !v.validGroup() {
		c.sendEvent(EventMessageError, MessageError{Error: "invalid payload for " + env.Event})
		return false
	}
	return true
}

func (p *RoomPayload) validGroup() bool   { return p.GroupId != "" }
func (p *SendPayload) validGroup() bool   { return p.GroupId != "" }
func (p *TypingPayload) validGroup() bool { return p.GroupId != "" }

// errorMessage 业务错误只暴露消息，不暴露底层原因
func errorMessage(err error) string {
	var codeErr *errorx.CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Msg
	}
	return "server busy"
}
