// Package chat 实现群聊实时层
// client.go
// 核心职责：WebSocket 连接生命周期管理
// 1. 建立 WebSocket 连接 (Upgrade)，连接绑定已认证的用户 ID
// 2. 读协程：读取上行帧交给 Hub 处理
// 3. 写协程：从发送缓冲取帧写给前端，定时 ping 保活
package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mood_chat_server/internal/infrastructure/metrics"
	"mood_chat_server/pkg/constants"
)

const (
	writeWait    = 10 * time.Second    // 单次写超时
	pongWait     = 60 * time.Second    // 等待 pong 的最长时间
	pingPeriod   = (pongWait * 9) / 10 // ping 间隔，必须小于 pongWait
	maxFrameSize = 4096                // 上行帧最大字节数
	wsBufferSize = 2048
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
	// 跨域由 gin 的 cors 中间件和鉴权兜底
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client 一条 WebSocket 连接
type Client struct {
	id     string
	userId string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte

	// ctx 在连接断开时取消，连接上发起的业务调用都使用它
	ctx    context.Context
	cancel context.CancelFunc
}

// ServeWs 升级连接并启动读写协程，userId 来自鉴权中间件
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userId string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		id:     uuid.NewString(),
		userId: userId,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, constants.CHANNEL_SIZE),
		ctx:    ctx,
		cancel: cancel,
	}
	hub.Register(client)
	metrics.OpenConnections.Inc()
	zap.L().Info("ws连接成功", zap.String("conn_id", client.id), zap.String("user_id", userId))

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump 读取上行帧，连接断开后清理房间并取消 ctx
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.cancel()
		_ = c.conn.Close()
		metrics.OpenConnections.Dec()
		zap.L().Info("ws连接断开", zap.String("conn_id", c.id), zap.String("user_id", c.userId))
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Warn("ws read failed", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}
		c.hub.HandleFrame(c, raw)
	}
}

// writePump 只有这个协程写 conn
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				zap.L().Warn("ws write failed", zap.String("conn_id", c.id), zap.Error(err))
				c.cancel()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.cancel()
				return
			}
		}
	}
}

// enqueue 非阻塞写入发送缓冲；缓冲满说明对端太慢，丢弃该帧
func (c *Client) enqueue(frame []byte) {
	select {
	case <-c.ctx.Done():
	case c.send <- frame:
	default:
		metrics.DroppedFrames.Inc()
		zap.L().Warn("ws send buffer full, frame dropped", zap.String("conn_id", c.id))
	}
}

// sendEvent 给当前连接单独发一帧
func (c *Client) sendEvent(event string, data any) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		zap.L().Error(err.Error())
		return
	}
	c.enqueue(frame)
}
