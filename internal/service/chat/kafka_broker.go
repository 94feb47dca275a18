// Package chat 实现群聊实时层
// kafka_broker.go
// 核心职责：多实例部署时的消息扇出
// 1. 已持久化的群消息以群组 ID 为 key 写入 Kafka，同一群组落在同一分区，保证顺序
// 2. 每个实例消费全量消息，只推送给本机房间内的连接
// 进房、输入中、在线人数仍然只在本实例内处理
package chat

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"mood_chat_server/internal/model"
)

// consumeBackoff 读取失败后的重试间隔
const consumeBackoff = time.Second

// MessageQueue 消息队列读写，由 mq.KafkaClient 实现
type MessageQueue interface {
	WriteMessage(ctx context.Context, key, value []byte) error
	ReadMessage(ctx context.Context) (key, value []byte, err error)
}

// KafkaBroker Kafka 模式下的 broadcaster
type KafkaBroker struct {
	hub   *Hub
	queue MessageQueue
}

// NewKafkaBroker 创建 KafkaBroker
func NewKafkaBroker(hub *Hub, queue MessageQueue) *KafkaBroker {
	return &KafkaBroker{hub: hub, queue: queue}
}

// BroadcastMessage 发布到 Kafka，由各实例的消费循环推送
func (b *KafkaBroker) BroadcastMessage(ctx context.Context, msg *model.GroupMessage) error {
	value, err := json.Marshal(NewMessageFrame(msg))
	if err != nil {
		return err
	}
	return b.queue.WriteMessage(ctx, []byte(msg.GroupId), value)
}

// Start 消费循环，ctx 取消后退出
func (b *KafkaBroker) Start(ctx context.Context) {
	zap.L().Info("kafka 消费循环已启动")
	for {
		_, value, err := b.queue.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				zap.L().Info("kafka 消费循环已停止")
				return
			}
			zap.L().Error("kafka read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(consumeBackoff):
			}
			continue
		}

		var frame NewGroupMessage
		if err := json.Unmarshal(value, &frame); err != nil || frame.GroupId == "" {
			zap.L().Warn("skip malformed kafka message", zap.ByteString("value", value))
			continue
		}
		b.hub.DeliverMessage(frame)
	}
}
