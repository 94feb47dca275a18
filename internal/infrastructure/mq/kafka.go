// Package mq 封装 Kafka 生产者和消费者
// 纯技术组件，不包含聊天业务逻辑
package mq

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"mood_chat_server/internal/config"
)

// KafkaClient Kafka 客户端
type KafkaClient struct {
	conf   config.KafkaConfig
	Writer *kafka.Writer // 生产者
	Reader *kafka.Reader // 消费者
}

// NewKafkaClient 初始化 kafka
// Writer 使用 Hash 分区，相同 key（群组 ID）的消息落在同一分区，保证群内顺序
// 每个实例使用独立的 GroupID，才能各自消费到全量消息
func NewKafkaClient(conf config.KafkaConfig) *KafkaClient {
	timeout := conf.Timeout * time.Second
	return &KafkaClient{
		conf: conf,
		Writer: &kafka.Writer{
			Addr:                   kafka.TCP(conf.HostPort),
			Topic:                  conf.ChatTopic,
			Balancer:               &kafka.Hash{},
			WriteTimeout:           timeout,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: false,
		},
		Reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        []string{conf.HostPort},
			Topic:          conf.ChatTopic,
			CommitInterval: timeout,
			GroupID:        conf.GroupID,
			StartOffset:    kafka.LastOffset,
		}),
	}
}

// CreateTopic 创建 topic，已存在时 kafka 返回错误，调用方记录日志即可
func (k *KafkaClient) CreateTopic() error {
	conn, err := kafka.Dial("tcp", k.conf.HostPort)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             k.conf.ChatTopic,
		NumPartitions:     k.conf.Partition,
		ReplicationFactor: 1,
	})
}

// WriteMessage 向 Kafka 发送消息
func (k *KafkaClient) WriteMessage(ctx context.Context, key, value []byte) error {
	return k.Writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

// ReadMessage 阻塞读取一条消息，ctx 取消时返回错误
func (k *KafkaClient) ReadMessage(ctx context.Context) (key, value []byte, err error) {
	m, err := k.Reader.ReadMessage(ctx)
	if err != nil {
		return nil, nil, err
	}
	zap.L().Debug("kafka message",
		zap.String("topic", m.Topic),
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset),
		zap.ByteString("key", m.Key))
	return m.Key, m.Value, nil
}

// Close 关闭生产者和消费者
func (k *KafkaClient) Close() {
	if err := k.Writer.Close(); err != nil {
		zap.L().Error(err.Error())
	}
	if err := k.Reader.Close(); err != nil {
		zap.L().Error(err.Error())
	}
}
