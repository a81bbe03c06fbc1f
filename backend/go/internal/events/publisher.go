// Package events 把编排器的每次后端请求尝试发布到 Kafka，供离线诊断后端的不稳定行为。
package events

import (
	"MultiAI_Assistant/backend/go/internal/models"
	"MultiAI_Assistant/backend/go/pkg/logger"
	"MultiAI_Assistant/backend/go/pkg/orchestrator"
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// MessageWriter 是 *kafka.Writer 中发布器用到的部分。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher 实现 orchestrator.AttemptObserver。
type KafkaPublisher struct {
	writer MessageWriter
	log    *logger.Logger
}

// NewKafkaPublisher 创建发布器。writer 应当配置了目标主题。
func NewKafkaPublisher(writer MessageWriter, log *logger.Logger) *KafkaPublisher {
	if log == nil {
		log = logger.New("events", "", "")
	}
	return &KafkaPublisher{writer: writer, log: log}
}

// ObserveAttempt 把尝试记录序列化为 JSON 并发送，键为意图名称，同一意图的事件落在同一分区。
// 发送失败只记录日志，不影响请求本身。
func (p *KafkaPublisher) ObserveAttempt(ctx context.Context, entry models.AttemptLog) {
	if err := p.Publish(ctx, entry); err != nil {
		p.log.Warn(err.Error())
	}
}

// Publish 发送一条尝试记录。
func (p *KafkaPublisher) Publish(ctx context.Context, entry models.AttemptLog) error {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt entry: %w", err)
	}

	// 请求被取消时仍然记录这次尝试
	err = p.writer.WriteMessages(context.WithoutCancel(ctx), kafka.Message{
		Key:   []byte(entry.Intent),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write attempt to kafka: %w", err)
	}
	return nil
}

var _ orchestrator.AttemptObserver = (*KafkaPublisher)(nil)
