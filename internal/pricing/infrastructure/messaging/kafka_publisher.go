package messaging

import (
	"context"

	"github.com/google/uuid"
	"github.com/wyfcoding/optionanalytics/internal/pricing/domain"
	"github.com/wyfcoding/optionanalytics/pkg/logger"
)

// Producer 发送 JSON 消息的生产者，由 mq.KafkaProducer 实现
type Producer interface {
	SendMessage(ctx context.Context, topic, key string, value any, headers map[string]string) error
}

// KafkaEventPublisher 实现 domain.EventPublisher，将领域事件写入 Kafka
type KafkaEventPublisher struct {
	producer Producer
	topic    string
}

// NewKafkaEventPublisher 创建新的 KafkaEventPublisher 实例
func NewKafkaEventPublisher(producer Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// PublishOptionPriced 发布期权定价完成事件，按期权类型分区
func (p *KafkaEventPublisher) PublishOptionPriced(ctx context.Context, event domain.OptionPricedEvent) error {
	return p.publishEvent(ctx, domain.OptionPricedEventType, event.OptionType.String(), event)
}

// PublishVolatilityEstimated 发布波动率估计完成事件
func (p *KafkaEventPublisher) PublishVolatilityEstimated(ctx context.Context, event domain.VolatilityEstimatedEvent) error {
	return p.publishEvent(ctx, domain.VolatilityEstimatedEventType, "volatility", event)
}

// publishEvent 通用事件发布方法
func (p *KafkaEventPublisher) publishEvent(ctx context.Context, eventType, key string, event any) error {
	headers := map[string]string{
		"event_id":   uuid.New().String(),
		"event_type": eventType,
	}
	if requestID := logger.RequestID(ctx); requestID != "" {
		headers["request_id"] = requestID
	}
	return p.producer.SendMessage(ctx, p.topic, key, event, headers)
}
