package domain

import (
	"context"
	"time"
)

const (
	OptionPricedEventType        = "OptionPriced"
	VolatilityEstimatedEventType = "VolatilityEstimated"
)

// OptionPricedEvent 期权定价完成事件
type OptionPricedEvent struct {
	OptionType          OptionType       `json:"option_type"`
	Params              OptionParameters `json:"params"`
	Price               float64          `json:"price"`
	Greeks              Greeks           `json:"greeks"`
	ExerciseProbability float64          `json:"exercise_probability"`
	OccurredOn          time.Time        `json:"occurred_on"`
}

// VolatilityEstimatedEvent 历史波动率估计完成事件
type VolatilityEstimatedEvent struct {
	Sigma        float64   `json:"sigma"`
	Observations int       `json:"observations"`
	TradingDays  int       `json:"trading_days"`
	OccurredOn   time.Time `json:"occurred_on"`
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	// PublishOptionPriced 发布期权定价完成事件
	PublishOptionPriced(ctx context.Context, event OptionPricedEvent) error

	// PublishVolatilityEstimated 发布波动率估计完成事件
	PublishVolatilityEstimated(ctx context.Context, event VolatilityEstimatedEvent) error
}
