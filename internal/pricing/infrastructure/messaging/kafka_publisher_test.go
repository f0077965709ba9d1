package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionanalytics/internal/pricing/domain"
	"github.com/wyfcoding/optionanalytics/pkg/logger"
)

type sent struct {
	topic   string
	key     string
	value   any
	headers map[string]string
}

type fakeProducer struct {
	msgs []sent
}

func (f *fakeProducer) SendMessage(_ context.Context, topic, key string, value any, headers map[string]string) error {
	f.msgs = append(f.msgs, sent{topic: topic, key: key, value: value, headers: headers})
	return nil
}

func TestPublishOptionPriced(t *testing.T) {
	prod := &fakeProducer{}
	pub := NewKafkaEventPublisher(prod, "pricing.events")
	ctx := logger.ContextWithRequestID(context.Background(), "req-9", "req-9")

	event := domain.OptionPricedEvent{
		OptionType: domain.OptionTypePut,
		Params:     domain.OptionParameters{S: 100, X: 100, T: 1, R: 0.05, Sigma: 0.2},
		Price:      5.57,
		OccurredOn: time.Now(),
	}
	require.NoError(t, pub.PublishOptionPriced(ctx, event))

	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	assert.Equal(t, "pricing.events", msg.topic)
	assert.Equal(t, "put", msg.key)
	assert.Equal(t, event, msg.value)
	assert.Equal(t, domain.OptionPricedEventType, msg.headers["event_type"])
	assert.Equal(t, "req-9", msg.headers["request_id"])
	assert.NotEmpty(t, msg.headers["event_id"])
}

func TestPublishVolatilityEstimated(t *testing.T) {
	prod := &fakeProducer{}
	pub := NewKafkaEventPublisher(prod, "pricing.events")

	require.NoError(t, pub.PublishVolatilityEstimated(context.Background(), domain.VolatilityEstimatedEvent{Sigma: 0.3, Observations: 20}))
	require.Len(t, prod.msgs, 1)
	assert.Equal(t, domain.VolatilityEstimatedEventType, prod.msgs[0].headers["event_type"])
	_, hasRequestID := prod.msgs[0].headers["request_id"]
	assert.False(t, hasRequestID)
}
