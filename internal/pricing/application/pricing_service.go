package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/wyfcoding/optionanalytics/internal/pricing/domain"
	"github.com/wyfcoding/optionanalytics/internal/pricing/infrastructure/history"
	"github.com/wyfcoding/optionanalytics/pkg/logger"
	"github.com/wyfcoding/optionanalytics/pkg/metrics"
)

// Config 定价服务参数
type Config struct {
	TradingDays          int
	SensitivityPoints    int
	MaxSensitivityPoints int
	MaxSeriesLength      int
	// PublishTimeout 单个事件的发布超时
	PublishTimeout time.Duration
	// MaxPendingEvents 在途事件上限，超出时丢弃
	MaxPendingEvents int
}

// PricingService 编排定价引擎、报价缓存与事件发布。
// cache 与 publisher 可为 nil，失败只记录日志，不影响计算结果。
// 事件在请求路径之外异步发布，Close 等待在途事件结束。
type PricingService struct {
	cache     domain.QuoteCache
	publisher domain.EventPublisher
	metrics   metrics.Collector
	cfg       Config

	pending chan struct{}
	events  sync.WaitGroup
}

// NewPricingService 构造函数
func NewPricingService(cache domain.QuoteCache, publisher domain.EventPublisher, m metrics.Collector, cfg Config) *PricingService {
	if m == nil {
		m = metrics.Noop{}
	}
	if cfg.TradingDays <= 0 {
		cfg.TradingDays = domain.TradingDaysPerYear
	}
	if cfg.SensitivityPoints <= 0 {
		cfg.SensitivityPoints = 100
	}
	if cfg.MaxSensitivityPoints < cfg.SensitivityPoints {
		cfg.MaxSensitivityPoints = max(cfg.SensitivityPoints, 1000)
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 5 * time.Second
	}
	if cfg.MaxPendingEvents <= 0 {
		cfg.MaxPendingEvents = 256
	}
	return &PricingService{
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		cfg:       cfg,
		pending:   make(chan struct{}, cfg.MaxPendingEvents),
	}
}

// Close 等待在途事件发布完成
func (s *PricingService) Close() {
	s.events.Wait()
}

// Quote 计算价格、希腊字母与行权概率，命中缓存时直接返回
func (s *PricingService) Quote(ctx context.Context, p domain.OptionParameters, t domain.OptionType) (*domain.Quote, error) {
	if cached := s.cachedQuote(ctx, p, t); cached != nil {
		return cached, nil
	}

	quote, err := domain.NewQuote(p, t)
	if err != nil {
		s.metrics.RecordError("quote", reason(err))
		return nil, err
	}
	s.metrics.RecordCalculation("quote", t.String())

	if s.cache != nil {
		if err := s.cache.SaveQuote(ctx, quote); err != nil {
			logger.Warn(ctx, "failed to cache quote", "key", quote.CacheKey(), "error", err)
		}
	}
	s.publishPriced(ctx, quote)
	return quote, nil
}

// Price 期权价格
func (s *PricingService) Price(ctx context.Context, p domain.OptionParameters, t domain.OptionType) (float64, error) {
	quote, err := s.Quote(ctx, p, t)
	if err != nil {
		return 0, err
	}
	return quote.Price, nil
}

// Greeks 五个希腊字母
func (s *PricingService) Greeks(ctx context.Context, p domain.OptionParameters, t domain.OptionType) (domain.Greeks, error) {
	quote, err := s.Quote(ctx, p, t)
	if err != nil {
		return domain.Greeks{}, err
	}
	return quote.Greeks, nil
}

// Probability 风险中性行权概率
func (s *PricingService) Probability(ctx context.Context, p domain.OptionParameters, t domain.OptionType) (float64, error) {
	quote, err := s.Quote(ctx, p, t)
	if err != nil {
		return 0, err
	}
	return quote.ExerciseProbability, nil
}

// Sensitivity 沿标的价格序列计算期权价格与希腊字母。
// 给定 Spots 时直接使用，否则在 [SpotMin, SpotMax] 上生成等距网格。
func (s *PricingService) Sensitivity(ctx context.Context, q SensitivityQuery) ([]domain.SensitivityPoint, error) {
	points, err := s.sensitivity(ctx, q)
	if err != nil {
		s.metrics.RecordError("sensitivity", reason(err))
		return nil, err
	}
	s.metrics.RecordCalculation("sensitivity", q.Type.String())
	return points, nil
}

func (s *PricingService) sensitivity(ctx context.Context, q SensitivityQuery) ([]domain.SensitivityPoint, error) {
	if err := q.Params.Validate(); err != nil {
		return nil, err
	}
	if !q.Type.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidOptionType, q.Type)
	}

	spots, err := s.spots(q)
	if err != nil {
		return nil, err
	}

	points := make([]domain.SensitivityPoint, 0, len(spots))
	for _, spot := range spots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		point, err := domain.NewSensitivityPoint(q.Params, q.Type, spot)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

func (s *PricingService) spots(q SensitivityQuery) ([]float64, error) {
	limit := s.cfg.MaxSensitivityPoints
	if len(q.Spots) > 0 {
		if len(q.Spots) > limit {
			return nil, fmt.Errorf("%w: at most %d spots, got %d", domain.ErrInvalidNumericInput, limit, len(q.Spots))
		}
		return q.Spots, nil
	}

	lo, hi, n := q.SpotMin, q.SpotMax, q.Points
	if lo == 0 {
		lo = math.Max(0.01, 0.5*q.Params.S)
	}
	if hi == 0 {
		hi = 1.5 * q.Params.S
	}
	if n == 0 {
		n = s.cfg.SensitivityPoints
	}
	if n > limit {
		return nil, fmt.Errorf("%w: at most %d points, got %d", domain.ErrInvalidNumericInput, limit, n)
	}
	return domain.SpotGrid(lo, hi, n)
}

// EstimateVolatility 由价格序列估计年化波动率
func (s *PricingService) EstimateVolatility(ctx context.Context, cmd VolatilityCommand) (*VolatilityDTO, error) {
	if s.cfg.MaxSeriesLength > 0 && len(cmd.Prices) > s.cfg.MaxSeriesLength {
		err := fmt.Errorf("%w: at most %d prices, got %d", domain.ErrInvalidNumericInput, s.cfg.MaxSeriesLength, len(cmd.Prices))
		s.metrics.RecordError("volatility", reason(err))
		return nil, err
	}
	days := cmd.TradingDays
	if days == 0 {
		days = s.cfg.TradingDays
	}

	sigma, err := domain.EstimateAnnualizedVolatilityWithDays(cmd.Prices, days)
	if err != nil {
		s.metrics.RecordError("volatility", reason(err))
		return nil, err
	}
	s.metrics.RecordCalculation("volatility", "none")

	result := &VolatilityDTO{
		Sigma:        sigma,
		Observations: len(domain.SimpleReturns(cmd.Prices)),
		TradingDays:  days,
	}
	s.publishVolatility(ctx, result)
	return result, nil
}

// EstimateVolatilityCSV 从 CSV 的指定列读取价格后估计波动率
func (s *PricingService) EstimateVolatilityCSV(ctx context.Context, r io.Reader, column string, tradingDays int) (*VolatilityDTO, error) {
	prices, err := history.ReadPriceColumn(r, column)
	if err != nil {
		s.metrics.RecordError("volatility", reason(err))
		return nil, err
	}
	return s.EstimateVolatility(ctx, VolatilityCommand{Prices: prices, TradingDays: tradingDays})
}

func (s *PricingService) cachedQuote(ctx context.Context, p domain.OptionParameters, t domain.OptionType) *domain.Quote {
	if s.cache == nil || !t.Valid() || p.Validate() != nil {
		return nil
	}
	quote, err := s.cache.GetQuote(ctx, domain.QuoteKey(p, t))
	switch {
	case err != nil:
		s.metrics.RecordCache("error")
		logger.Warn(ctx, "failed to read cached quote", "error", err)
		return nil
	case quote == nil:
		s.metrics.RecordCache("miss")
		return nil
	default:
		s.metrics.RecordCache("hit")
		return quote
	}
}

func (s *PricingService) publishPriced(ctx context.Context, quote *domain.Quote) {
	if s.publisher == nil {
		return
	}
	event := domain.OptionPricedEvent{
		OptionType:          quote.Type,
		Params:              quote.Params,
		Price:               quote.Price,
		Greeks:              quote.Greeks,
		ExerciseProbability: quote.ExerciseProbability,
		OccurredOn:          time.Now(),
	}
	s.publishAsync(ctx, domain.OptionPricedEventType, func(ctx context.Context) error {
		return s.publisher.PublishOptionPriced(ctx, event)
	})
}

func (s *PricingService) publishVolatility(ctx context.Context, result *VolatilityDTO) {
	if s.publisher == nil {
		return
	}
	event := domain.VolatilityEstimatedEvent{
		Sigma:        result.Sigma,
		Observations: result.Observations,
		TradingDays:  result.TradingDays,
		OccurredOn:   time.Now(),
	}
	s.publishAsync(ctx, domain.VolatilityEstimatedEventType, func(ctx context.Context) error {
		return s.publisher.PublishVolatilityEstimated(ctx, event)
	})
}

// publishAsync 脱离请求的取消信号发布事件，保留 ctx 中的 request id
func (s *PricingService) publishAsync(ctx context.Context, eventType string, send func(ctx context.Context) error) {
	select {
	case s.pending <- struct{}{}:
	default:
		s.metrics.RecordEvent(eventType, "dropped")
		logger.Warn(ctx, "too many pending events, dropping", "event", eventType)
		return
	}

	s.events.Add(1)
	go func() {
		defer s.events.Done()
		defer func() { <-s.pending }()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.PublishTimeout)
		defer cancel()
		if err := send(pubCtx); err != nil {
			s.metrics.RecordEvent(eventType, "failed")
			logger.Warn(pubCtx, "failed to publish event", "event", eventType, "error", err)
			return
		}
		s.metrics.RecordEvent(eventType, "published")
	}()
}

// reason 错误分类，用作指标标签
func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidOptionType):
		return "invalid_option_type"
	case errors.Is(err, domain.ErrInvalidNumericInput):
		return "invalid_numeric_input"
	case errors.Is(err, domain.ErrDegenerateInput):
		return "degenerate_input"
	case errors.Is(err, domain.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, history.ErrColumnNotFound):
		return "column_not_found"
	default:
		return "internal"
	}
}
