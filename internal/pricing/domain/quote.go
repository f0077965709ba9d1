package domain

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Quote 一组参数下的完整定价结果
type Quote struct {
	Type                OptionType       `json:"type"`
	Params              OptionParameters `json:"params"`
	Price               float64          `json:"price"`
	Greeks              Greeks           `json:"greeks"`
	ExerciseProbability float64          `json:"exercise_probability"`
}

// NewQuote 计算价格、希腊字母与行权概率
func NewQuote(p OptionParameters, t OptionType) (*Quote, error) {
	k, err := newTerms(p)
	if err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, invalidType(t)
	}

	price, _ := k.price(t)
	prob, _ := k.probability(t)
	return &Quote{
		Type:                t,
		Params:              p,
		Price:               price,
		Greeks:              k.greeks(t),
		ExerciseProbability: prob,
	}, nil
}

// CacheKey 参数与类型的规范化表示，浮点数按最短可逆格式输出
func (q *Quote) CacheKey() string {
	return QuoteKey(q.Params, q.Type)
}

// QuoteKey 构造与 Quote.CacheKey 一致的键
func QuoteKey(p OptionParameters, t OptionType) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s", t, f(p.S), f(p.X), f(p.T), f(p.R), f(p.Sigma))
}

// SensitivityPoint 标的价格网格上的一个点
type SensitivityPoint struct {
	Spot  float64 `json:"spot"`
	Price float64 `json:"price"`
	Greeks
}

// NewSensitivityPoint 以 spot 替换标的价格后计算价格与希腊字母
func NewSensitivityPoint(p OptionParameters, t OptionType, spot float64) (SensitivityPoint, error) {
	k, err := newTerms(p.WithSpot(spot))
	if err != nil {
		return SensitivityPoint{}, err
	}
	if !t.Valid() {
		return SensitivityPoint{}, invalidType(t)
	}
	price, _ := k.price(t)
	return SensitivityPoint{Spot: spot, Price: price, Greeks: k.greeks(t)}, nil
}

// SpotGrid 在 [lo, hi] 上生成 n 个等距点（含端点）。
// 步长按十进制计算，0.1 这类步长不会累积二进制误差。
func SpotGrid(lo, hi float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidNumericInput, n)
	}
	if !(lo > 0) || !(hi > lo) || math.IsInf(hi, 1) {
		return nil, fmt.Errorf("%w: spot range must satisfy 0 < min < max, got [%v, %v]", ErrInvalidNumericInput, lo, hi)
	}

	start := decimal.NewFromFloat(lo)
	end := decimal.NewFromFloat(hi)
	step := end.Sub(start).Div(decimal.NewFromInt(int64(n - 1)))
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = start.Add(step.Mul(decimal.NewFromInt(int64(i)))).InexactFloat64()
	}
	grid[n-1] = hi
	return grid, nil
}

// QuoteCache 定价结果缓存。参数相同的计算结果确定，可安全复用
type QuoteCache interface {
	GetQuote(ctx context.Context, key string) (*Quote, error)
	SaveQuote(ctx context.Context, quote *Quote) error
}
