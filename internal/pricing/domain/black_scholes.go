package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Greeks 希腊字母
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// terms 一次定价过程中共享的中间量
type terms struct {
	p        OptionParameters
	sqrtT    float64
	d1       float64
	d2       float64
	discount float64 // e^(-rT)
}

func newTerms(p OptionParameters) (terms, error) {
	if err := p.Validate(); err != nil {
		return terms{}, err
	}
	sqrtT := math.Sqrt(p.T)
	d1 := (math.Log(p.S/p.X) + (p.R+0.5*p.Sigma*p.Sigma)*p.T) / (p.Sigma * sqrtT)
	return terms{
		p:        p,
		sqrtT:    sqrtT,
		d1:       d1,
		d2:       d1 - p.Sigma*sqrtT,
		discount: math.Exp(-p.R * p.T),
	}, nil
}

func (k terms) price(t OptionType) (float64, error) {
	switch t {
	case OptionTypeCall:
		return k.p.S*normCdf(k.d1) - k.p.X*k.discount*normCdf(k.d2), nil
	case OptionTypePut:
		return k.p.X*k.discount*normCdf(-k.d2) - k.p.S*normCdf(-k.d1), nil
	}
	return 0, invalidType(t)
}

func (k terms) delta(t OptionType) (float64, error) {
	switch t {
	case OptionTypeCall:
		return normCdf(k.d1), nil
	case OptionTypePut:
		return normCdf(k.d1) - 1, nil
	}
	return 0, invalidType(t)
}

func (k terms) gamma() float64 {
	return normPdf(k.d1) / (k.p.S * k.p.Sigma * k.sqrtT)
}

func (k terms) theta(t OptionType) (float64, error) {
	decay := -(k.p.S * normPdf(k.d1) * k.p.Sigma) / (2 * k.sqrtT)
	carry := k.p.R * k.p.X * k.discount
	switch t {
	case OptionTypeCall:
		return decay - carry*normCdf(k.d2), nil
	case OptionTypePut:
		return decay + carry*normCdf(-k.d2), nil
	}
	return 0, invalidType(t)
}

func (k terms) vega() float64 {
	return k.p.S * normPdf(k.d1) * k.sqrtT
}

func (k terms) rho(t OptionType) (float64, error) {
	switch t {
	case OptionTypeCall:
		return k.p.X * k.p.T * k.discount * normCdf(k.d2), nil
	case OptionTypePut:
		return -k.p.X * k.p.T * k.discount * normCdf(-k.d2), nil
	}
	return 0, invalidType(t)
}

func (k terms) probability(t OptionType) (float64, error) {
	switch t {
	case OptionTypeCall:
		return normCdf(k.d2), nil
	case OptionTypePut:
		return normCdf(-k.d2), nil
	}
	return 0, invalidType(t)
}

// Price 计算欧式期权的 Black-Scholes 价格
func Price(p OptionParameters, t OptionType) (float64, error) {
	k, err := newTerms(p)
	if err != nil {
		return 0, err
	}
	return k.price(t)
}

// Delta ∂V/∂S
func Delta(p OptionParameters, t OptionType) (float64, error) {
	k, err := newTerms(p)
	if err != nil {
		return 0, err
	}
	return k.delta(t)
}

// Gamma ∂²V/∂S²，看涨看跌相同
func Gamma(p OptionParameters) (float64, error) {
	k, err := newTerms(p)
	if err != nil {
		return 0, err
	}
	return k.gamma(), nil
}

// Theta 时间衰减（年化）
func Theta(p OptionParameters, t OptionType) (float64, error) {
	k, err := newTerms(p)
	if err != nil {
		return 0, err
	}
	return k.theta(t)
}

// Vega ∂V/∂sigma，看涨看跌相同
func Vega(p OptionParameters) (float64, error) {
	k, err := newTerms(p)
	if err != nil {
		return 0, err
	}
	return k.vega(), nil
}

// Rho ∂V/∂r
func Rho(p OptionParameters, t OptionType) (float64, error) {
	k, err := newTerms(p)
	if err != nil {
		return 0, err
	}
	return k.rho(t)
}

// ExerciseProbability 风险中性测度下到期实值的概率 N(±d2)
func ExerciseProbability(p OptionParameters, t OptionType) (float64, error) {
	k, err := newTerms(p)
	if err != nil {
		return 0, err
	}
	return k.probability(t)
}

// ComputeGreeks 一次性计算五个希腊字母，共享 d1/d2
func ComputeGreeks(p OptionParameters, t OptionType) (Greeks, error) {
	k, err := newTerms(p)
	if err != nil {
		return Greeks{}, err
	}
	if !t.Valid() {
		return Greeks{}, invalidType(t)
	}
	return k.greeks(t), nil
}

// greeks 调用方需保证 t 合法
func (k terms) greeks(t OptionType) Greeks {
	delta, _ := k.delta(t)
	theta, _ := k.theta(t)
	rho, _ := k.rho(t)
	return Greeks{
		Delta: delta,
		Gamma: k.gamma(),
		Theta: theta,
		Vega:  k.vega(),
		Rho:   rho,
	}
}

func invalidType(t OptionType) error {
	return fmt.Errorf("%w: %s", ErrInvalidOptionType, t)
}

// normCdf 标准正态分布累积分布函数
func normCdf(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normPdf 标准正态分布概率密度函数
func normPdf(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
