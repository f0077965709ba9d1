// Package domain 定价服务的领域模型：Black-Scholes 闭式解与历史波动率估计
package domain

import (
	"fmt"
	"math"
	"strings"
)

// OptionType 期权类型
type OptionType int

const (
	OptionTypeCall OptionType = iota + 1 // 看涨期权
	OptionTypePut                        // 看跌期权
)

// ParseOptionType 将外部输入的字符串解析为期权类型，只接受 call / put
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return OptionTypeCall, nil
	case "put":
		return OptionTypePut, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidOptionType, s)
	}
}

// String 返回小写的类型名称，与 HTTP 接口保持一致
func (t OptionType) String() string {
	switch t {
	case OptionTypeCall:
		return "call"
	case OptionTypePut:
		return "put"
	default:
		return fmt.Sprintf("OptionType(%d)", int(t))
	}
}

// Valid 判断类型是否为 Call 或 Put
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// MarshalText 实现 encoding.TextMarshaler
func (t OptionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOptionType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (t *OptionType) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// OptionParameters Black-Scholes 模型输入
type OptionParameters struct {
	S     float64 `json:"S"`     // 标的资产价格
	X     float64 `json:"X"`     // 执行价格
	T     float64 `json:"T"`     // 到期时间 (年)
	R     float64 `json:"r"`     // 无风险利率 (连续复利)
	Sigma float64 `json:"sigma"` // 年化波动率
}

// Validate 校验参数定义域。所有入口（库、HTTP、CLI）共用这一套规则：
// 非有限值与非正的 S/X 返回 ErrInvalidNumericInput，
// 非正的 T/Sigma 返回 ErrDegenerateInput。
func (p OptionParameters) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"S", p.S},
		{"X", p.X},
		{"T", p.T},
		{"r", p.R},
		{"sigma", p.Sigma},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidNumericInput, f.name, f.value)
		}
	}

	if p.S <= 0 {
		return fmt.Errorf("%w: S must be positive, got %v", ErrInvalidNumericInput, p.S)
	}
	if p.X <= 0 {
		return fmt.Errorf("%w: X must be positive, got %v", ErrInvalidNumericInput, p.X)
	}
	if p.T <= 0 {
		return fmt.Errorf("%w: T must be positive, got %v", ErrDegenerateInput, p.T)
	}
	if p.Sigma <= 0 {
		return fmt.Errorf("%w: sigma must be positive, got %v", ErrDegenerateInput, p.Sigma)
	}
	return nil
}

// WithSpot 返回替换了标的价格的副本
func (p OptionParameters) WithSpot(s float64) OptionParameters {
	p.S = s
	return p
}
