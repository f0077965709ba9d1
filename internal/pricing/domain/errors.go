package domain

import "errors"

var (
	// ErrInvalidOptionType 期权类型既不是 call 也不是 put
	ErrInvalidOptionType = errors.New("invalid option type")
	// ErrInvalidNumericInput 数值参数缺失、无法解析、非有限或越界
	ErrInvalidNumericInput = errors.New("invalid numeric input")
	// ErrDegenerateInput T 或 sigma 不为正，公式会出现除零
	ErrDegenerateInput = errors.New("degenerate input")
	// ErrInsufficientData 可用收益率样本不足两个
	ErrInsufficientData = errors.New("insufficient data")
)
