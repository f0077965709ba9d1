package application

import "github.com/wyfcoding/optionanalytics/internal/pricing/domain"

// SensitivityQuery 标的价格敏感度扫描请求，零值字段使用默认值
type SensitivityQuery struct {
	Params domain.OptionParameters
	Type   domain.OptionType
	// Spots 显式的标的价格序列，非空时忽略 SpotMin/SpotMax/Points
	Spots   []float64
	SpotMin float64
	SpotMax float64
	Points  int
}

// VolatilityCommand 历史波动率估计请求
type VolatilityCommand struct {
	Prices []float64
	// TradingDays 年化天数，0 使用服务默认值
	TradingDays int
}

// VolatilityDTO 波动率估计结果
type VolatilityDTO struct {
	Sigma        float64 `json:"sigma"`
	Observations int     `json:"observations"`
	TradingDays  int     `json:"trading_days"`
}
