package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear 年化使用的交易日数
const TradingDaysPerYear = 252

// EstimateAnnualizedVolatility 由按时间排序的价格序列估计年化波动率
func EstimateAnnualizedVolatility(prices []float64) (float64, error) {
	return EstimateAnnualizedVolatilityWithDays(prices, TradingDaysPerYear)
}

// EstimateAnnualizedVolatilityWithDays 同 EstimateAnnualizedVolatility，可指定年化天数
func EstimateAnnualizedVolatilityWithDays(prices []float64, tradingDays int) (float64, error) {
	if tradingDays <= 0 {
		return 0, fmt.Errorf("%w: trading days must be positive, got %d", ErrInvalidNumericInput, tradingDays)
	}

	returns := SimpleReturns(prices)
	if len(returns) < 2 {
		return 0, fmt.Errorf("%w: need at least 2 usable returns, got %d from %d prices",
			ErrInsufficientData, len(returns), len(prices))
	}

	// stat.StdDev 为无偏估计（除以 n-1）
	sd := stat.StdDev(returns, nil)
	return sd * math.Sqrt(float64(tradingDays)), nil
}

// SimpleReturns 计算逐期百分比收益率 (P_t - P_{t-1}) / P_{t-1}，丢弃非有限结果
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		r := (prices[i] - prices[i-1]) / prices[i-1]
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		returns = append(returns, r)
	}
	return returns
}
