package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateAnnualizedVolatility(t *testing.T) {
	sigma, err := EstimateAnnualizedVolatility([]float64{100, 101, 99, 102, 98, 103})
	require.NoError(t, err)
	assert.InDelta(t, 0.5801590555767, sigma, 1e-12)
}

func TestEstimateConstantSeries(t *testing.T) {
	sigma, err := EstimateAnnualizedVolatility([]float64{42, 42, 42, 42})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sigma)
}

func TestEstimateInsufficientData(t *testing.T) {
	for _, prices := range [][]float64{
		nil,
		{100},
		{100, 101},
		{0, 1, 2},             // 首个收益率为 Inf，仅剩一个样本
		{100, math.NaN(), 99}, // 两个收益率均为 NaN
	} {
		_, err := EstimateAnnualizedVolatility(prices)
		assert.ErrorIs(t, err, ErrInsufficientData, "%v", prices)
	}
}

func TestEstimateDropsUndefinedReturns(t *testing.T) {
	withGap, err := EstimateAnnualizedVolatility([]float64{0, 100, 101, 99, 102, 98, 103})
	require.NoError(t, err)
	clean, err := EstimateAnnualizedVolatility([]float64{100, 101, 99, 102, 98, 103})
	require.NoError(t, err)
	assert.InDelta(t, clean, withGap, 1e-12)
}

func TestEstimateTradingDays(t *testing.T) {
	prices := []float64{100, 101, 99, 102, 98, 103}
	daily, err := EstimateAnnualizedVolatilityWithDays(prices, 1)
	require.NoError(t, err)
	annual, err := EstimateAnnualizedVolatility(prices)
	require.NoError(t, err)
	assert.InDelta(t, daily*math.Sqrt(252), annual, 1e-12)

	_, err = EstimateAnnualizedVolatilityWithDays(prices, 0)
	assert.ErrorIs(t, err, ErrInvalidNumericInput)
}

func TestSimpleReturns(t *testing.T) {
	assert.Nil(t, SimpleReturns([]float64{1}))
	assert.InDeltaSlice(t, []float64{0.1, -0.5}, SimpleReturns([]float64{10, 11, 5.5}), 1e-12)
}
