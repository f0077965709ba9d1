package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionanalytics/internal/pricing/application"
	"github.com/wyfcoding/optionanalytics/internal/pricing/domain"
	"github.com/wyfcoding/optionanalytics/internal/pricing/infrastructure/history"
	"github.com/wyfcoding/optionanalytics/pkg/logger"
)

const (
	msgInvalidInput    = "Invalid input parameters"
	msgPriceBadType    = "option type must be 'call' or 'put'"
	msgGreeksBadType   = "Invalid option type"
	serviceDescription = "Black-Scholes API"
	priceDecimalPlaces = 6
)

// PricingHandler HTTP 处理器
// 负责处理与定价相关的 HTTP 请求
type PricingHandler struct {
	svc *application.PricingService
}

// NewPricingHandler 创建 HTTP 处理器实例
func NewPricingHandler(svc *application.PricingService) *PricingHandler {
	return &PricingHandler{svc: svc}
}

// RegisterRoutes 将处理器方法绑定到 Gin 路由引擎
func (h *PricingHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/", h.Health)
	router.GET("/health", h.Health)
	router.GET("/price", h.GetPrice)
	router.GET("/greeks", h.GetGreeks)
	router.GET("/probability", h.GetProbability)
	router.GET("/sensitivity", h.GetSensitivity)
	router.POST("/volatility", h.EstimateVolatility)
}

// Health 健康检查
func (h *PricingHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceDescription})
}

// GetPrice 期权价格，保留 6 位小数
func (h *PricingHandler) GetPrice(c *gin.Context) {
	params, rawType, ok := bindOptionQuery(c)
	if !ok {
		return
	}
	if rawType != "call" && rawType != "put" {
		errorResponse(c, http.StatusBadRequest, msgPriceBadType)
		return
	}
	optionType, _ := domain.ParseOptionType(rawType)

	price, err := h.svc.Price(c.Request.Context(), params, optionType)
	if err != nil {
		h.handleError(c, "price", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"price": round(price),
		"inputs": gin.H{
			"S":     params.S,
			"X":     params.X,
			"T":     params.T,
			"r":     params.R,
			"sigma": params.Sigma,
			"type":  rawType,
		},
	})
}

// GetGreeks 五个希腊字母
func (h *PricingHandler) GetGreeks(c *gin.Context) {
	params, rawType, ok := bindOptionQuery(c)
	if !ok {
		return
	}
	if rawType != "call" && rawType != "put" {
		errorResponse(c, http.StatusBadRequest, msgGreeksBadType)
		return
	}
	optionType, _ := domain.ParseOptionType(rawType)

	greeks, err := h.svc.Greeks(c.Request.Context(), params, optionType)
	if err != nil {
		h.handleError(c, "greeks", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"delta": greeks.Delta,
		"gamma": greeks.Gamma,
		"theta": greeks.Theta,
		"vega":  greeks.Vega,
		"rho":   greeks.Rho,
	})
}

// GetProbability 风险中性行权概率
func (h *PricingHandler) GetProbability(c *gin.Context) {
	params, rawType, ok := bindOptionQuery(c)
	if !ok {
		return
	}
	optionType, err := domain.ParseOptionType(rawType)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, msgPriceBadType)
		return
	}

	prob, err := h.svc.Probability(c.Request.Context(), params, optionType)
	if err != nil {
		h.handleError(c, "probability", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"probability": prob, "type": optionType.String()})
}

// GetSensitivity 沿标的价格序列计算价格与希腊字母，spots 为逗号分隔的显式序列
func (h *PricingHandler) GetSensitivity(c *gin.Context) {
	params, rawType, ok := bindOptionQuery(c)
	if !ok {
		return
	}
	optionType, err := domain.ParseOptionType(rawType)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, msgPriceBadType)
		return
	}

	query := application.SensitivityQuery{Params: params, Type: optionType}
	if raw := strings.TrimSpace(c.Query("spots")); raw != "" {
		for _, field := range strings.Split(raw, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				errorResponse(c, http.StatusBadRequest, msgInvalidInput)
				return
			}
			query.Spots = append(query.Spots, v)
		}
	}
	if query.SpotMin, ok = optionalFloat(c, "s_min"); !ok {
		return
	}
	if query.SpotMax, ok = optionalFloat(c, "s_max"); !ok {
		return
	}
	if raw := strings.TrimSpace(c.Query("points")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			errorResponse(c, http.StatusBadRequest, msgInvalidInput)
			return
		}
		query.Points = n
	}

	points, err := h.svc.Sensitivity(c.Request.Context(), query)
	if err != nil {
		h.handleError(c, "sensitivity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"type": optionType.String(), "points": points})
}

// VolatilityRequest 波动率估计请求
type VolatilityRequest struct {
	Prices      []float64 `json:"prices" binding:"required"`
	TradingDays int       `json:"trading_days"`
}

// EstimateVolatility 历史波动率估计，支持 JSON 与 text/csv 请求体
func (h *PricingHandler) EstimateVolatility(c *gin.Context) {
	var (
		result *application.VolatilityDTO
		err    error
	)

	if c.ContentType() == "text/csv" {
		days := 0
		if raw := strings.TrimSpace(c.Query("trading_days")); raw != "" {
			if days, err = strconv.Atoi(raw); err != nil {
				errorResponse(c, http.StatusBadRequest, msgInvalidInput)
				return
			}
		}
		column := c.DefaultQuery("column", history.DefaultColumn)
		result, err = h.svc.EstimateVolatilityCSV(c.Request.Context(), c.Request.Body, column, days)
	} else {
		var req VolatilityRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			errorResponse(c, http.StatusBadRequest, msgInvalidInput)
			return
		}
		result, err = h.svc.EstimateVolatility(c.Request.Context(), application.VolatilityCommand{
			Prices:      req.Prices,
			TradingDays: req.TradingDays,
		})
	}
	if err != nil {
		h.handleError(c, "volatility", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sigma":        result.Sigma,
		"observations": result.Observations,
		"trading_days": result.TradingDays,
	})
}

func (h *PricingHandler) handleError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		errorResponse(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrInvalidOptionType),
		errors.Is(err, domain.ErrInvalidNumericInput),
		errors.Is(err, domain.ErrDegenerateInput),
		errors.Is(err, history.ErrColumnNotFound):
		errorResponse(c, http.StatusBadRequest, err.Error())
	default:
		logger.Error(c.Request.Context(), "pricing request failed", "operation", operation, "error", err)
		errorResponse(c, http.StatusInternalServerError, err.Error())
	}
}

// bindOptionQuery 解析 S、X、T、r、sigma，失败时直接写入 400 响应
func bindOptionQuery(c *gin.Context) (domain.OptionParameters, string, bool) {
	var p domain.OptionParameters
	fields := []struct {
		name string
		dst  *float64
	}{
		{"S", &p.S},
		{"X", &p.X},
		{"T", &p.T},
		{"r", &p.R},
		{"sigma", &p.Sigma},
	}
	for _, f := range fields {
		raw, exists := c.GetQuery(f.name)
		if !exists {
			errorResponse(c, http.StatusBadRequest, msgInvalidInput)
			return p, "", false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, msgInvalidInput)
			return p, "", false
		}
		*f.dst = v
	}
	return p, c.Query("type"), true
}

func optionalFloat(c *gin.Context, name string) (float64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, msgInvalidInput)
		return 0, false
	}
	return v, true
}

func errorResponse(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// round 按二进制精确值四舍五入（舍入到偶数），与 Python round 一致
func round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', priceDecimalPlaces, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
