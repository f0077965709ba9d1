// Package history 读取历史行情文件
package history

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// DefaultColumn 默认读取的价格列
const DefaultColumn = "close"

// ErrColumnNotFound 表头中不存在指定列
var ErrColumnNotFound = errors.New("column not found")

// ReadPriceColumn 从带表头的 CSV 中按时间顺序读取指定列。
// 无法解析的单元格记为 NaN，由波动率估计剔除。
func ReadPriceColumn(r io.Reader, column string) ([]float64, error) {
	column = strings.TrimSpace(column)
	if column == "" {
		column = DefaultColumn
	}

	rows, err := gocsv.CSVToMaps(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if _, ok := rows[0][column]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	prices := make([]float64, 0, len(rows))
	for _, row := range rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[column]), 64)
		if err != nil {
			v = math.NaN()
		}
		prices = append(prices, v)
	}
	return prices, nil
}

// ReadPriceFile 打开文件并读取指定列
func ReadPriceFile(path, column string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()
	return ReadPriceColumn(f, column)
}
