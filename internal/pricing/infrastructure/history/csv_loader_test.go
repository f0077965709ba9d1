package history

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `date,open,close
2024-01-02,99.5,100
2024-01-03,100.2,101
2024-01-04,101.1,n/a
2024-01-05,99.0,99
`

func TestReadPriceColumn(t *testing.T) {
	prices, err := ReadPriceColumn(strings.NewReader(sample), "close")
	require.NoError(t, err)
	require.Len(t, prices, 4)
	assert.Equal(t, 100.0, prices[0])
	assert.Equal(t, 101.0, prices[1])
	assert.True(t, math.IsNaN(prices[2]))
	assert.Equal(t, 99.0, prices[3])

	open, err := ReadPriceColumn(strings.NewReader(sample), " open ")
	require.NoError(t, err)
	assert.Equal(t, []float64{99.5, 100.2, 101.1, 99.0}, open)
}

func TestReadPriceColumnDefault(t *testing.T) {
	prices, err := ReadPriceColumn(strings.NewReader(sample), "")
	require.NoError(t, err)
	assert.Len(t, prices, 4)
}

func TestReadPriceColumnMissing(t *testing.T) {
	_, err := ReadPriceColumn(strings.NewReader(sample), "adj_close")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestReadPriceColumnHeaderOnly(t *testing.T) {
	prices, err := ReadPriceColumn(strings.NewReader("date,close\n"), "close")
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestReadPriceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	prices, err := ReadPriceFile(path, "close")
	require.NoError(t, err)
	assert.Len(t, prices, 4)

	_, err = ReadPriceFile(filepath.Join(t.TempDir(), "missing.csv"), "close")
	assert.Error(t, err)
}
