package main

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PriceSentinel/internal/strategy"
)

func TestParseArgs(t *testing.T) {
	prices, err := parseArgs([]string{"100", "1 234,56 ₽", "$99.90"})
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 1234.56, 99.9}, prices)

	_, err = parseArgs(nil)
	assert.Error(t, err)
	_, err = parseArgs([]string{"abc"})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run(&buf, []string{"100", "200", "300", "400"}, "competitive", 120, true))
	out := buf.String()
	assert.Contains(t, out, "175.00")
	assert.Contains(t, out, "below_market")
	assert.Contains(t, out, "aggressive")

	err := run(&buf, []string{"100"}, "yolo", 0, false)
	assert.True(t, errors.Is(err, strategy.ErrUnknownStrategy))
}
