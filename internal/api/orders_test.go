package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderDateRFC3339(t *testing.T) {
	parsed, ok := parseOrderDate("2024-03-07T15:04:05Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC), parsed)
}

func TestParseOrderDateBareDate(t *testing.T) {
	parsed, ok := parseOrderDate("2024-01-01")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), parsed)
}

func TestParseOrderDateInvalid(t *testing.T) {
	_, ok := parseOrderDate("")
	assert.False(t, ok)

	_, ok = parseOrderDate("yesterday")
	assert.False(t, ok)

	_, ok = parseOrderDate("01/02/2024")
	assert.False(t, ok)
}
