package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDiscountCode(t *testing.T) {
	assert.Equal(t, "SUMMER10", NormalizeDiscountCode("  summer10 "))
	assert.Equal(t, "FREESHIP", NormalizeDiscountCode("FreeShip"))
	assert.Equal(t, "", NormalizeDiscountCode("   "))
}

func TestDiscountIsUsable(t *testing.T) {
	now := time.Now()
	base := Discount{
		IsActive:     true,
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		MaxUsage:     10,
		CurrentUsage: 5,
	}

	assert.True(t, base.IsUsable(now))

	inactive := base
	inactive.IsActive = false
	assert.False(t, inactive.IsUsable(now))

	early := base
	early.StartDate = now.Add(time.Minute)
	assert.False(t, early.IsUsable(now))

	late := base
	late.EndDate = now.Add(-time.Minute)
	assert.False(t, late.IsUsable(now))

	exhausted := base
	exhausted.CurrentUsage = 10
	assert.False(t, exhausted.IsUsable(now))

	// Boundary instants are inclusive.
	edge := base
	edge.StartDate = now
	edge.EndDate = now
	assert.True(t, edge.IsUsable(now))
}

func TestDiscountIsExpired(t *testing.T) {
	now := time.Now()
	d := Discount{EndDate: now.Add(-time.Second)}
	assert.True(t, d.IsExpired(now))

	d.EndDate = now.Add(time.Second)
	assert.False(t, d.IsExpired(now))
}
