package api

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDiscountRequestBindsZeroSubtotal(t *testing.T) {
	var req validateDiscountRequest
	err := binding.JSON.BindBody([]byte(`{"code":"FREESHIP","subtotal":0}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "FREESHIP", req.Code)
	assert.Equal(t, 0.0, req.Subtotal)
}

func TestRedeemDiscountRequestBindsZeroSubtotal(t *testing.T) {
	var req redeemDiscountRequest
	err := binding.JSON.BindBody(
		[]byte(`{"code":"FREESHIP","subtotal":0,"customerEmail":"a@example.com"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, req.Subtotal)
	assert.Equal(t, "a@example.com", req.CustomerEmail)
}

func TestRedeemDiscountRequestRequiresEmail(t *testing.T) {
	var req redeemDiscountRequest
	err := binding.JSON.BindBody([]byte(`{"code":"X","subtotal":10}`), &req)
	assert.Error(t, err)
}

func TestValidateDiscountRequestRejectsNegativeSubtotal(t *testing.T) {
	var req validateDiscountRequest
	err := binding.JSON.BindBody([]byte(`{"code":"X","subtotal":-1}`), &req)
	assert.Error(t, err)
}
