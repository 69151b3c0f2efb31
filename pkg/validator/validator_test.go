package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

type updateRequest struct {
	Amount int    `json:"amount" validate:"gte=0,lte=1000"`
	Note   string `json:"note" validate:"max=5"`
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(addRequest{ProductID: 3}))
}

func TestValidate_MissingRequired_UsesJSONName(t *testing.T) {
	err := Validate(addRequest{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["product_id"])
	assert.Contains(t, err.Error(), "field 'product_id' is required")
}

func TestValidate_Ranges(t *testing.T) {
	err := Validate(updateRequest{Amount: 1001, Note: "too long"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be less than or equal to 1000", fields["amount"])
	assert.Equal(t, "must be at most 5", fields["note"])
}

func TestValidate_NegativeProductID(t *testing.T) {
	err := Validate(addRequest{ProductID: -1})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be greater than 0", valErr.Fields()["product_id"])
}

func TestDecodeAndValidate_Success(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":7}`))

	var dst addRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, 7, dst.ProductID)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))

	var dst addRequest
	err := DecodeAndValidate(req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_UnknownField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":1,"qty":2}`))

	var dst addRequest
	err := DecodeAndValidate(req, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestDecodeAndValidate_ValidationFailure(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":0}`))

	var dst addRequest
	err := DecodeAndValidate(req, &dst)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}
