package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxIsTenPercentRounded(t *testing.T) {
	assert.Equal(t, "1.30", Tax(decimal.RequireFromString("13.00")).StringFixed(2))
	assert.Equal(t, "0.90", Tax(decimal.RequireFromString("8.99")).StringFixed(2)) // 0.899 rounds up
	assert.Equal(t, "0.00", Tax(decimal.Zero).StringFixed(2))
}

func TestGrandTotal(t *testing.T) {
	total := decimal.RequireFromString("1300.00")
	assert.Equal(t, "1430.00", GrandTotal(total).StringFixed(2))
}

func TestLineSubtotal(t *testing.T) {
	price := decimal.RequireFromString("10.99")
	assert.Equal(t, "32.97", LineSubtotal(price, 3).StringFixed(2))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$8.99", FormatMoney(decimal.RequireFromString("8.99")))
	assert.Equal(t, "$0.00", FormatMoney(decimal.Zero))
	assert.Equal(t, "$1430.00", FormatMoney(decimal.RequireFromString("1430")))
}

func TestCreateInvoiceRequestValidate(t *testing.T) {
	assert.ErrorIs(t, CreateInvoiceRequest{}.Validate(), ErrNoLines)

	err := CreateInvoiceRequest{Items: []InvoiceLine{{ItemID: 1, Quantity: 0}}}.Validate()
	assert.Error(t, err)

	err = CreateInvoiceRequest{Items: []InvoiceLine{{ItemID: 0, Quantity: 1}}}.Validate()
	assert.Error(t, err)

	err = CreateInvoiceRequest{Items: []InvoiceLine{{ItemID: 1, Quantity: 2}, {ItemID: 2, Quantity: 1}}}.Validate()
	assert.NoError(t, err)
}

func TestMoneyMarshalsAsBareNumber(t *testing.T) {
	it := Item{ID: 1, Name: "Margherita Pizza", Category: CategoryPizza, Price: decimal.RequireFromString("8.99"), Availability: true}
	data, err := json.Marshal(it)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"price":8.99`)
	assert.NotContains(t, string(data), `"price":"8.99"`)
}

func TestCreateInvoiceRequestWireShape(t *testing.T) {
	req := CreateInvoiceRequest{Items: []InvoiceLine{{ItemID: 5, Quantity: 2}}}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"item_id":5,"quantity":2}]}`, string(data))
}
