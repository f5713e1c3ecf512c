package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
	"github.com/nazeru/pizza-billing-go/internal/billing/store"
	"github.com/nazeru/pizza-billing-go/pkg/idempotency"
	"github.com/nazeru/pizza-billing-go/pkg/logging"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	ts := httptest.NewServer(New(mem, nil, logging.NewNop()).Handler())
	t.Cleanup(ts.Close)
	return ts, mem
}

func mustCreateItem(t *testing.T, mem *store.Memory, name, category, price string, available bool) domain.Item {
	t.Helper()
	it, err := mem.CreateItem(context.Background(), domain.Item{
		Name:         name,
		Category:     category,
		Price:        decimal.RequireFromString(price),
		Availability: available,
	})
	require.NoError(t, err)
	return it
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var e struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestListItemsEmptyIsArray(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/items", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func TestItemLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/items", map[string]any{
		"name": "Margherita Pizza", "category": "Pizza", "price": 8.99, "availability": true,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created domain.Item
	require.NoError(t, json.Unmarshal(body, &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "8.99", created.Price.StringFixed(2))

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/items/%d", ts.URL, created.ID), nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/items/%d", ts.URL, created.ID), map[string]any{
		"price": 9.49, "availability": true,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.Item
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "9.49", updated.Price.StringFixed(2))
	assert.Equal(t, "Margherita Pizza", updated.Name)

	resp, body = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/items/%d", ts.URL, created.ID), nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"Item deleted successfully"}`, string(body))

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/items/%d", ts.URL, created.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Item not found", errorMessage(t, body))
}

func TestCreateItemValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	cases := []struct {
		body map[string]any
		want string
	}{
		{map[string]any{"category": "Pizza", "price": 1.0}, "Item name is required"},
		{map[string]any{"name": "Coke", "price": 1.0}, "Category is required"},
		{map[string]any{"name": "Coke", "category": "Beverage"}, "Price must be greater than 0"},
		{map[string]any{"name": "Coke", "category": "Beverage", "price": -2.0}, "Price must be greater than 0"},
	}
	for _, tc := range cases {
		resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/items", tc.body, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, tc.want, errorMessage(t, body))
	}
}

func TestInvalidItemID(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/items/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid item ID", errorMessage(t, body))
}

func TestCreateInvoiceRoundTrip(t *testing.T) {
	ts, mem := newTestServer(t)
	pizza := mustCreateItem(t, mem, "Margherita Pizza", "Pizza", "8.99", true)
	coke := mustCreateItem(t, mem, "Coke", "Beverage", "1.99", true)

	req := domain.CreateInvoiceRequest{Items: []domain.InvoiceLine{
		{ItemID: pizza.ID, Quantity: 2},
		{ItemID: coke.ID, Quantity: 1},
	}}
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/invoices", req, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var inv domain.Invoice
	require.NoError(t, json.Unmarshal(body, &inv))

	// round-trip contract: one line per request item, grand total = total * 1.10
	require.Len(t, inv.InvoiceItems, len(req.Items))
	sum := decimal.Zero
	for _, li := range inv.InvoiceItems {
		sum = sum.Add(li.Subtotal)
	}
	assert.True(t, inv.Total.Equal(sum))
	assert.True(t, inv.GrandTotal.Equal(sum.Add(domain.Tax(sum))))
	assert.Equal(t, "19.97", inv.Total.StringFixed(2))
	assert.Equal(t, "21.97", inv.GrandTotal.StringFixed(2))
	assert.Equal(t, "Margherita Pizza", inv.InvoiceItems[0].Item.Name)
	assert.False(t, inv.Date.IsZero())

	resp, body = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/invoices/%d", ts.URL, inv.ID), nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched domain.Invoice
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, inv.ID, fetched.ID)
}

func TestCreateInvoiceEmpty(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/invoices", map[string]any{"items": []any{}}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invoice must have at least one item", errorMessage(t, body))
}

func TestCreateInvoiceUnknownItem(t *testing.T) {
	ts, _ := newTestServer(t)
	req := domain.CreateInvoiceRequest{Items: []domain.InvoiceLine{{ItemID: 999, Quantity: 1}}}
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/invoices", req, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Item not found with ID: 999", errorMessage(t, body))
}

func TestCreateInvoiceUnavailableItem(t *testing.T) {
	ts, mem := newTestServer(t)
	offSale := mustCreateItem(t, mem, "Hawaiian Pizza", "Pizza", "11.99", false)

	req := domain.CreateInvoiceRequest{Items: []domain.InvoiceLine{{ItemID: offSale.ID, Quantity: 1}}}
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/invoices", req, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Item is not available: Hawaiian Pizza", errorMessage(t, body))
}

func TestCreateInvoiceIdempotencyKey(t *testing.T) {
	ts, mem := newTestServer(t)
	pizza := mustCreateItem(t, mem, "Margherita Pizza", "Pizza", "8.99", true)

	req := domain.CreateInvoiceRequest{Items: []domain.InvoiceLine{{ItemID: pizza.ID, Quantity: 1}}}
	headers := map[string]string{idempotency.Header: "double-click"}

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/invoices", req, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var first domain.Invoice
	require.NoError(t, json.Unmarshal(body, &first))

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/invoices", req, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second domain.Invoice
	require.NoError(t, json.Unmarshal(body, &second))

	assert.Equal(t, first.ID, second.ID)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/invoices", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var invoices []domain.Invoice
	require.NoError(t, json.Unmarshal(body, &invoices))
	assert.Len(t, invoices, 1)
}

func TestGetInvoiceNotFound(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/invoices/42", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Invoice not found", errorMessage(t, body))
}

func TestListInvoicesNewestFirst(t *testing.T) {
	ts, mem := newTestServer(t)
	pizza := mustCreateItem(t, mem, "Margherita Pizza", "Pizza", "8.99", true)

	req := domain.CreateInvoiceRequest{Items: []domain.InvoiceLine{{ItemID: pizza.ID, Quantity: 1}}}
	for i := 0; i < 3; i++ {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/invoices", req, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/api/invoices", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var invoices []domain.Invoice
	require.NoError(t, json.Unmarshal(body, &invoices))
	require.Len(t, invoices, 3)
	assert.Greater(t, invoices[0].ID, invoices[2].ID)
}
