// Package apiclient is the typed REST client for the billing API. It is the
// only way the POS front-end talks to the backend: one request per call, no
// retries, context on everything.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
	"github.com/nazeru/pizza-billing-go/pkg/idempotency"
)

// DefaultTimeout bounds every request unless the caller's context is shorter.
const DefaultTimeout = 10 * time.Second

// APIError is a server-reported failure: the {"error": string} body the
// backend sends with a 4xx/5xx status. The message is surfaced verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a server-side 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for a base URL like "http://localhost:8080". The /api
// prefix is added per call.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) ListItems(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	if err := c.do(ctx, http.MethodGet, "/api/items", nil, "", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) GetItem(ctx context.Context, id uint64) (domain.Item, error) {
	var item domain.Item
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/items/%d", id), nil, "", &item)
	return item, err
}

func (c *Client) CreateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	var created domain.Item
	err := c.do(ctx, http.MethodPost, "/api/items", item, "", &created)
	return created, err
}

func (c *Client) UpdateItem(ctx context.Context, id uint64, patch domain.Item) (domain.Item, error) {
	var updated domain.Item
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/items/%d", id), patch, "", &updated)
	return updated, err
}

func (c *Client) DeleteItem(ctx context.Context, id uint64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/items/%d", id), nil, "", nil)
}

func (c *Client) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	if err := c.do(ctx, http.MethodGet, "/api/invoices", nil, "", &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (c *Client) GetInvoice(ctx context.Context, id uint64) (domain.Invoice, error) {
	var inv domain.Invoice
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/invoices/%d", id), nil, "", &inv)
	return inv, err
}

// CreateInvoice submits the cart's write shape. The optional idempotency key
// lets the server collapse an accidental duplicate of the same submission.
func (c *Client) CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest, idempotencyKey string) (domain.Invoice, error) {
	var inv domain.Invoice
	err := c.do(ctx, http.MethodPost, "/api/invoices", req, idempotencyKey, &inv)
	return inv, err
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, "", nil)
}

// do performs one round trip. Transport failures come back wrapped; non-2xx
// responses are decoded into *APIError.
func (c *Client) do(ctx context.Context, method, path string, body any, idemKey string, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	idempotency.Set(req, idemKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	return nil
}
