// Package store owns the durable state behind the billing API: the item
// catalog and the immutable invoice history. Two implementations share one
// contract, Postgres for real deployments and an in-memory store for tests
// and database-less runs.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
)

// ErrNotFound reports a missing item or invoice. Typed wrappers below carry
// the identity for user-facing messages.
var ErrNotFound = errors.New("not found")

// ItemNotFoundError identifies the offending id of an invoice line.
type ItemNotFoundError struct {
	ID uint64
}

func (e ItemNotFoundError) Error() string { return fmt.Sprintf("item not found with id: %d", e.ID) }
func (e ItemNotFoundError) Unwrap() error { return ErrNotFound }

// ItemUnavailableError rejects invoice lines for items taken off sale.
type ItemUnavailableError struct {
	Name string
}

func (e ItemUnavailableError) Error() string { return "item is not available: " + e.Name }

// Store is the contract the HTTP server programs against.
//
// CreateInvoice implements the invoice assembly contract: every line's
// subtotal is computed from the item's current price (client arithmetic is
// advisory only), totals and tax are derived server-side, the date is
// server-assigned, and the whole invoice persists atomically. A non-empty
// idempotencyKey that was already used returns the originally created
// invoice instead of a duplicate.
type Store interface {
	ListItems(ctx context.Context) ([]domain.Item, error)
	GetItem(ctx context.Context, id uint64) (domain.Item, error)
	CreateItem(ctx context.Context, item domain.Item) (domain.Item, error)
	UpdateItem(ctx context.Context, id uint64, patch domain.Item) (domain.Item, error)
	DeleteItem(ctx context.Context, id uint64) error

	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
	GetInvoice(ctx context.Context, id uint64) (domain.Invoice, error)
	CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest, idempotencyKey string) (domain.Invoice, error)

	Ping(ctx context.Context) error
	Close()
}
