package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
	"github.com/nazeru/pizza-billing-go/pkg/contracts"
)

// EventFunc receives domain events from the memory store since it has no
// outbox table to park them in. May be nil.
type EventFunc func(eventType string, payload map[string]any)

// Memory is a mutex-guarded in-process Store with the same semantics as the
// Postgres implementation.
type Memory struct {
	mu            sync.Mutex
	items         map[uint64]domain.Item
	invoices      map[uint64]domain.Invoice
	idempotency   map[string]uint64
	nextItemID    uint64
	nextInvoiceID uint64
	now           func() time.Time
	emit          EventFunc
}

func NewMemory() *Memory {
	return &Memory{
		items:         map[uint64]domain.Item{},
		invoices:      map[uint64]domain.Invoice{},
		idempotency:   map[string]uint64{},
		nextItemID:    1,
		nextInvoiceID: 1,
		now:           time.Now,
	}
}

// WithClock fixes the store's clock, for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// WithEvents installs the event callback.
func (m *Memory) WithEvents(emit EventFunc) *Memory {
	m.emit = emit
	return m
}

func (m *Memory) ListItems(ctx context.Context) ([]domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetItem(ctx context.Context, id uint64) (domain.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return domain.Item{}, ItemNotFoundError{ID: id}
	}
	return it, nil
}

func (m *Memory) CreateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	m.mu.Lock()
	item.ID = m.nextItemID
	m.nextItemID++
	item.CreatedAt = m.now()
	item.UpdatedAt = item.CreatedAt
	m.items[item.ID] = item
	m.mu.Unlock()

	m.fire(contracts.EventItemCreated, map[string]any{"item_id": item.ID, "name": item.Name})
	return item, nil
}

// UpdateItem applies a partial update: empty name/category and non-positive
// price leave the stored value alone, availability is always taken.
func (m *Memory) UpdateItem(ctx context.Context, id uint64, patch domain.Item) (domain.Item, error) {
	m.mu.Lock()
	it, ok := m.items[id]
	if !ok {
		m.mu.Unlock()
		return domain.Item{}, ItemNotFoundError{ID: id}
	}
	if patch.Name != "" {
		it.Name = patch.Name
	}
	if patch.Category != "" {
		it.Category = patch.Category
	}
	if patch.Price.IsPositive() {
		it.Price = patch.Price
	}
	it.Availability = patch.Availability
	it.UpdatedAt = m.now()
	m.items[id] = it
	m.mu.Unlock()

	m.fire(contracts.EventItemUpdated, map[string]any{"item_id": id})
	return it, nil
}

func (m *Memory) DeleteItem(ctx context.Context, id uint64) error {
	m.mu.Lock()
	if _, ok := m.items[id]; !ok {
		m.mu.Unlock()
		return ItemNotFoundError{ID: id}
	}
	delete(m.items, id)
	m.mu.Unlock()

	m.fire(contracts.EventItemDeleted, map[string]any{"item_id": id})
	return nil
}

func (m *Memory) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, copyInvoice(inv))
	}
	// newest first
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) GetInvoice(ctx context.Context, id uint64) (domain.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return domain.Invoice{}, ErrNotFound
	}
	return copyInvoice(inv), nil
}

func (m *Memory) CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest, idempotencyKey string) (domain.Invoice, error) {
	if err := req.Validate(); err != nil {
		return domain.Invoice{}, err
	}

	m.mu.Lock()
	if idempotencyKey != "" {
		if id, ok := m.idempotency[idempotencyKey]; ok {
			inv := copyInvoice(m.invoices[id])
			m.mu.Unlock()
			return inv, nil
		}
	}

	now := m.now()
	inv := domain.Invoice{Date: now, CreatedAt: now}
	for _, line := range req.Items {
		it, ok := m.items[line.ItemID]
		if !ok {
			m.mu.Unlock()
			return domain.Invoice{}, ItemNotFoundError{ID: line.ItemID}
		}
		if !it.Availability {
			m.mu.Unlock()
			return domain.Invoice{}, ItemUnavailableError{Name: it.Name}
		}
		sub := domain.LineSubtotal(it.Price, line.Quantity)
		inv.Total = inv.Total.Add(sub)
		inv.InvoiceItems = append(inv.InvoiceItems, domain.InvoiceItem{
			ItemID:   line.ItemID,
			Quantity: line.Quantity,
			Subtotal: sub,
			Item:     it,
		})
	}
	inv.Tax = domain.Tax(inv.Total)
	inv.GrandTotal = inv.Total.Add(inv.Tax)

	inv.ID = m.nextInvoiceID
	m.nextInvoiceID++
	for i := range inv.InvoiceItems {
		inv.InvoiceItems[i].ID = uint64(i) + 1
		inv.InvoiceItems[i].InvoiceID = inv.ID
	}
	m.invoices[inv.ID] = copyInvoice(inv)
	if idempotencyKey != "" {
		m.idempotency[idempotencyKey] = inv.ID
	}
	m.mu.Unlock()

	m.fire(contracts.EventInvoiceCreated, map[string]any{
		"invoice_id":  inv.ID,
		"grand_total": inv.GrandTotal.StringFixed(2),
		"lines":       len(inv.InvoiceItems),
	})
	return inv, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() {}

func (m *Memory) fire(eventType string, payload map[string]any) {
	if m.emit != nil {
		m.emit(eventType, payload)
	}
}

func copyInvoice(inv domain.Invoice) domain.Invoice {
	out := inv
	out.InvoiceItems = make([]domain.InvoiceItem, len(inv.InvoiceItems))
	copy(out.InvoiceItems, inv.InvoiceItems)
	return out
}
