package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
	"github.com/nazeru/pizza-billing-go/pkg/contracts"
	"github.com/nazeru/pizza-billing-go/pkg/outbox"
)

var errIdempotencyRace = errors.New("idempotency race")

// Postgres is the production Store on a pgx pool. Invoice creation writes
// the invoice, its lines, the idempotency row and the outbox event in one
// transaction.
type Postgres struct {
	pool  *pgxpool.Pool
	topic string
}

func NewPostgres(ctx context.Context, databaseURL, topic string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool, topic: topic}, nil
}

// Pool exposes the underlying pool for the outbox relay.
func (p *Postgres) Pool() *pgxpool.Pool { return p.pool }

func (p *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() { p.pool.Close() }

const itemColumns = `id, name, category, price::text, availability, created_at, updated_at`

func scanItem(row pgx.Row) (domain.Item, error) {
	var it domain.Item
	var price string
	if err := row.Scan(&it.ID, &it.Name, &it.Category, &price, &it.Availability, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return domain.Item{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Item{}, err
	}
	it.Price = d
	return it, nil
}

func (p *Postgres) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (p *Postgres) GetItem(ctx context.Context, id uint64) (domain.Item, error) {
	it, err := scanItem(p.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1 AND deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Item{}, ItemNotFoundError{ID: id}
	}
	return it, err
}

func (p *Postgres) CreateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO items(name, category, price, availability) VALUES($1, $2, $3, $4) RETURNING `+itemColumns,
		item.Name, item.Category, item.Price.StringFixed(2), item.Availability,
	)
	created, err := scanItem(row)
	if err != nil {
		return domain.Item{}, err
	}
	p.recordEvent(ctx, p.pool, contracts.Event{
		EventID:   uuid.NewString(),
		ItemID:    strconv.FormatUint(created.ID, 10),
		CreatedAt: time.Now().UTC(),
		Type:      contracts.EventItemCreated,
		Payload:   map[string]any{"item_id": created.ID, "name": created.Name},
	})
	return created, nil
}

func (p *Postgres) UpdateItem(ctx context.Context, id uint64, patch domain.Item) (domain.Item, error) {
	it, err := p.GetItem(ctx, id)
	if err != nil {
		return domain.Item{}, err
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

	row := p.pool.QueryRow(ctx,
		`UPDATE items SET name=$2, category=$3, price=$4, availability=$5, updated_at=now() WHERE id=$1 AND deleted_at IS NULL RETURNING `+itemColumns,
		id, it.Name, it.Category, it.Price.StringFixed(2), it.Availability,
	)
	updated, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Item{}, ItemNotFoundError{ID: id}
	}
	if err != nil {
		return domain.Item{}, err
	}
	p.recordEvent(ctx, p.pool, contracts.Event{
		EventID:   uuid.NewString(),
		ItemID:    strconv.FormatUint(id, 10),
		CreatedAt: time.Now().UTC(),
		Type:      contracts.EventItemUpdated,
		Payload:   map[string]any{"item_id": id},
	})
	return updated, nil
}

func (p *Postgres) DeleteItem(ctx context.Context, id uint64) error {
	tag, err := p.pool.Exec(ctx, `UPDATE items SET deleted_at=now() WHERE id=$1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ItemNotFoundError{ID: id}
	}
	p.recordEvent(ctx, p.pool, contracts.Event{
		EventID:   uuid.NewString(),
		ItemID:    strconv.FormatUint(id, 10),
		CreatedAt: time.Now().UTC(),
		Type:      contracts.EventItemDeleted,
		Payload:   map[string]any{"item_id": id},
	})
	return nil
}

func (p *Postgres) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, date, total::text, tax::text, grand_total::text, created_at FROM invoices ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Invoice
	index := map[uint64]int{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		index[inv.ID] = len(out)
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	lineRows, err := p.pool.Query(ctx, `
		SELECT li.id, li.invoice_id, li.item_id, li.quantity, li.subtotal::text,
		       i.id, i.name, i.category, i.price::text, i.availability, i.created_at, i.updated_at
		FROM invoice_items li
		JOIN items i ON i.id = li.item_id
		ORDER BY li.id`)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	for lineRows.Next() {
		line, err := scanInvoiceItem(lineRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[line.InvoiceID]; ok {
			out[i].InvoiceItems = append(out[i].InvoiceItems, line)
		}
	}
	return out, lineRows.Err()
}

func (p *Postgres) GetInvoice(ctx context.Context, id uint64) (domain.Invoice, error) {
	inv, err := scanInvoice(p.pool.QueryRow(ctx,
		`SELECT id, date, total::text, tax::text, grand_total::text, created_at FROM invoices WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Invoice{}, ErrNotFound
	}
	if err != nil {
		return domain.Invoice{}, err
	}

	rows, err := p.pool.Query(ctx, `
		SELECT li.id, li.invoice_id, li.item_id, li.quantity, li.subtotal::text,
		       i.id, i.name, i.category, i.price::text, i.availability, i.created_at, i.updated_at
		FROM invoice_items li
		JOIN items i ON i.id = li.item_id
		WHERE li.invoice_id=$1
		ORDER BY li.id`, id)
	if err != nil {
		return domain.Invoice{}, err
	}
	defer rows.Close()

	for rows.Next() {
		line, err := scanInvoiceItem(rows)
		if err != nil {
			return domain.Invoice{}, err
		}
		inv.InvoiceItems = append(inv.InvoiceItems, line)
	}
	return inv, rows.Err()
}

func (p *Postgres) CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest, idempotencyKey string) (domain.Invoice, error) {
	if err := req.Validate(); err != nil {
		return domain.Invoice{}, err
	}

	if idempotencyKey != "" {
		if id, err := p.invoiceByIdempotency(ctx, idempotencyKey); err == nil && id != 0 {
			return p.GetInvoice(ctx, id)
		}
	}

	id, err := p.insertInvoice(ctx, req, idempotencyKey)
	if errors.Is(err, errIdempotencyRace) && idempotencyKey != "" {
		if existing, qerr := p.invoiceByIdempotency(ctx, idempotencyKey); qerr == nil && existing != 0 {
			return p.GetInvoice(ctx, existing)
		}
	}
	if err != nil {
		return domain.Invoice{}, err
	}
	return p.GetInvoice(ctx, id)
}

func (p *Postgres) insertInvoice(ctx context.Context, req domain.CreateInvoiceRequest, idempotencyKey string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Server price is authoritative: each line's subtotal comes from the
	// item row as of this transaction, never from the client.
	total := decimal.Zero
	type line struct {
		itemID   uint64
		quantity int
		subtotal decimal.Decimal
	}
	lines := make([]line, 0, len(req.Items))
	for _, reqLine := range req.Items {
		var name, price string
		var available bool
		err := tx.QueryRow(ctx,
			`SELECT name, price::text, availability FROM items WHERE id=$1 AND deleted_at IS NULL`,
			reqLine.ItemID,
		).Scan(&name, &price, &available)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ItemNotFoundError{ID: reqLine.ItemID}
		}
		if err != nil {
			return 0, err
		}
		if !available {
			return 0, ItemUnavailableError{Name: name}
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return 0, err
		}
		sub := domain.LineSubtotal(d, reqLine.Quantity)
		total = total.Add(sub)
		lines = append(lines, line{itemID: reqLine.ItemID, quantity: reqLine.Quantity, subtotal: sub})
	}

	tax := domain.Tax(total)
	grand := total.Add(tax)

	var invoiceID uint64
	err = tx.QueryRow(ctx,
		`INSERT INTO invoices(date, total, tax, grand_total) VALUES(now(), $1, $2, $3) RETURNING id`,
		total.StringFixed(2), tax.StringFixed(2), grand.StringFixed(2),
	).Scan(&invoiceID)
	if err != nil {
		return 0, err
	}

	for _, l := range lines {
		_, err = tx.Exec(ctx,
			`INSERT INTO invoice_items(invoice_id, item_id, quantity, subtotal) VALUES($1, $2, $3, $4)`,
			invoiceID, l.itemID, l.quantity, l.subtotal.StringFixed(2),
		)
		if err != nil {
			return 0, err
		}
	}

	if idempotencyKey != "" {
		_, err = tx.Exec(ctx,
			`INSERT INTO invoice_idempotency(idempotency_key, invoice_id) VALUES($1, $2)`,
			idempotencyKey, invoiceID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, errIdempotencyRace
			}
			return 0, err
		}
	}

	ev := contracts.Event{
		EventID:   uuid.NewString(),
		InvoiceID: strconv.FormatUint(invoiceID, 10),
		CreatedAt: time.Now().UTC(),
		Type:      contracts.EventInvoiceCreated,
		Payload: map[string]any{
			"invoice_id":  invoiceID,
			"grand_total": grand.StringFixed(2),
			"lines":       len(lines),
		},
	}
	if err := outbox.Insert(ctx, tx, ev.EventID, p.topic, ev.InvoiceID, ev); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return invoiceID, nil
}

func (p *Postgres) invoiceByIdempotency(ctx context.Context, key string) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var id uint64
	err := p.pool.QueryRow(ctx, `SELECT invoice_id FROM invoice_idempotency WHERE idempotency_key=$1`, key).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// recordEvent parks item events in the outbox outside any caller transaction.
// Best effort: a failed insert costs an event, not the write itself.
func (p *Postgres) recordEvent(ctx context.Context, db outbox.Execer, ev contracts.Event) {
	key := ev.InvoiceID
	if key == "" {
		key = ev.ItemID
	}
	_ = outbox.Insert(ctx, db, ev.EventID, p.topic, key, ev)
}

func scanInvoice(row pgx.Row) (domain.Invoice, error) {
	var inv domain.Invoice
	var total, tax, grand string
	if err := row.Scan(&inv.ID, &inv.Date, &total, &tax, &grand, &inv.CreatedAt); err != nil {
		return domain.Invoice{}, err
	}
	var err error
	if inv.Total, err = decimal.NewFromString(total); err != nil {
		return domain.Invoice{}, err
	}
	if inv.Tax, err = decimal.NewFromString(tax); err != nil {
		return domain.Invoice{}, err
	}
	if inv.GrandTotal, err = decimal.NewFromString(grand); err != nil {
		return domain.Invoice{}, err
	}
	return inv, nil
}

func scanInvoiceItem(row pgx.Row) (domain.InvoiceItem, error) {
	var li domain.InvoiceItem
	var sub, price string
	err := row.Scan(&li.ID, &li.InvoiceID, &li.ItemID, &li.Quantity, &sub,
		&li.Item.ID, &li.Item.Name, &li.Item.Category, &price, &li.Item.Availability,
		&li.Item.CreatedAt, &li.Item.UpdatedAt)
	if err != nil {
		return domain.InvoiceItem{}, err
	}
	if li.Subtotal, err = decimal.NewFromString(sub); err != nil {
		return domain.InvoiceItem{}, err
	}
	if li.Item.Price, err = decimal.NewFromString(price); err != nil {
		return domain.InvoiceItem{}, err
	}
	return li, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate") ||
		strings.Contains(strings.ToLower(err.Error()), "unique")
}
