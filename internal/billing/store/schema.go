package store

// Schema is applied at startup. Money columns are NUMERIC(10,2); items are
// soft-deleted so historical invoice lines keep their snapshots resolvable.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	price NUMERIC(10,2) NOT NULL,
	availability BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS invoices (
	id BIGSERIAL PRIMARY KEY,
	date TIMESTAMPTZ NOT NULL,
	total NUMERIC(10,2) NOT NULL,
	tax NUMERIC(10,2) NOT NULL,
	grand_total NUMERIC(10,2) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS invoice_items (
	id BIGSERIAL PRIMARY KEY,
	invoice_id BIGINT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	item_id BIGINT NOT NULL REFERENCES items(id),
	quantity INT NOT NULL CHECK (quantity >= 1),
	subtotal NUMERIC(10,2) NOT NULL
);
CREATE INDEX IF NOT EXISTS invoice_items_invoice_id_idx ON invoice_items(invoice_id);

CREATE TABLE IF NOT EXISTS invoice_idempotency (
	idempotency_key TEXT PRIMARY KEY,
	invoice_id BIGINT NOT NULL REFERENCES invoices(id)
);

CREATE TABLE IF NOT EXISTS outbox (
	id BIGSERIAL PRIMARY KEY,
	event_id TEXT NOT NULL,
	topic TEXT NOT NULL,
	key TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	sent_at TIMESTAMPTZ
);
`
