package pos

import (
	"fmt"
	"strings"
	"time"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
)

// RenderReceipt formats an invoice as a printable text receipt, the detail
// view of the POS.
func RenderReceipt(inv domain.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice #%d\n", inv.ID)
	fmt.Fprintf(&b, "Date: %s\n", inv.Date.Local().Format("2006-01-02 15:04"))
	b.WriteString(strings.Repeat("-", 44))
	b.WriteString("\n")
	for _, li := range inv.InvoiceItems {
		fmt.Fprintf(&b, "%dx %-26s %10s\n", li.Quantity, li.Item.Name, domain.FormatMoney(li.Subtotal))
	}
	b.WriteString(strings.Repeat("-", 44))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-30s %10s\n", "Subtotal", domain.FormatMoney(inv.Total))
	fmt.Fprintf(&b, "%-30s %10s\n", "Tax (10%)", domain.FormatMoney(inv.Tax))
	fmt.Fprintf(&b, "%-30s %10s\n", "Grand total", domain.FormatMoney(inv.GrandTotal))
	return b.String()
}

// RenderInvoiceList formats invoices as rows with a revenue/tax footer.
func RenderInvoiceList(invoices []domain.Invoice, revenue, tax string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %-18s %6s %12s\n", "ID", "DATE", "ITEMS", "GRAND TOTAL")
	for _, inv := range invoices {
		fmt.Fprintf(&b, "%-8d %-18s %6d %12s\n",
			inv.ID, inv.Date.Local().Format("2006-01-02 15:04"), len(inv.InvoiceItems), domain.FormatMoney(inv.GrandTotal))
	}
	b.WriteString(strings.Repeat("-", 48))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%d invoices, revenue %s, tax %s\n", len(invoices), revenue, tax)
	return b.String()
}

// RenderMenu formats catalog rows for the menu command.
func RenderMenu(items []domain.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-26s %-10s %10s  %s\n", "ID", "NAME", "CATEGORY", "PRICE", "AVAILABLE")
	for _, it := range items {
		avail := "yes"
		if !it.Availability {
			avail = "no"
		}
		fmt.Fprintf(&b, "%-4d %-26s %-10s %10s  %s\n", it.ID, it.Name, it.Category, domain.FormatMoney(it.Price), avail)
	}
	return b.String()
}

// Now is the clock the CLI passes to date-bucket filters; a variable so
// tests can pin it.
var Now = time.Now
