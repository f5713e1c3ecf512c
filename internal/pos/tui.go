// Package pos is the terminal front-end for the billing API: a checkout
// screen that builds a cart against the live menu and submits it as an
// invoice. All cart math happens in the cart package; the model here only
// dispatches actions and renders state.
package pos

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nazeru/pizza-billing-go/internal/billing/cart"
	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
	"github.com/nazeru/pizza-billing-go/internal/billing/filter"
	"github.com/nazeru/pizza-billing-go/pkg/apiclient"
	"github.com/nazeru/pizza-billing-go/pkg/idempotency"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

var categories = []string{filter.CategoryAll, domain.CategoryPizza, domain.CategoryTopping, domain.CategoryBeverage}

type itemsLoadedMsg struct {
	items []domain.Item
	err   error
}

type invoiceCreatedMsg struct {
	invoice domain.Invoice
	err     error
}

// Model is the checkout screen state. The cart is an immutable value; every
// user action goes through the cart reducer.
type Model struct {
	client *apiclient.Client

	items    []domain.Item
	filtered []domain.Item
	cart     cart.Cart

	search    textinput.Model
	category  int
	cursor    int
	searching bool

	loading    bool
	submitting bool
	status     string
	statusErr  bool

	lastInvoice *domain.Invoice
}

func NewModel(client *apiclient.Client) Model {
	search := textinput.New()
	search.Placeholder = "search items"
	search.CharLimit = 40
	search.Width = 24

	return Model{
		client:  client,
		search:  search,
		loading: true,
		status:  "Loading menu...",
	}
}

func (m Model) Init() tea.Cmd {
	return m.fetchItems
}

// fetchItems pulls the catalog and keeps only sellable items, the same gate
// the selection screen always applies before search and category filters.
func (m Model) fetchItems() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), apiclient.DefaultTimeout)
	defer cancel()
	items, err := m.client.ListItems(ctx)
	if err != nil {
		return itemsLoadedMsg{err: err}
	}
	return itemsLoadedMsg{items: filter.Available(items)}
}

func (m Model) submitCart() tea.Cmd {
	req, err := m.cart.ToInvoiceRequest()
	if err != nil {
		return func() tea.Msg { return invoiceCreatedMsg{err: err} }
	}
	key := idempotency.NewKey()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), apiclient.DefaultTimeout)
		defer cancel()
		inv, err := m.client.CreateInvoice(ctx, req, key)
		return invoiceCreatedMsg{invoice: inv, err: err}
	}
}

func (m *Model) applyFilters() {
	m.filtered = filter.Items(m.items, m.search.Value(), categories[m.category])
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "Failed to fetch items: " + msg.err.Error()
			m.statusErr = true
			return m, nil
		}
		m.items = msg.items
		m.status = fmt.Sprintf("%d items available", len(m.items))
		m.statusErr = false
		m.applyFilters()
		return m, nil

	case invoiceCreatedMsg:
		m.submitting = false
		if msg.err != nil {
			m.status = "Invoice failed: " + msg.err.Error()
			m.statusErr = true
			return m, nil
		}
		inv := msg.invoice
		m.lastInvoice = &inv
		m.cart = cart.Apply(m.cart, cart.ClearAction{})
		m.status = fmt.Sprintf("Invoice #%d created, %s", inv.ID, domain.FormatMoney(inv.GrandTotal))
		m.statusErr = false
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "esc", "enter":
				m.searching = false
				m.search.Blur()
			default:
				var cmd tea.Cmd
				m.search, cmd = m.search.Update(msg)
				m.applyFilters()
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "/":
			m.searching = true
			m.search.Focus()
			return m, textinput.Blink
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
		case "left", "h":
			m.category = (m.category + len(categories) - 1) % len(categories)
			m.applyFilters()
		case "right", "l":
			m.category = (m.category + 1) % len(categories)
			m.applyFilters()
		case "enter", " ":
			if it, ok := m.selected(); ok {
				m.cart = cart.Apply(m.cart, cart.AddAction{Item: it})
				m.status = it.Name + " added to cart"
				m.statusErr = false
			}
		case "+":
			if it, ok := m.selected(); ok {
				m.cart = cart.Apply(m.cart, cart.AdjustAction{ItemID: it.ID, Delta: 1})
			}
		case "-":
			if it, ok := m.selected(); ok {
				m.cart = cart.Apply(m.cart, cart.AdjustAction{ItemID: it.ID, Delta: -1})
			}
		case "x":
			if it, ok := m.selected(); ok {
				m.cart = cart.Apply(m.cart, cart.RemoveAction{ItemID: it.ID})
				m.status = "Item removed from cart"
				m.statusErr = false
			}
		case "s":
			if m.submitting {
				return m, nil
			}
			if m.cart.Empty() {
				m.status = "Please add items to cart"
				m.statusErr = true
				return m, nil
			}
			m.submitting = true
			m.status = "Submitting invoice..."
			m.statusErr = false
			return m, m.submitCart()
		case "r":
			m.loading = true
			m.status = "Reloading menu..."
			m.statusErr = false
			return m, m.fetchItems
		}
	}
	return m, nil
}

func (m Model) selected() (domain.Item, bool) {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return domain.Item{}, false
	}
	return m.filtered[m.cursor], true
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pizza POS · New Invoice"))
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString("Loading menu...\n")
		return b.String()
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.viewItems()),
		" ",
		panelStyle.Render(m.viewCart()),
	))
	b.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(okStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(faintStyle.Render("enter add · +/- qty · x remove · / search · ←/→ category · s submit · q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewItems() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Category: %s\n", categories[m.category])
	fmt.Fprintf(&b, "Search: %s\n\n", m.search.View())

	if len(m.filtered) == 0 {
		b.WriteString(faintStyle.Render("no items match"))
		b.WriteString("\n")
		return b.String()
	}
	for i, it := range m.filtered {
		line := fmt.Sprintf("%-24s %8s", it.Name, domain.FormatMoney(it.Price))
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewCart() string {
	var b strings.Builder
	b.WriteString("Cart\n\n")
	if m.cart.Empty() {
		b.WriteString(faintStyle.Render("empty"))
		b.WriteString("\n")
	} else {
		for _, e := range m.cart.Entries() {
			fmt.Fprintf(&b, "%dx %-20s %8s\n", e.Quantity, e.Item.Name,
				domain.FormatMoney(domain.LineSubtotal(e.Item.Price, e.Quantity)))
		}
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal:    %10s\n", domain.FormatMoney(m.cart.Subtotal()))
	fmt.Fprintf(&b, "Tax (10%%):   %10s\n", domain.FormatMoney(m.cart.Tax()))
	fmt.Fprintf(&b, "Grand total: %10s\n", domain.FormatMoney(m.cart.GrandTotal()))
	return b.String()
}
