package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
	"github.com/nazeru/pizza-billing-go/internal/billing/filter"
	"github.com/nazeru/pizza-billing-go/internal/pos"
	"github.com/nazeru/pizza-billing-go/pkg/apiclient"
)

var apiBase string

func main() {
	root := &cobra.Command{
		Use:           "pos",
		Short:         "Operator terminal for the pizza billing API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", envOr("POS_API_URL", "http://localhost:8080"), "billing API base URL")

	root.AddCommand(menuCmd(), invoicesCmd(), invoiceCmd(), checkoutCmd(), healthCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func client() *apiclient.Client {
	return apiclient.New(apiBase)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), apiclient.DefaultTimeout)
}

func menuCmd() *cobra.Command {
	var search, category string
	var all bool
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List sellable items",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cmdContext()
			defer cancel()
			items, err := client().ListItems(ctx)
			if err != nil {
				return err
			}
			if !all {
				items = filter.Available(items)
			}
			items = filter.Items(items, search, category)
			fmt.Print(pos.RenderMenu(items))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "substring match on item name")
	cmd.Flags().StringVar(&category, "category", filter.CategoryAll, "category filter (All, Pizza, Topping, Beverage)")
	cmd.Flags().BoolVar(&all, "all", false, "include unavailable items")
	return cmd
}

func invoicesCmd() *cobra.Command {
	var search, bucket string
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "List invoices with totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := filter.ParseBucket(bucket)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext()
			defer cancel()
			invoices, err := client().ListInvoices(ctx)
			if err != nil {
				return err
			}
			filtered := filter.Invoices(invoices, search, b, pos.Now())
			fmt.Print(pos.RenderInvoiceList(filtered,
				domain.FormatMoney(filter.Revenue(filtered)),
				domain.FormatMoney(filter.TaxTotal(filtered))))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "substring match on invoice id")
	cmd.Flags().StringVar(&bucket, "date", "all", "date filter: all, today, week, month")
	return cmd
}

func invoiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invoice <id>",
		Short: "Show one invoice as a printable receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid invoice id %q", args[0])
			}
			ctx, cancel := cmdContext()
			defer cancel()
			inv, err := client().GetInvoice(ctx, id)
			if apiclient.IsNotFound(err) {
				return fmt.Errorf("invoice %d not found", id)
			}
			if err != nil {
				return err
			}
			fmt.Print(pos.RenderReceipt(inv))
			return nil
		},
	}
}

func checkoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Interactive checkout: build a cart and submit it",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tea.NewProgram(pos.NewModel(client()))
			_, err := p.Run()
			return err
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the billing API liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := client().Health(ctx); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
