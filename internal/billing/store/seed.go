package store

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
)

//go:embed menu.yaml
var defaultMenu []byte

type menuFile struct {
	Items []menuItem `yaml:"items"`
}

type menuItem struct {
	Name         string `yaml:"name"`
	Category     string `yaml:"category"`
	Price        string `yaml:"price"`
	Availability bool   `yaml:"availability"`
}

// LoadMenu parses a seed menu. With an empty path the embedded default menu
// is used.
func LoadMenu(path string) ([]domain.Item, error) {
	data := defaultMenu
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read menu file: %w", err)
		}
	}

	var mf menuFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse menu file: %w", err)
	}

	items := make([]domain.Item, 0, len(mf.Items))
	for i, mi := range mf.Items {
		if mi.Name == "" || mi.Category == "" {
			return nil, fmt.Errorf("menu item %d: name and category are required", i)
		}
		price, err := decimal.NewFromString(mi.Price)
		if err != nil {
			return nil, fmt.Errorf("menu item %q: bad price %q", mi.Name, mi.Price)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("menu item %q: price must be > 0", mi.Name)
		}
		items = append(items, domain.Item{
			Name:         mi.Name,
			Category:     mi.Category,
			Price:        price,
			Availability: mi.Availability,
		})
	}
	return items, nil
}

// Seed inserts the menu once: a store that already has items is left alone.
func Seed(ctx context.Context, s Store, menu []domain.Item) (int, error) {
	existing, err := s.ListItems(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, it := range menu {
		if _, err := s.CreateItem(ctx, it); err != nil {
			return 0, err
		}
	}
	return len(menu), nil
}
