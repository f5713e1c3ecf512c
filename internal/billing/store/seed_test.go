package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMenuDefault(t *testing.T) {
	items, err := LoadMenu("")
	require.NoError(t, err)
	require.NotEmpty(t, items)

	categories := map[string]bool{}
	for _, it := range items {
		categories[it.Category] = true
		assert.True(t, it.Price.IsPositive(), "item %q", it.Name)
	}
	assert.True(t, categories["Pizza"])
	assert.True(t, categories["Topping"])
	assert.True(t, categories["Beverage"])
}

func TestLoadMenuFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"items:\n  - {name: Calzone, category: Pizza, price: \"7.50\", availability: true}\n"), 0o644))

	items, err := LoadMenu(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Calzone", items[0].Name)
	assert.Equal(t, "7.50", items[0].Price.StringFixed(2))
}

func TestLoadMenuRejectsBadEntries(t *testing.T) {
	dir := t.TempDir()

	for name, content := range map[string]string{
		"noname.yaml":   "items:\n  - {category: Pizza, price: \"7.50\"}\n",
		"badprice.yaml": "items:\n  - {name: Calzone, category: Pizza, price: \"free\"}\n",
		"negative.yaml": "items:\n  - {name: Calzone, category: Pizza, price: \"-1\"}\n",
		"garbage.yaml":  "{{{",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := LoadMenu(path)
		assert.Error(t, err, name)
	}

	_, err := LoadMenu(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	menu, err := LoadMenu("")
	require.NoError(t, err)

	n, err := Seed(ctx, m, menu)
	require.NoError(t, err)
	assert.Equal(t, len(menu), n)

	n, err = Seed(ctx, m, menu)
	require.NoError(t, err)
	assert.Zero(t, n, "second seed must not duplicate the menu")

	items, err := m.ListItems(ctx)
	require.NoError(t, err)
	assert.Len(t, items, len(menu))
}
