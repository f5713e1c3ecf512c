package filter

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
)

func TestAvailable(t *testing.T) {
	items := []domain.Item{
		{ID: 1, Name: "Margherita Pizza", Availability: true},
		{ID: 2, Name: "Hawaiian Pizza", Availability: false},
	}
	got := Available(items)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].ID)
}

func TestItemsSearchIsCaseInsensitive(t *testing.T) {
	items := []domain.Item{
		{Name: "Margherita Pizza", Category: domain.CategoryPizza},
		{Name: "Coke", Category: domain.CategoryBeverage},
	}

	got := Items(items, "piz", CategoryAll)
	require.Len(t, got, 1)
	assert.Equal(t, "Margherita Pizza", got[0].Name)

	got = Items(items, "PIZ", CategoryAll)
	require.Len(t, got, 1)
	assert.Equal(t, "Margherita Pizza", got[0].Name)
}

func TestItemsCategoryFilter(t *testing.T) {
	items := []domain.Item{
		{Name: "Margherita Pizza", Category: domain.CategoryPizza},
		{Name: "Extra Cheese", Category: domain.CategoryTopping},
		{Name: "Coke", Category: domain.CategoryBeverage},
	}

	assert.Len(t, Items(items, "", CategoryAll), 3)
	assert.Len(t, Items(items, "", ""), 3)

	got := Items(items, "", domain.CategoryTopping)
	require.Len(t, got, 1)
	assert.Equal(t, "Extra Cheese", got[0].Name)

	// both predicates must hold
	assert.Empty(t, Items(items, "coke", domain.CategoryPizza))
}

func TestParseBucket(t *testing.T) {
	for in, want := range map[string]Bucket{
		"":      BucketAll,
		"all":   BucketAll,
		"Today": BucketToday,
		" week": BucketWeek,
		"MONTH": BucketMonth,
	} {
		got, err := ParseBucket(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseBucket("quarter")
	assert.Error(t, err)
}

func TestBucketTodayUsesCalendarDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.Local)
	yesterdayLate := time.Date(2026, 3, 9, 23, 59, 0, 0, time.Local)
	todayEarly := time.Date(2026, 3, 10, 0, 1, 0, 0, time.Local)

	assert.False(t, InBucket(yesterdayLate, BucketToday, now))
	assert.True(t, InBucket(todayEarly, BucketToday, now))
}

func TestBucketWeekComparesRawTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.Local)

	assert.True(t, InBucket(now, BucketWeek, now))
	assert.True(t, InBucket(now.AddDate(0, 0, -7), BucketWeek, now))
	assert.False(t, InBucket(now.AddDate(0, 0, -7).Add(-time.Minute), BucketWeek, now))
	assert.False(t, InBucket(now.Add(time.Hour), BucketWeek, now))
	// same-day invoices after midnight are inside the window
	assert.True(t, InBucket(time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local), BucketWeek, now))
}

func TestBucketMonthUsesCalendarMonth(t *testing.T) {
	now := time.Date(2026, 3, 31, 10, 0, 0, 0, time.Local)

	assert.True(t, InBucket(now.AddDate(0, 0, -20), BucketMonth, now))
	assert.False(t, InBucket(now.AddDate(0, -2, 0), BucketMonth, now))
	assert.False(t, InBucket(now.Add(time.Hour), BucketMonth, now))
}

func TestBucketAllAcceptsEverything(t *testing.T) {
	now := time.Now()
	assert.True(t, InBucket(now.AddDate(-5, 0, 0), BucketAll, now))
	assert.True(t, InBucket(now.AddDate(1, 0, 0), BucketAll, now))
}

func TestInvoicesSearchOnID(t *testing.T) {
	now := time.Now()
	invoices := []domain.Invoice{
		{ID: 102, Date: now},
		{ID: 210, Date: now},
		{ID: 33, Date: now},
	}

	got := Invoices(invoices, "10", BucketAll, now)
	ids := []uint64{}
	for _, inv := range got {
		ids = append(ids, inv.ID)
	}
	assert.Empty(t, cmp.Diff([]uint64{102, 210}, ids))
}

func TestInvoicesDateAndSearchCompose(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.Local)
	invoices := []domain.Invoice{
		{ID: 11, Date: time.Date(2026, 3, 9, 23, 59, 0, 0, time.Local)},
		{ID: 12, Date: time.Date(2026, 3, 10, 0, 1, 0, 0, time.Local)},
		{ID: 21, Date: time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)},
	}

	got := Invoices(invoices, "", BucketToday, now)
	require.Len(t, got, 2)

	got = Invoices(invoices, "1", BucketToday, now)
	require.Len(t, got, 2) // both 12 and 21 contain "1"

	got = Invoices(invoices, "12", BucketToday, now)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(12), got[0].ID)
}

func TestRevenueAndTaxTotals(t *testing.T) {
	invoices := []domain.Invoice{
		{GrandTotal: decimal.RequireFromString("14.29"), Tax: decimal.RequireFromString("1.30")},
		{GrandTotal: decimal.RequireFromString("5.50"), Tax: decimal.RequireFromString("0.50")},
	}

	assert.Equal(t, "19.79", Revenue(invoices).StringFixed(2))
	assert.Equal(t, "1.80", TaxTotal(invoices).StringFixed(2))

	assert.Equal(t, "0.00", Revenue(nil).StringFixed(2))
	assert.Equal(t, "0.00", TaxTotal(nil).StringFixed(2))
}
