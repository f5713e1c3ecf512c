// Package filter derives filtered views of item and invoice collections.
// Every function is pure over its inputs and runs in O(n); collections are
// single-business sized, so there is no indexing and callers simply re-run
// the filter when a predicate changes.
package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nazeru/pizza-billing-go/internal/billing/domain"
)

// CategoryAll disables category filtering.
const CategoryAll = "All"

// Available keeps only items that are offerable for sale. Applied once at
// fetch time, upstream of search and category filtering.
func Available(items []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.Availability {
			out = append(out, it)
		}
	}
	return out
}

// Items keeps items whose name contains search (case-insensitive) and whose
// category matches, with CategoryAll matching everything.
func Items(items []domain.Item, search, category string) []domain.Item {
	needle := strings.ToLower(search)
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if !strings.Contains(strings.ToLower(it.Name), needle) {
			continue
		}
		if category != CategoryAll && category != "" && it.Category != category {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Bucket selects the date window for invoice filtering.
type Bucket string

const (
	BucketAll   Bucket = "all"
	BucketToday Bucket = "today"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ParseBucket maps user input to a Bucket, rejecting unknown values.
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(strings.ToLower(strings.TrimSpace(s))) {
	case BucketAll, "":
		return BucketAll, nil
	case BucketToday:
		return BucketToday, nil
	case BucketWeek:
		return BucketWeek, nil
	case BucketMonth:
		return BucketMonth, nil
	}
	return "", fmt.Errorf("unknown date filter %q", s)
}

// InBucket reports whether ts falls inside the bucket's window relative to
// an explicit now. "today" compares calendar days (midnight truncation, local
// time); "week" and "month" compare raw timestamps against [now-7d, now] and
// [now-1 month, now].
func InBucket(ts time.Time, b Bucket, now time.Time) bool {
	switch b {
	case BucketToday:
		return truncateDay(ts).Equal(truncateDay(now))
	case BucketWeek:
		from := now.AddDate(0, 0, -7)
		return !ts.Before(from) && !ts.After(now)
	case BucketMonth:
		from := now.AddDate(0, -1, 0)
		return !ts.Before(from) && !ts.After(now)
	default:
		return true
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// Invoices keeps invoices whose id (as text) contains search and whose date
// falls inside the bucket. now is explicit so callers and tests control the
// clock.
func Invoices(invoices []domain.Invoice, search string, b Bucket, now time.Time) []domain.Invoice {
	out := make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if search != "" && !strings.Contains(strconv.FormatUint(inv.ID, 10), search) {
			continue
		}
		if !InBucket(inv.Date, b, now) {
			continue
		}
		out = append(out, inv)
	}
	return out
}

// Revenue sums grand totals over a (typically filtered) invoice slice.
func Revenue(invoices []domain.Invoice) decimal.Decimal {
	sum := decimal.Zero
	for _, inv := range invoices {
		sum = sum.Add(inv.GrandTotal)
	}
	return sum
}

// TaxTotal sums tax over a (typically filtered) invoice slice.
func TaxTotal(invoices []domain.Invoice) decimal.Decimal {
	sum := decimal.Zero
	for _, inv := range invoices {
		sum = sum.Add(inv.Tax)
	}
	return sum
}
