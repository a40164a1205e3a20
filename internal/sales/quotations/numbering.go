package quotations

import (
	"context"
	"fmt"
	"time"
)

// YearRange is a calendar year bounded in the business timezone.
// Start is inclusive and End exclusive.
type YearRange struct {
	Year  int
	Start time.Time
	End   time.Time
}

// YearRangeOf returns the calendar year containing t in loc.
func YearRangeOf(t time.Time, loc *time.Location) YearRange {
	if loc == nil {
		loc = time.UTC
	}
	year := t.In(loc).Year()
	return YearRange{
		Year:  year,
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		End:   time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc),
	}
}

// SequenceStore hands out per-year sequence values. Each call reserves a value
// atomically; two callers never receive the same value for a year.
type SequenceStore interface {
	NextSequence(ctx context.Context, year YearRange) (int64, error)
}

// NumberGenerator formats reserved sequence values as quotation numbers,
// e.g. JAG/QTN/2025/0007.
type NumberGenerator struct {
	store  SequenceStore
	prefix string
	loc    *time.Location
	now    func() time.Time
}

func NewNumberGenerator(store SequenceStore, prefix string, loc *time.Location) *NumberGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &NumberGenerator{store: store, prefix: prefix, loc: loc, now: time.Now}
}

// Next reserves the next number for the current year.
func (g *NumberGenerator) Next(ctx context.Context) (string, error) {
	yr := YearRangeOf(g.now(), g.loc)
	seq, err := g.store.NextSequence(ctx, yr)
	if err != nil {
		return "", fmt.Errorf("reserve quotation sequence %d: %w", yr.Year, err)
	}
	if seq <= 0 {
		return "", fmt.Errorf("reserve quotation sequence %d: got %d", yr.Year, seq)
	}
	return FormatNumber(g.prefix, yr.Year, seq), nil
}

// FormatNumber renders <prefix>/QTN/<year>/<seq>, the sequence padded to four digits.
func FormatNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s/QTN/%04d/%04d", prefix, year, seq)
}
