package quotations

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSequence struct {
	value int64
	err   error
	seen  []YearRange
}

func (f *fixedSequence) NextSequence(ctx context.Context, yr YearRange) (int64, error) {
	f.seen = append(f.seen, yr)
	return f.value, f.err
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "JAG/QTN/2025/0001", FormatNumber("JAG", 2025, 1))
	assert.Equal(t, "JAG/QTN/2025/0420", FormatNumber("JAG", 2025, 420))
	assert.Equal(t, "JAG/QTN/2025/12345", FormatNumber("JAG", 2025, 12345))
}

func TestYearRangeUsesBusinessTimezone(t *testing.T) {
	// 20:00 UTC on Dec 31 is already Jan 1 in India.
	at := time.Date(2024, time.December, 31, 20, 0, 0, 0, time.UTC)

	yr := YearRangeOf(at, ist)
	assert.Equal(t, 2025, yr.Year)
	assert.True(t, yr.Start.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, ist)))
	assert.True(t, yr.End.Equal(time.Date(2026, time.January, 1, 0, 0, 0, 0, ist)))

	assert.Equal(t, 2024, YearRangeOf(at, nil).Year)
}

func TestNumberGeneratorNext(t *testing.T) {
	store := &fixedSequence{value: 7}
	gen := NewNumberGenerator(store, "JAG", ist)
	gen.now = func() time.Time { return time.Date(2025, time.June, 1, 12, 0, 0, 0, ist) }

	number, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "JAG/QTN/2025/0007", number)
	require.Len(t, store.seen, 1)
	assert.Equal(t, 2025, store.seen[0].Year)
}

func TestNumberGeneratorRejectsBadSequence(t *testing.T) {
	gen := NewNumberGenerator(&fixedSequence{value: 0}, "JAG", ist)
	_, err := gen.Next(context.Background())
	assert.Error(t, err)

	boom := errors.New("pool closed")
	gen = NewNumberGenerator(&fixedSequence{err: boom}, "JAG", ist)
	_, err = gen.Next(context.Background())
	assert.ErrorIs(t, err, boom)
}
