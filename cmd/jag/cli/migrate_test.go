package cli

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSchema struct {
	calls  []string
	closed bool
	err    error
}

func (f *fakeSchema) Up() error   { f.calls = append(f.calls, "up"); return f.err }
func (f *fakeSchema) Down() error { f.calls = append(f.calls, "down"); return f.err }
func (f *fakeSchema) Version() (uint, bool, error) {
	f.calls = append(f.calls, "version")
	return 3, false, f.err
}
func (f *fakeSchema) Close() error { f.closed = true; return nil }

func opener(schema *fakeSchema) Opener {
	return func(string, *slog.Logger) (Schema, error) { return schema, nil }
}

func TestMigrateDispatch(t *testing.T) {
	for _, action := range []string{"up", "down"} {
		schema := &fakeSchema{}
		require.NoError(t, Migrate([]string{action}, "dsn", &bytes.Buffer{}, nil, opener(schema)))
		assert.Equal(t, []string{action}, schema.calls)
		assert.True(t, schema.closed)
	}

	schema := &fakeSchema{}
	var out bytes.Buffer
	require.NoError(t, Migrate([]string{"version"}, "dsn", &out, nil, opener(schema)))
	assert.Equal(t, "version=3 dirty=false\n", out.String())
}

func TestMigrateUsageAndErrors(t *testing.T) {
	schema := &fakeSchema{}
	assert.ErrorIs(t, Migrate(nil, "dsn", &bytes.Buffer{}, nil, opener(schema)), ErrUsage)
	assert.ErrorIs(t, Migrate([]string{"sideways"}, "dsn", &bytes.Buffer{}, nil, opener(schema)), ErrUsage)
	assert.Empty(t, schema.calls)

	schema.err = errors.New("dirty database")
	err := Migrate([]string{"up"}, "dsn", &bytes.Buffer{}, nil, opener(schema))
	assert.EqualError(t, err, "dirty database")
	assert.True(t, schema.closed)
}
