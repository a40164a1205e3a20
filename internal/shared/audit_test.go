package shared

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	sql  string
	args []any
}

func (r *recordingExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	r.sql = sql
	r.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestAuditLoggerRecord(t *testing.T) {
	db := &recordingExecer{}
	logger := NewAuditLogger(db)
	at := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	err := logger.Record(context.Background(), AuditLog{
		ActorID:  7,
		Action:   "quotation.finalize",
		Entity:   "quotation",
		EntityID: "42",
		Meta:     map[string]any{"quotation_no": "JAG/QTN/2025/0001"},
		At:       at,
	})
	require.NoError(t, err)
	assert.Contains(t, db.sql, "INSERT INTO audit_logs")
	require.Len(t, db.args, 6)
	assert.Equal(t, int64(7), db.args[0])

	var meta map[string]any
	require.NoError(t, json.Unmarshal(db.args[4].([]byte), &meta))
	assert.Equal(t, "JAG/QTN/2025/0001", meta["quotation_no"])
	assert.Equal(t, &at, db.args[5])
}

func TestAuditLoggerRequiresIdentity(t *testing.T) {
	logger := NewAuditLogger(&recordingExecer{})
	err := logger.Record(context.Background(), AuditLog{Action: "quotation.create"})
	assert.Error(t, err)

	var nilLogger *AuditLogger
	assert.Error(t, nilLogger.Record(context.Background(), AuditLog{}))
}

func TestValidationErrorUnwraps(t *testing.T) {
	err := NewValidationError("items", "at least one item is required").Add("customer_id", "required")
	assert.ErrorIs(t, err, ErrValidation)
	assert.True(t, err.HasErrors())
	assert.Equal(t, "validation failed: customer_id: required; items: at least one item is required", err.Error())
}

func TestPageFromQueryClamps(t *testing.T) {
	q := map[string][]string{"page": {"0"}, "per_page": {"5000"}}
	page := PageFromQuery(q)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, MaxPerPage, page.Limit())
	assert.Equal(t, 0, page.Offset())

	p := NewPagination(3, 10, 25)
	assert.Equal(t, 3, p.TotalPages)
}
