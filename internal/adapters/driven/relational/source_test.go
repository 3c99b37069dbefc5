package relational

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

func openTestDB(t *testing.T) *Source {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.db")

	src, err := Open(context.Background(), DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	_, err = src.db.Exec(`CREATE TABLE api_users (id INTEGER, name TEXT, email TEXT, score REAL, avatar BLOB)`)
	require.NoError(t, err)
	_, err = src.db.Exec(`INSERT INTO api_users VALUES (1, 'Ada', 'ada@example.com', 9.5, x'6869'), (2, 'Bob', NULL, NULL, NULL)`)
	require.NoError(t, err)
	return src
}

func TestSource_Rows(t *testing.T) {
	src := openTestDB(t)

	rows, err := src.Rows(context.Background(), "api_users")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "Ada", rows[0]["name"])
	assert.Equal(t, 9.5, rows[0]["score"])
	assert.Equal(t, "hi", rows[0]["avatar"], "blobs become strings")

	assert.Nil(t, rows[1]["email"])
	assert.Nil(t, rows[1]["score"])
}

func TestSource_Rows_UnknownTable(t *testing.T) {
	src := openTestDB(t)

	_, err := src.Rows(context.Background(), "api_missing")
	assert.Error(t, err)
}

func TestSource_Rows_RejectsInjection(t *testing.T) {
	src := openTestDB(t)

	_, err := src.Rows(context.Background(), "api_users; DROP TABLE api_users")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	rows, err := src.Rows(context.Background(), "api_users")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestQuoteTable(t *testing.T) {
	tests := []struct {
		table   string
		want    string
		wantErr bool
	}{
		{table: "api_users", want: `"api_users"`},
		{table: "public.api_users", want: `"public"."api_users"`},
		{table: "", wantErr: true},
		{table: `a"b`, wantErr: true},
		{table: "a.b.c", wantErr: true},
		{table: "1table", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			got, err := QuoteTable(tt.table)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalise(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))

	assert.Equal(t, "2024-03-01T11:30:00Z", normalise(ts))
	assert.Equal(t, "raw", normalise([]byte("raw")))
	assert.Equal(t, int64(7), normalise(int32(7)))
	assert.Equal(t, true, normalise(true))
	assert.Nil(t, normalise(nil))
	assert.Equal(t, "[1 2]", normalise([]int{1, 2}))
}

func TestOpen_Validation(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = Open(context.Background(), DriverSQLite, "")
	assert.True(t, errors.Is(err, domain.ErrNotConfigured))
}

func TestNewSource(t *testing.T) {
	db, err := sql.Open(DriverSQLite, ":memory:")
	require.NoError(t, err)

	src := NewSource(db)
	assert.NoError(t, src.Close())
}
