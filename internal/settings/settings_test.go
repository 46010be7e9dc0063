package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/dungdata/dungdata-backend/pkg/errors"
)

func setupSettingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	stmt := `
CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(stmt).Error)
	return conn
}

func TestUpsertInsertsThenOverwrites(t *testing.T) {
	conn := setupSettingsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, UpsertInput{Key: "site_title", Value: "Dũng Data"})
	require.NoError(t, err)
	assert.Equal(t, "Dũng Data", first.Value)

	second, err := svc.Upsert(ctx, UpsertInput{Key: "site_title", Value: "Dũng Data VN"})
	require.NoError(t, err)
	assert.Equal(t, "Dũng Data VN", second.Value)

	rows, err := svc.List(ctx)
	require.NoError(t, err)

	var matches int
	for _, row := range rows {
		if row.Key == "site_title" {
			matches++
			assert.Equal(t, "Dũng Data VN", row.Value)
		}
	}
	assert.Equal(t, 1, matches, "upsert must not duplicate the key")
}

func TestUpsertRejectsBlankKey(t *testing.T) {
	conn := setupSettingsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	_, err = svc.Upsert(context.Background(), UpsertInput{Key: "  "})
	appErr, ok := pkgerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
