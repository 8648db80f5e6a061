package clientdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE exchangerate (pair TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE INDEX idx_exchangerate_expires ON exchangerate(expires_at);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pooled connection would otherwise get its own empty in-memory database.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func TestStoreAndGetIfFresh(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	err := repo.Store(ctx, TableExchangeRate, "USD:KRW", map[string]float64{"rate": 1385.5}, time.Hour)
	require.NoError(t, err)

	data, err := repo.GetIfFresh(ctx, TableExchangeRate, "USD:KRW")
	require.NoError(t, err)
	require.NotNil(t, data)

	var parsed map[string]float64
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, 1385.5, parsed["rate"])

	var expiresAt int64
	err = db.QueryRow("SELECT expires_at FROM exchangerate WHERE pair = ?", "USD:KRW").Scan(&expiresAt)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), expiresAt, 5)
}

func TestStore_Upsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableExchangeRate, "USD:KRW", 1300, time.Hour))
	require.NoError(t, repo.Store(ctx, TableExchangeRate, "USD:KRW", 1400, time.Hour))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM exchangerate").Scan(&count))
	assert.Equal(t, 1, count)

	data, err := repo.Get(ctx, TableExchangeRate, "USD:KRW")
	require.NoError(t, err)
	assert.JSONEq(t, "1400", string(data))
}

func TestGetIfFresh_Expired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableExchangeRate, "USD:KRW", 1300, -time.Hour))

	fresh, err := repo.GetIfFresh(ctx, TableExchangeRate, "USD:KRW")
	require.NoError(t, err)
	assert.Nil(t, fresh)

	stale, err := repo.Get(ctx, TableExchangeRate, "USD:KRW")
	require.NoError(t, err)
	assert.JSONEq(t, "1300", string(stale))

	entry, err := repo.GetEntry(ctx, TableExchangeRate, "USD:KRW")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.False(t, entry.Fresh(time.Now()))
}

func TestGet_Missing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	data, err := repo.Get(ctx, TableExchangeRate, "EUR:KRW")
	require.NoError(t, err)
	assert.Nil(t, data)

	entry, err := repo.GetEntry(ctx, TableExchangeRate, "EUR:KRW")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.False(t, entry.Fresh(time.Now()))
}

func TestInvalidTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	assert.Error(t, repo.Store(ctx, "exchangerate; DROP TABLE exchangerate", "k", 1, time.Hour))
	_, err := repo.Get(ctx, "nope", "k")
	assert.Error(t, err)
	_, err = repo.GetIfFresh(ctx, "nope", "k")
	assert.Error(t, err)
	assert.Error(t, repo.Delete(ctx, "nope", "k"))
	_, err = repo.DeleteExpired(ctx, "nope")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableExchangeRate, "USD:KRW", 1300, time.Hour))
	require.NoError(t, repo.Delete(ctx, TableExchangeRate, "USD:KRW"))

	data, err := repo.Get(ctx, TableExchangeRate, "USD:KRW")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDeleteAllExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableExchangeRate, "USD:KRW", 1300, -time.Hour))
	require.NoError(t, repo.Store(ctx, TableExchangeRate, "USD:JPY", 150, time.Hour))

	results, err := repo.DeleteAllExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[TableExchangeRate])

	remaining, err := repo.Get(ctx, TableExchangeRate, "USD:JPY")
	require.NoError(t, err)
	assert.NotNil(t, remaining)
}
