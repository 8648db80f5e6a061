package clientdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobName(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	job := NewCleanupJob(NewRepository(db), zerolog.Nop())
	assert.Equal(t, "client_data_cleanup", job.Name())
}

func TestCleanupJobRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	job := NewCleanupJob(NewRepository(db), zerolog.Nop())

	now := time.Now()
	_, err := db.Exec("INSERT INTO exchangerate (pair, data, expires_at) VALUES (?, ?, ?), (?, ?, ?)",
		"USD:KRW", "1300", now.Add(-time.Hour).Unix(),
		"USD:JPY", "150", now.Add(time.Hour).Unix(),
	)
	require.NoError(t, err)

	require.NoError(t, job.Run())

	var pairs []string
	rows, err := db.Query("SELECT pair FROM exchangerate")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var pair string
		require.NoError(t, rows.Scan(&pair))
		pairs = append(pairs, pair)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{"USD:JPY"}, pairs)
}

func TestCleanupJobRun_Empty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	job := NewCleanupJob(NewRepository(db), zerolog.Nop())
	assert.NoError(t, job.Run())
}
