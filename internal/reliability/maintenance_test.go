package reliability

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/avgdown/internal/clientdata"
	"github.com/aristath/avgdown/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintenanceJob_Run(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	repo := clientdata.NewRepository(db.Conn())
	ctx := context.Background()
	for _, pair := range []string{"USD:KRW", "USD:JPY", "USD:EUR"} {
		require.NoError(t, repo.Store(ctx, clientdata.TableExchangeRate, pair, map[string]float64{"rate": 1}, -time.Hour))
	}
	_, err = repo.DeleteAllExpired(ctx)
	require.NoError(t, err)

	job := NewMaintenanceJob(db, zerolog.Nop())
	assert.Equal(t, "database_maintenance", job.Name())
	assert.NoError(t, job.Run())

	// Still usable afterwards.
	require.NoError(t, repo.Store(ctx, clientdata.TableExchangeRate, "USD:KRW", 1400, time.Hour))
	data, err := repo.GetIfFresh(ctx, clientdata.TableExchangeRate, "USD:KRW")
	require.NoError(t, err)
	assert.JSONEq(t, "1400", string(data))
}
