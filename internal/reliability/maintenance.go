// Package reliability keeps the local databases compact and checkpointed.
package reliability

import (
	"fmt"
	"time"

	"github.com/aristath/avgdown/internal/database"
	"github.com/rs/zerolog"
)

// MaintenanceJob checkpoints the WAL and vacuums a database.
// Scheduled weekly; the cache database only ever holds a handful of rows, so a
// full VACUUM is quick.
type MaintenanceJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewMaintenanceJob creates a maintenance job for db.
func NewMaintenanceJob(db *database.DB, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:  db,
		log: log.With().Str("job", "database_maintenance").Str("database", db.Name()).Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "database_maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	start := time.Now()

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, walFrames, checkpointed int
	if err := j.db.Conn().QueryRow("PRAGMA wal_checkpoint(TRUNCATE)").Scan(&busy, &walFrames, &checkpointed); err != nil {
		return fmt.Errorf("wal checkpoint failed for %s: %w", j.db.Name(), err)
	}
	if busy != 0 {
		j.log.Warn().Int("wal_frames", walFrames).Msg("WAL checkpoint could not complete, database busy")
	}

	before, err := j.db.GetStats()
	if err != nil {
		return err
	}

	if _, err := j.db.Conn().Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed for %s: %w", j.db.Name(), err)
	}

	after, err := j.db.GetStats()
	if err != nil {
		return err
	}

	j.log.Info().
		Int("checkpointed_frames", checkpointed).
		Int64("pages_before", before.PageCount).
		Int64("pages_after", after.PageCount).
		Dur("duration_ms", time.Since(start)).
		Msg("Database maintenance completed")

	return nil
}
