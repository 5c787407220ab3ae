package scheduler

import (
	"database/sql"
	"fmt"

	"github.com/aristath/insights/internal/database"
	"github.com/rs/zerolog"
)

// walWarnFrames is the WAL size above which a passive checkpoint is reported as lagging
const walWarnFrames = 1000

// DatabaseMaintenanceJob verifies integrity of the client data database and checkpoints its WAL
type DatabaseMaintenanceJob struct {
	log zerolog.Logger
	db  *database.DB
}

// NewDatabaseMaintenanceJob creates a new DatabaseMaintenanceJob
func NewDatabaseMaintenanceJob(db *database.DB, log zerolog.Logger) *DatabaseMaintenanceJob {
	return &DatabaseMaintenanceJob{
		log: log.With().Str("job", "database_maintenance").Logger(),
		db:  db,
	}
}

// Name returns the job name
func (j *DatabaseMaintenanceJob) Name() string {
	return "database_maintenance"
}

// Run executes the maintenance job
func (j *DatabaseMaintenanceJob) Run() error {
	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping")
		return nil
	}

	name := j.db.Name()

	if err := checkDatabaseIntegrity(j.db.Conn()); err != nil {
		// Corruption cannot be repaired from here
		j.log.Error().
			Err(err).
			Str("database", name).
			Msg("Database integrity check failed")
		return fmt.Errorf("database %s is corrupted: %w", name, err)
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	err := j.db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed)
	if err != nil {
		j.log.Warn().
			Err(err).
			Str("database", name).
			Msg("Failed to checkpoint WAL")
		return nil
	}

	if frames > walWarnFrames {
		j.log.Warn().
			Str("database", name).
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, checkpoint may be needed")
	} else {
		j.log.Debug().
			Str("database", name).
			Int("wal_frames", frames).
			Msg("Database maintenance completed")
	}

	return nil
}

// checkDatabaseIntegrity runs SQLite's PRAGMA quick_check
func checkDatabaseIntegrity(db *sql.DB) error {
	var result string
	if err := db.QueryRow("PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check returned: %s", result)
	}

	return nil
}
