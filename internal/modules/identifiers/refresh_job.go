package identifiers

import (
	"context"

	"github.com/rs/zerolog"
)

// RefreshJob rebuilds the registry snapshot ahead of expiry so lookups rarely pay for it
type RefreshJob struct {
	cache *Cache
	log   zerolog.Logger
}

// NewRefreshJob creates a new registry refresh job
func NewRefreshJob(cache *Cache, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		cache: cache,
		log:   log.With().Str("job", "registry_refresh").Logger(),
	}
}

// Run executes the refresh. The registry client's HTTP timeout bounds it.
func (j *RefreshJob) Run() error {
	if err := j.cache.Refresh(context.Background()); err != nil {
		j.log.Error().Err(err).Msg("Registry refresh failed")
		return err
	}
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *RefreshJob) Name() string {
	return "registry_refresh"
}
