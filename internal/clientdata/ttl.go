package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLRegistrySnapshot is how long a persisted registry snapshot is retained as a
	// stale fallback. Freshness is judged from the snapshot's own timestamp, not this.
	TTLRegistrySnapshot = 30 * 24 * time.Hour

	// TTLStagedFiling is the default lifetime of a staged correlation result
	TTLStagedFiling = 24 * time.Hour
)
