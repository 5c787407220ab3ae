// Package staging holds pipeline results for downstream analysis.
// Results are owned by this package once staged; the pipeline never reads them back.
package staging

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/insights/internal/clientdata"
	"github.com/aristath/insights/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned for unknown, discarded or expired staged filings
var ErrNotFound = errors.New("staged filing not found")

// StagedFiling is a CorrelationResult parked for analysis
type StagedFiling struct {
	ID        string                   `json:"id"`
	StagedAt  time.Time                `json:"staged_at"`
	ExpiresAt time.Time                `json:"expires_at"`
	Result    domain.CorrelationResult `json:"result"`
}

// Service stages results in client_data.db
type Service struct {
	repo *clientdata.Repository
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger
}

// NewService creates a new staging service. A non-positive ttl uses clientdata.TTLStagedFiling.
func NewService(repo *clientdata.Repository, ttl time.Duration, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = clientdata.TTLStagedFiling
	}
	return &Service{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
		log:  log.With().Str("service", "staging").Logger(),
	}
}

// Stage stores a copy of result and returns its staging record
func (s *Service) Stage(result *domain.CorrelationResult) (*StagedFiling, error) {
	if result == nil {
		return nil, fmt.Errorf("cannot stage nil result")
	}

	now := s.now().UTC()
	staged := &StagedFiling{
		ID:        uuid.New().String(),
		StagedAt:  now,
		ExpiresAt: now.Add(s.ttl),
		Result:    *result,
	}

	if err := s.repo.Store(clientdata.TableStagedFilings, staged.ID, staged, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to stage filing: %w", err)
	}

	s.log.Info().
		Str("id", staged.ID).
		Str("symbol", result.Symbol).
		Int("document_bytes", len(result.DocumentText)).
		Msg("Staged filing")

	return staged, nil
}

// Get returns a staged filing that has not expired
func (s *Service) Get(id string) (*StagedFiling, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	data, err := s.repo.GetIfFresh(clientdata.TableStagedFilings, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}

	var staged StagedFiling
	if err := json.Unmarshal(data, &staged); err != nil {
		return nil, fmt.Errorf("failed to decode staged filing %s: %w", id, err)
	}
	return &staged, nil
}

// Discard removes a staged filing. Discarding an unknown id returns ErrNotFound.
func (s *Service) Discard(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	removed, err := s.repo.Delete(clientdata.TableStagedFilings, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}

	s.log.Debug().Str("id", id).Msg("Discarded staged filing")
	return nil
}
