// Package memconfig provides an in-memory source configuration store.
package memconfig

import (
	"sync"

	"github.com/nmoretto/oraclewatch/business/pricing/app"
	"github.com/nmoretto/oraclewatch/business/pricing/domain"
)

var _ app.ConfigStore = (*Store)(nil)

type key struct {
	source domain.SourceID
	asset  domain.Asset
}

// Store holds source configs keyed by source and asset. Reads vastly
// outnumber writes, so a plain RWMutex over a map is enough.
type Store struct {
	mu      sync.RWMutex
	configs map[key]domain.SourceConfig
}

// NewStore creates a store pre-populated with the given configs.
func NewStore(configs []domain.SourceConfig) *Store {
	s := &Store{configs: make(map[key]domain.SourceConfig, len(configs))}
	for _, cfg := range configs {
		s.configs[key{cfg.Source, cfg.Asset}] = cfg
	}
	return s
}

// Get returns the config for a source/asset pair.
func (s *Store) Get(source domain.SourceID, asset domain.Asset) (domain.SourceConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[key{source, asset}]
	return cfg, ok
}

// Upsert inserts or replaces a source config. Callers are responsible for
// authorizing configuration changes.
func (s *Store) Upsert(cfg domain.SourceConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[key{cfg.Source, cfg.Asset}] = cfg
}

// Deactivate marks a source inactive without removing it, so subsequent
// readings fail validation instead of failing config lookup.
func (s *Store) Deactivate(source domain.SourceID, asset domain.Asset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[key{source, asset}]
	if !ok {
		return false
	}
	cfg.Active = false
	s.configs[key{source, asset}] = cfg
	return true
}

// List returns a copy of all configs.
func (s *Store) List() []domain.SourceConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SourceConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		out = append(out, cfg)
	}
	return out
}
