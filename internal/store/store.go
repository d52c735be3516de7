// Package store holds the active stringbar configuration and keeps it in
// sync with the configuration file.
//
// The Store publishes each Config as an immutable value behind an atomic
// pointer. A render tick loads one snapshot and uses it throughout, so a
// reload applied mid-tick is seen no earlier than the next tick and a slow
// tick never holds up a reload.
package store

import (
	"errors"
	"fmt"

	"go.uber.org/atomic"

	"github.com/lc/stringbar/internal/config"
	"github.com/lc/stringbar/internal/log"
)

// ErrNoProvider is returned by New when no config provider is given.
var ErrNoProvider = errors.New("store: nil config provider")

// Snapshotter hands out the configuration for one render tick.
type Snapshotter interface {
	Snapshot() *config.Config
}

var _ Snapshotter = (*Store)(nil)

// Store owns the current configuration.
type Store struct {
	provider config.Provider
	current  atomic.Pointer[config.Config]
	gen      atomic.Uint64 // incremented on every Replace
}

// New performs the initial load through provider. Any failure is returned;
// there is no configuration to fall back on yet.
func New(provider config.Provider) (*Store, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	cfg, err := provider.Load()
	if err != nil {
		return nil, fmt.Errorf("initial config load: %w", err)
	}
	s := &Store{provider: provider}
	s.current.Store(cfg)
	return s, nil
}

// Snapshot returns the current configuration. The returned value is shared
// and must not be modified.
func (s *Store) Snapshot() *config.Config {
	return s.current.Load()
}

// Replace swaps in cfg as the current configuration.
func (s *Store) Replace(cfg *config.Config) {
	s.current.Store(cfg)
	s.gen.Inc()
}

// Generation counts successful replacements since New.
func (s *Store) Generation() uint64 {
	return s.gen.Load()
}

// Path returns the configuration file path.
func (s *Store) Path() string {
	return s.provider.Path()
}

// Reload loads the configuration file again and, if that succeeds, replaces
// the current value. On failure the current value is left untouched and the
// error is returned after logging it.
func (s *Store) Reload() error {
	cfg, err := s.provider.Load()
	if err != nil {
		log.Warn("store: reload failed, keeping current config",
			"path", s.provider.Path(),
			"outcome", config.Outcome(err).String(),
			"err", err,
		)
		return err
	}
	s.Replace(cfg)
	log.Info("store: reloaded config",
		"path", s.provider.Path(),
		"sections", len(cfg.Sections),
		"generation", s.Generation(),
	)
	return nil
}
