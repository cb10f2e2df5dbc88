package storage

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/rewired-gh/symptomscope/internal/logger"
	"github.com/rewired-gh/symptomscope/internal/models"
)

// Holder owns the currently published Store of a session.
// Reads never block; rebuilds are serialized.
type Holder struct {
	current atomic.Pointer[Store]
	buildMu sync.Mutex
}

// NewHolder creates a holder with no store loaded.
func NewHolder() *Holder {
	return &Holder{}
}

// Current returns the published store, or nil before the first load.
func (h *Holder) Current() *Store {
	return h.current.Load()
}

// Swap publishes s and returns the previous store.
func (h *Holder) Swap(s *Store) *Store {
	return h.current.Swap(s)
}

// Rebuild builds a store from records and publishes it only if the build
// succeeds. On failure the previous store stays published.
func (h *Holder) Rebuild(records []models.Record) (*Store, error) {
	h.buildMu.Lock()
	defer h.buildMu.Unlock()

	s, err := Build(records)
	if err != nil {
		return nil, err
	}

	if prev := h.Swap(s); prev != nil {
		logger.Info("Replaced store %s with %s (%d records, %d categories)",
			prev.ID(), s.ID(), s.Len(), len(s.categories))
	} else {
		logger.Info("Loaded store %s (%d records, %d categories)",
			s.ID(), s.Len(), len(s.categories))
	}
	return s, nil
}
