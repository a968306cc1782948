package sourcemgr

import (
	"sync"

	"github.com/gofrs/uuid"

	"github.com/svlsp/svls-core/src/svls/entity"
)

// RetentionGuard counts its buffer ids as retained for as long as it is
// held, per spec.md §5's "buffer lifetime" requirement: any live analysis
// retains every buffer id it references. Retention does not affect
// IsValid: a replaced id still reports invalid while retained. Release is
// idempotent; a guard dropped twice is a no-op on the second call.
type RetentionGuard struct {
	id      uuid.UUID
	mgr     *Manager
	buffers []entity.BufferId

	mu       sync.Mutex
	released bool
}

// ID returns the guard's opaque identifier, useful for log correlation.
func (g *RetentionGuard) ID() string {
	return g.id.String()
}

// Release drops this guard's hold on its buffers. Once every guard on a
// given buffer id has been released, the Source Manager is free to treat
// that id as reclaimable (this implementation never actually frees text,
// it only stops counting the id as retained).
func (g *RetentionGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}
	g.released = true
	g.mgr.releaseRetention(g.buffers)
}

// RetainBuffers registers a new RetentionGuard over ids, incrementing each
// id's retention count. The guard's Release must be called exactly once,
// typically when the ShallowAnalysis that created it is discarded.
func (m *Manager) RetainBuffers(ids []entity.BufferId) *RetentionGuard {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.retained[id]++
	}
	guardID, err := uuid.NewV4()
	if err != nil {
		guardID = uuid.Nil
	}
	return &RetentionGuard{id: guardID, mgr: m, buffers: append([]entity.BufferId(nil), ids...)}
}

func (m *Manager) releaseRetention(ids []entity.BufferId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if m.retained[id] > 0 {
			m.retained[id]--
		}
	}
}

// RetentionCount reports how many live guards currently reference id; used
// by tests.
func (m *Manager) RetentionCount(id entity.BufferId) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retained[id]
}
