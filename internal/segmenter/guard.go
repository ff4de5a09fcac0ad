package segmenter

import "sync"

// inflightGuard enforces at most one concurrent run per asset id within the
// process. It does not protect against cross-process duplication.
type inflightGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{active: make(map[string]struct{})}
}

// acquire claims the asset for a run. Returns false when a run already holds it.
func (g *inflightGuard) acquire(assetID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[assetID]; busy {
		return false
	}
	g.active[assetID] = struct{}{}
	return true
}

// release frees the asset on every exit path, including early guard returns.
func (g *inflightGuard) release(assetID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, assetID)
}
