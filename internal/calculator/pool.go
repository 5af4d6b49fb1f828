package calculator

import (
	"context"
	"fmt"
	"sync"
)

// Pool manages a fixed set of Adapter instances and hands out
// non-blocking leases, grounded on the registration/lookup-by-key
// discipline of core/decorator/session_pool.go's SessionPool, generalized
// here from "reuse by params hash" to "lease by round-robin preference"
// since calculator instances are shared across many cases rather than
// keyed per call-site.
type Pool struct {
	mu        sync.Mutex
	instances []*instance
}

type instance struct {
	id      string
	adapter Adapter
	busy    bool
}

// New builds a pool from already-constructed adapters. Cache adapters are
// included (the scheduler excludes them from worker-count sizing, not
// from the pool itself, so that CacheAdapters can hand them to the Case
// Runner's cache-first check, which reads them without leasing).
func New(adapters []Adapter) *Pool {
	instances := make([]*instance, len(adapters))
	for i, a := range adapters {
		instances[i] = &instance{id: a.ID(), adapter: a}
	}
	return &Pool{instances: instances}
}

// Len returns the number of registered instances.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.instances)
}

// NonCacheLen returns the number of non-cache:// instances, the quantity
// spec.md §7.1 uses in the worker-pool sizing formula.
func (p *Pool) NonCacheLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, inst := range p.instances {
		if _, ok := inst.adapter.(*CacheAdapter); !ok {
			n++
		}
	}
	return n
}

// Lease is a held instance; callers must call Release when done.
type Lease struct {
	pool  *Pool
	index int
}

// Adapter returns the leased Adapter.
func (l Lease) Adapter() Adapter {
	return l.pool.instances[l.index].adapter
}

// ID returns the leased instance's identifier.
func (l Lease) ID() string {
	return l.pool.instances[l.index].id
}

// Release returns the lease to the pool, making the instance available
// again.
func (l Lease) Release() {
	l.pool.mu.Lock()
	defer l.pool.mu.Unlock()
	l.pool.instances[l.index].busy = false
}

// Acquire attempts to lease the instance at preferredIndex mod len; if
// that one is busy, it scans forward for the next free instance. Returns
// ok=false if every instance is currently leased.
//
// preferredIndex is case_index mod len(id_list), the round-robin
// preference rule of spec.md §5.2.
func (p *Pool) Acquire(preferredIndex int) (Lease, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.instances)
	if n == 0 {
		return Lease{}, false
	}

	start := preferredIndex % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		if !p.instances[idx].busy {
			p.instances[idx].busy = true
			return Lease{pool: p, index: idx}, true
		}
	}
	return Lease{}, false
}

// AcquireExcluding behaves like Acquire but skips any instance whose ID is
// in excluded, used by the Case Runner to avoid retrying a failed
// attempt on the same instance (spec.md §6's retry-across-instances
// rule).
func (p *Pool) AcquireExcluding(preferredIndex int, excluded map[string]bool) (Lease, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.instances)
	if n == 0 {
		return Lease{}, false
	}

	start := preferredIndex % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		inst := p.instances[idx]
		if inst.busy || excluded[inst.id] {
			continue
		}
		inst.busy = true
		return Lease{pool: p, index: idx}, true
	}
	return Lease{}, false
}

// CacheAdapters returns every cache:// adapter in the pool, in pool
// order. Cache lookups are read-only and are not leased like live
// calculator instances.
func (p *Pool) CacheAdapters() []*CacheAdapter {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*CacheAdapter
	for _, inst := range p.instances {
		if ca, ok := inst.adapter.(*CacheAdapter); ok {
			out = append(out, ca)
		}
	}
	return out
}

// IDs returns every registered instance's identifier, in pool order.
func (p *Pool) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, len(p.instances))
	for i, inst := range p.instances {
		ids[i] = inst.id
	}
	return ids
}

// CloseAll closes every instance's adapter, best-effort, collecting the
// first error encountered.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, inst := range p.instances {
		if err := inst.adapter.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", inst.id, err)
		}
	}
	return firstErr
}

// BuildPool parses specs and constructs an Adapter for each, stopping at
// the first construction error (e.g. an unreachable SSH host) so a bad
// calculator list fails before any case has been scheduled.
func BuildPool(ctx context.Context, specs []Spec) (*Pool, error) {
	adapters := make([]Adapter, 0, len(specs))
	for _, s := range specs {
		a, err := NewAdapter(ctx, s)
		if err != nil {
			for _, built := range adapters {
				_ = built.Close()
			}
			return nil, fmt.Errorf("building adapter for %s: %w", s.Raw, err)
		}
		adapters = append(adapters, a)
	}
	return New(adapters), nil
}
