package agent

import "sync"

// convLocks serializes turns on the same conversation. Two parallel turns
// would interleave message appends and corrupt the log's total order, so the
// second caller waits. Entries are reference-counted and removed once the
// last holder releases, keeping the registry bounded by active conversations.
type convLocks struct {
	mu    sync.Mutex
	locks map[string]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

func newConvLocks() *convLocks {
	return &convLocks{locks: make(map[string]*convLock)}
}

// acquire blocks until the caller holds the lock for id. The returned release
// function must be called exactly once.
func (c *convLocks) acquire(id string) (release func()) {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &convLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}
