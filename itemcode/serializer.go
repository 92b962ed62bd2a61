package itemcode

import "sync"

// Serializer guards the list, sequence and commit steps of an allocation.
// Acquire blocks until the caller may allocate under prefix and returns
// the function that releases it.
type Serializer interface {
	Acquire(prefix string) (release func())
}

// NoSerialization lets allocations for the same prefix run concurrently.
// Two concurrent requests can then choose the same number; the unique
// index on the stored code rejects the second commit.
type NoSerialization struct{}

func (NoSerialization) Acquire(string) func() { return func() {} }

// PrefixLocker serializes allocations per prefix within one process.
type PrefixLocker struct {
	mu    sync.Mutex
	locks map[string]*prefixLock
}

type prefixLock struct {
	mu   sync.Mutex
	refs int
}

func NewPrefixLocker() *PrefixLocker {
	return &PrefixLocker{locks: make(map[string]*prefixLock)}
}

func (p *PrefixLocker) Acquire(prefix string) func() {
	p.mu.Lock()
	l, ok := p.locks[prefix]
	if !ok {
		l = &prefixLock{}
		p.locks[prefix] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()

			p.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(p.locks, prefix)
			}
			p.mu.Unlock()
		})
	}
}
