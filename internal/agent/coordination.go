package agent

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Locker serializes nonce allocation and signing per signer account. Implementations must
// honour ctx while waiting and return an unlock func that is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// Reservation is the ledger state of one account: the next nonce to hand out, when it was last
// advanced and when stale reservations were last discarded.
type Reservation struct {
	Next       uint64    `json:"next"`
	ReservedAt time.Time `json:"reservedAt"`
	ResetAt    time.Time `json:"resetAt"`
}

type NonceLedger interface {
	Get(ctx context.Context, key string) (Reservation, bool, error)
	Set(ctx context.Context, key string, r Reservation) error
}

// ResultStore keeps signed results per subscription so retries can be answered without signing again.
type ResultStore interface {
	Get(ctx context.Context, key string) (*SignedTransactionResult, bool, error)
	Put(ctx context.Context, key string, r *SignedTransactionResult) error
}

// Coordination bundles the state shared by all requests. A single replica uses the in-memory
// implementations, several replicas signing with the same key share a redis backed one.
type Coordination struct {
	Locker  Locker
	Ledger  NonceLedger
	Results ResultStore

	closer func() error
}

func NewCoordination(locker Locker, ledger NonceLedger, results ResultStore, closer func() error) *Coordination {
	return &Coordination{Locker: locker, Ledger: ledger, Results: results, closer: closer}
}

func NewMemoryCoordination(resultTTL time.Duration) *Coordination {
	return NewCoordination(NewMemoryLocker(), NewMemoryNonceLedger(), NewMemoryResultStore(resultTTL), nil)
}

func (c *Coordination) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{})}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}

type MemoryNonceLedger struct {
	mu      sync.RWMutex
	entries map[string]Reservation
}

func NewMemoryNonceLedger() *MemoryNonceLedger {
	return &MemoryNonceLedger{entries: make(map[string]Reservation)}
}

func (l *MemoryNonceLedger) Get(_ context.Context, key string) (Reservation, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.entries[key]
	return r, ok, nil
}

func (l *MemoryNonceLedger) Set(_ context.Context, key string, r Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[key] = r
	return nil
}

type MemoryResultStore struct {
	cache *cache.Cache
}

func NewMemoryResultStore(ttl time.Duration) *MemoryResultStore {
	return &MemoryResultStore{cache: cache.New(ttl, 2*ttl)}
}

func (s *MemoryResultStore) Get(_ context.Context, key string) (*SignedTransactionResult, bool, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, false, nil
	}

	r, ok := v.(*SignedTransactionResult)
	if !ok {
		return nil, false, nil
	}

	// hand out a copy, callers flag replays on it
	c := *r
	return &c, true, nil
}

func (s *MemoryResultStore) Put(_ context.Context, key string, r *SignedTransactionResult) error {
	c := *r
	c.Replayed = false
	s.cache.SetDefault(key, &c)
	return nil
}
