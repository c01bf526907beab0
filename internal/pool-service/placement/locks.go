package placement

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// contestLocks serializa, dentro do processo, as escritas de um mesmo confronto.
// Entre instâncias a serialização vem do lock de linha do store.
type contestLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func newContestLocks() *contestLocks {
	return &contestLocks{entries: make(map[string]*lockEntry)}
}

// acquire espera o lock do confronto ou o fim de ctx; o retorno libera o lock
func (l *contestLocks) acquire(ctx context.Context, contestID string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[contestID]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		l.entries[contestID] = e
	}
	e.refs++
	l.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		l.release(contestID, e)
		return nil, err
	}
	return func() {
		e.sem.Release(1)
		l.release(contestID, e)
	}, nil
}

func (l *contestLocks) release(contestID string, e *lockEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, contestID)
	}
}

// size é usado nos testes para garantir que entradas ociosas são descartadas
func (l *contestLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
