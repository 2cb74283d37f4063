package embedding

import (
	"sync"
)

// noteLocks serialises re-index runs per note. Each run takes a ticket on
// entry; a run that finds a newer ticket once it holds the lock is
// superseded and does nothing.
type noteLocks struct {
	mu sync.Mutex
	m  map[string]*noteLock
}

type noteLock struct {
	mu     sync.Mutex
	refs   int
	latest uint64
}

func newNoteLocks() *noteLocks {
	return &noteLocks{m: map[string]*noteLock{}}
}

// acquire blocks until the caller owns noteID. superseded reports whether a
// later caller took a ticket before this one got the lock.
func (l *noteLocks) acquire(noteID string) (superseded bool, release func()) {
	l.mu.Lock()
	nl, ok := l.m[noteID]
	if !ok {
		nl = &noteLock{}
		l.m[noteID] = nl
	}
	nl.refs++
	nl.latest++
	ticket := nl.latest
	l.mu.Unlock()

	nl.mu.Lock()

	l.mu.Lock()
	superseded = ticket != nl.latest
	l.mu.Unlock()

	return superseded, func() {
		nl.mu.Unlock()
		l.mu.Lock()
		nl.refs--
		if nl.refs == 0 {
			delete(l.m, noteID)
		}
		l.mu.Unlock()
	}
}

// waiting returns how many runs currently hold or wait for noteID.
func (l *noteLocks) waiting(noteID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if nl, ok := l.m[noteID]; ok {
		return nl.refs
	}
	return 0
}
