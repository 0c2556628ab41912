package models

import (
	"sync"

	"github.com/google/uuid"
)

// projectLocks serializes budget commits per project. Two concurrent
// approvals against the same project must not interleave their
// read-modify-write of the spent amount; commits for different
// projects proceed in parallel.
//
// Locks are never removed from the map. The entry per project is a
// single mutex, which is cheaper than the bookkeeping needed to free
// them safely.
var projectLocks sync.Map

// lockProject acquires the commit lock for a project and returns the
// unlock function. It must be acquired before starting the database
// transaction that commits a ledger entry and released after it ends.
func lockProject(id uuid.UUID) func() {
	l, _ := projectLocks.LoadOrStore(id, &sync.Mutex{})
	mu := l.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
