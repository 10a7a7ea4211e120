// Package revwalk provides lazy traversal over the commit graph. A walker
// is seeded with one or more tips and yields every reachable commit exactly
// once, newest first, without materializing the whole history.
package revwalk

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lodestar-vc/lodestar/internal/core"
	"github.com/lodestar-vc/lodestar/internal/storage"
)

// ErrWalkOver signals normal exhaustion of the walk. It is a termination
// sentinel, not a failure.
var ErrWalkOver = errors.New("revision walk complete")

type pendingCommit struct {
	hash    core.Hash
	when    int64
	parents []core.Hash
}

// Walker iterates the commit graph reachable from its pushed tips.
// Commits are yielded in timestamp order, newest first, with the hash as
// tiebreak so the sequence is deterministic for a fixed repository state.
// A Walker is not restartable; create a new one per traversal.
type Walker struct {
	store *storage.Store
	// sorted by ascending priority; the next commit to yield is last
	pending []pendingCommit
	seen    map[core.Hash]bool
}

// New creates a walker over the given object store
func New(store *storage.Store) *Walker {
	return &Walker{
		store: store,
		seen:  make(map[core.Hash]bool),
	}
}

// Push seeds the walk with a commit. Pushing a tip that was already pushed
// or already yielded is a no-op.
func (w *Walker) Push(oid core.Hash) error {
	if w.seen == nil {
		return errors.New("walker has been freed")
	}
	return w.enqueue(oid)
}

func (w *Walker) enqueue(oid core.Hash) error {
	if w.seen[oid] {
		return nil
	}

	commit, err := w.store.GetCommit(oid)
	if err != nil {
		return fmt.Errorf("failed to load commit %s: %w", oid.Short(), err)
	}

	w.seen[oid] = true
	w.insert(pendingCommit{
		hash:    oid,
		when:    commit.Timestamp.Unix(),
		parents: commit.Parents,
	})
	return nil
}

// insert keeps pending ordered so the newest commit (smallest hash on
// timestamp ties) sits at the end of the slice
func (w *Walker) insert(pc pendingCommit) {
	i := sort.Search(len(w.pending), func(i int) bool {
		other := w.pending[i]
		if other.when != pc.when {
			return other.when > pc.when
		}
		return other.hash.Less(pc.hash)
	})

	w.pending = append(w.pending, pendingCommit{})
	copy(w.pending[i+1:], w.pending[i:])
	w.pending[i] = pc
}

// Next returns the identifier of the next reachable commit. Exhaustion is
// reported as ErrWalkOver.
func (w *Walker) Next() (core.Hash, error) {
	if len(w.pending) == 0 {
		return core.Hash{}, ErrWalkOver
	}

	pc := w.pending[len(w.pending)-1]
	w.pending = w.pending[:len(w.pending)-1]

	for _, parent := range pc.parents {
		if parent.IsZero() {
			continue
		}
		if err := w.enqueue(parent); err != nil {
			return core.Hash{}, err
		}
	}

	return pc.hash, nil
}

// Free releases the traversal state. Safe to call more than once; a freed
// walker reports exhaustion.
func (w *Walker) Free() {
	w.pending = nil
	w.seen = nil
}
