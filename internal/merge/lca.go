package merge

import (
	"github.com/lodestar-vc/lodestar/internal/core"
	"github.com/lodestar-vc/lodestar/internal/storage"
)

// IsAncestor checks if ancestor is an ancestor of commit
func IsAncestor(store *storage.Store, ancestor, commit core.Hash) (bool, error) {
	if ancestor == commit {
		return true, nil
	}

	visited := make(map[core.Hash]bool)
	queue := []core.Hash{commit}

	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]

		if visited[hash] {
			continue
		}
		visited[hash] = true

		if hash == ancestor {
			return true, nil
		}

		c, err := store.GetCommit(hash)
		if err != nil {
			continue // Reached root
		}

		for _, parent := range c.Parents {
			if !parent.IsZero() {
				queue = append(queue, parent)
			}
		}
	}

	return false, nil
}

// CanFastForward checks if we can fast-forward from base to target
func CanFastForward(store *storage.Store, base, target core.Hash) (bool, error) {
	// Fast-forward is possible if base is an ancestor of target
	return IsAncestor(store, base, target)
}
