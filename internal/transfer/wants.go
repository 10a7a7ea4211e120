package transfer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lodestar-vc/lodestar/internal/core"
	"github.com/lodestar-vc/lodestar/internal/refspec"
)

// HeadClass orders remote heads in a want list. Only HeadClassWant is
// produced today; the enum exists so classes that must sort ahead of
// plain wants (tag objects, say) are a data change rather than new
// control flow.
type HeadClass int

const (
	HeadClassNone HeadClass = iota
	HeadClassWant
)

// RemoteHead is one entry of a remote's advertisement. Want filtering
// fills LocalOID/HasLocal/Class in place; the entry itself is shared with
// the advertisement, never copied.
type RemoteHead struct {
	Name      string
	RemoteOID core.Hash
	LocalOID  core.Hash
	HasLocal  bool
	Class     HeadClass
}

// WantList holds the advertised heads the client needs, ordered by class
// descending with advertisement order preserved inside a class.
type WantList []*RemoteHead

// RefStore is the local reference access negotiation needs
type RefStore interface {
	GetRef(name string) (core.Hash, error)
	ListRefs() ([]string, error)
}

// ComputeWants filters a remote advertisement down to the heads worth
// fetching: those matching the fetch refspec whose local counterpart is
// missing or points elsewhere. An empty result means everything is up to
// date. Any lookup failure other than a missing ref aborts with no
// partial result.
func ComputeWants(heads []*RemoteHead, spec *refspec.Refspec, refs RefStore) (WantList, error) {
	if spec == nil {
		return nil, core.ErrNoFetchRefspec
	}

	var wants WantList
	for _, head := range heads {
		// If it doesn't match the refspec, we don't want it
		if !spec.MatchSource(head.Name) {
			continue
		}

		local, err := spec.Transform(head.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to transform ref name %q: %w", head.Name, err)
		}

		oid, err := refs.GetRef(local)
		switch {
		case errors.Is(err, core.ErrRefNotFound):
			// Nothing local maps to this head, so it's new and we want it

		case err != nil:
			return nil, fmt.Errorf("failed to look up local ref %q: %w", local, err)

		case oid == head.RemoteOID:
			// Local ref already points at the advertised commit
			continue

		default:
			// Remember the local oid so we don't have to look it up again
			head.HasLocal = true
			head.LocalOID = oid
		}

		head.Class = HeadClassWant
		wants = append(wants, head)
	}

	// Stable by class, descending; ties keep advertisement order
	sort.SliceStable(wants, func(i, j int) bool {
		return wants[i].Class > wants[j].Class
	})

	return wants, nil
}
