package transfer

import (
	"errors"
	"fmt"
	"io"

	"github.com/lodestar-vc/lodestar/internal/merge"
	"github.com/lodestar-vc/lodestar/internal/pack"
	"github.com/lodestar-vc/lodestar/internal/refspec"
	"github.com/lodestar-vc/lodestar/internal/remote"
	"github.com/lodestar-vc/lodestar/internal/repository"
	"github.com/lodestar-vc/lodestar/internal/revwalk"
	"github.com/lodestar-vc/lodestar/internal/storage"
)

// Fetch performs a full fetch from a remote: negotiate the want/have
// exchange, download and store the resulting pack, then move the tracking
// refs. Returns the want list so callers can report what changed.
func Fetch(repo *repository.Repository, rem *remote.Remote, t Transport) (WantList, error) {
	spec, err := rem.FetchRefspec()
	if err != nil {
		return nil, err
	}

	n := &Negotiator{
		Transport: t,
		Refs:      repo,
		Spec:      spec,
		NewWalker: func() (Walker, error) {
			return revwalk.New(repo.Store()), nil
		},
	}

	wants, err := n.Negotiate()
	if err != nil {
		return nil, fmt.Errorf("fetch negotiation with %q failed: %w", rem.Name, err)
	}

	// Nothing to fetch
	if len(wants) == 0 {
		return wants, nil
	}

	stream, err := n.DownloadPack()
	if err != nil {
		return nil, fmt.Errorf("failed to download pack from %q: %w", rem.Name, err)
	}
	defer stream.Close()

	if err := applyPack(repo.Store(), stream); err != nil {
		return nil, err
	}

	if err := updateTrackingRefs(repo, spec, wants); err != nil {
		return nil, err
	}

	return wants, nil
}

// applyPack stores every object of a pack stream
func applyPack(store *storage.Store, stream io.Reader) error {
	r, err := pack.NewReader(stream)
	if err != nil {
		return err
	}
	defer r.Close()

	for {
		obj, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read pack: %w", err)
		}
		if _, err := store.Put(obj.Type, obj.Data); err != nil {
			return fmt.Errorf("failed to store object %s: %w", obj.Hash.Short(), err)
		}
	}
}

// updateTrackingRefs points each want's tracking ref at the fetched
// commit. Existing refs only move forward unless the refspec is forced.
func updateTrackingRefs(repo *repository.Repository, spec *refspec.Refspec, wants WantList) error {
	for _, head := range wants {
		local, err := spec.Transform(head.Name)
		if err != nil {
			return fmt.Errorf("failed to transform ref name %q: %w", head.Name, err)
		}

		if head.HasLocal && !spec.Force {
			ok, err := merge.CanFastForward(repo.Store(), head.LocalOID, head.RemoteOID)
			if err != nil {
				return fmt.Errorf("failed to check ancestry for %s: %w", local, err)
			}
			if !ok {
				return fmt.Errorf("non-fast-forward update rejected for %s", local)
			}
		}

		if err := repo.SetRef(local, head.RemoteOID); err != nil {
			return fmt.Errorf("failed to update %s: %w", local, err)
		}
	}

	return nil
}
