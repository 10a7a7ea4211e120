package transfer

import (
	"errors"
	"fmt"
	"io"

	"github.com/lodestar-vc/lodestar/internal/core"
	"github.com/lodestar-vc/lodestar/internal/refspec"
	"github.com/lodestar-vc/lodestar/internal/revwalk"
)

// Transport is the wire surface negotiation drives. Calls block until the
// peer has consumed them; cancellation, if needed, belongs to the
// transport implementation (socket deadlines), not this layer.
type Transport interface {
	// ListRefs returns the remote's full advertisement
	ListRefs() ([]*RemoteHead, error)
	// SendWants transmits the whole want list in one call
	SendWants(wants WantList) error
	// SendHave transmits a single known object identifier
	SendHave(oid core.Hash) error
	// SendFlush and SendDone end the haves phase
	SendFlush() error
	SendDone() error
	// DownloadPack returns the pack stream the peer built for the
	// negotiated wants
	DownloadPack() (io.ReadCloser, error)
}

// Walker abstracts the revision traversal used to enumerate haves
type Walker interface {
	Push(oid core.Hash) error
	Next() (core.Hash, error)
	Free()
}

// Negotiator runs the want/have exchange against one remote. This is the
// single-round protocol: all wants, then all haves, then flush and done.
// Multi-round ACK negotiation is not implemented.
type Negotiator struct {
	Transport Transport
	Refs      RefStore
	Spec      *refspec.Refspec
	NewWalker func() (Walker, error)
}

// Negotiate lists the remote's advertisement, filters it to a want list,
// and tells the peer what we want and everything we already have so it can
// build a minimal pack. The returned want list is owned by the caller.
// An empty want list is success and performs no further transport I/O.
func (n *Negotiator) Negotiate() (WantList, error) {
	heads, err := n.Transport.ListRefs()
	if err != nil {
		return nil, fmt.Errorf("failed to list remote refs: %w", err)
	}

	wants, err := ComputeWants(heads, n.Spec, n.Refs)
	if err != nil {
		return nil, fmt.Errorf("failed to filter remote heads for wants: %w", err)
	}

	// Don't try to negotiate when we don't want anything
	if len(wants) == 0 {
		return wants, nil
	}

	if err := n.Transport.SendWants(wants); err != nil {
		return nil, fmt.Errorf("failed to send wants: %w", err)
	}

	// Every local ref seeds the walk, not just those the refspec covers:
	// the more history we advertise, the smaller the pack the peer builds
	names, err := n.Refs.ListRefs()
	if err != nil {
		return nil, fmt.Errorf("failed to list local refs: %w", err)
	}

	walk, err := n.NewWalker()
	if err != nil {
		return nil, fmt.Errorf("failed to create revision walker: %w", err)
	}
	defer walk.Free()

	for _, name := range names {
		oid, err := n.Refs.GetRef(name)
		if err != nil {
			return nil, fmt.Errorf("failed to look up %s: %w", name, err)
		}
		if oid.IsZero() {
			// Unborn branch, nothing to advertise
			continue
		}
		if err := walk.Push(oid); err != nil {
			return nil, fmt.Errorf("failed to push %s: %w", name, err)
		}
	}

	for {
		oid, err := walk.Next()
		if errors.Is(err, revwalk.ErrWalkOver) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("revision walk failed: %w", err)
		}
		if err := n.Transport.SendHave(oid); err != nil {
			return nil, fmt.Errorf("failed to send have: %w", err)
		}
	}

	if err := n.Transport.SendFlush(); err != nil {
		return nil, fmt.Errorf("failed to flush haves: %w", err)
	}
	if err := n.Transport.SendDone(); err != nil {
		return nil, fmt.Errorf("failed to finish negotiation: %w", err)
	}

	return wants, nil
}

// DownloadPack delegates to the transport's pack download
func (n *Negotiator) DownloadPack() (io.ReadCloser, error) {
	return n.Transport.DownloadPack()
}
