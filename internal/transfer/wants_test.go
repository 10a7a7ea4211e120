package transfer

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/lodestar-vc/lodestar/internal/core"
	"github.com/lodestar-vc/lodestar/internal/refspec"
)

func oid(s string) core.Hash {
	return core.HashBytes([]byte(s))
}

func mustSpec(t *testing.T, s string) *refspec.Refspec {
	t.Helper()
	spec, err := refspec.Parse(s)
	if err != nil {
		t.Fatalf("failed to parse refspec %q: %v", s, err)
	}
	return spec
}

type mockRefStore struct {
	refs    map[string]core.Hash
	failOn  string // GetRef on this name fails with a storage error
	listErr error
}

func (m *mockRefStore) GetRef(name string) (core.Hash, error) {
	if m.failOn != "" && name == m.failOn {
		return core.Hash{}, errors.New("ref storage corrupted")
	}
	hash, ok := m.refs[name]
	if !ok {
		return core.Hash{}, core.ErrRefNotFound
	}
	return hash, nil
}

func (m *mockRefStore) ListRefs() ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, 0, len(m.refs))
	for name := range m.refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func TestComputeWants(t *testing.T) {
	spec := mustSpec(t, "+refs/heads/*:refs/remotes/origin/*")

	c1, c2 := oid("c1"), oid("c2")

	// main moved remotely, dev is new, same is up to date, the tag falls
	// outside the refspec
	heads := []*RemoteHead{
		{Name: "refs/heads/main", RemoteOID: c2},
		{Name: "refs/heads/dev", RemoteOID: oid("d")},
		{Name: "refs/heads/same", RemoteOID: oid("s")},
		{Name: "refs/tags/v1.0", RemoteOID: oid("t")},
	}
	refs := &mockRefStore{refs: map[string]core.Hash{
		"refs/remotes/origin/main": c1,
		"refs/remotes/origin/same": oid("s"),
	}}

	wants, err := ComputeWants(heads, spec, refs)
	if err != nil {
		t.Fatalf("ComputeWants failed: %v", err)
	}

	if len(wants) != 2 {
		t.Fatalf("expected 2 wants, got %d", len(wants))
	}

	main := wants[0]
	if main.Name != "refs/heads/main" {
		t.Fatalf("expected refs/heads/main first, got %s", main.Name)
	}
	if main.RemoteOID != c2 {
		t.Error("wrong remote oid for main")
	}
	if !main.HasLocal || main.LocalOID != c1 {
		t.Error("main should carry its local counterpart oid")
	}
	if main.Class != HeadClassWant {
		t.Error("main should be classified as a want")
	}

	dev := wants[1]
	if dev.Name != "refs/heads/dev" {
		t.Fatalf("expected refs/heads/dev second, got %s", dev.Name)
	}
	if dev.HasLocal || !dev.LocalOID.IsZero() {
		t.Error("new branch should have no local counterpart")
	}
	if dev.Class != HeadClassWant {
		t.Error("dev should be classified as a want")
	}

	// The list references advertisement entries, it does not copy them
	if wants[0] != heads[0] || wants[1] != heads[1] {
		t.Error("want list should reference advertisement entries in place")
	}
}

func TestComputeWantsNilSpec(t *testing.T) {
	heads := []*RemoteHead{{Name: "refs/heads/main", RemoteOID: oid("c")}}

	_, err := ComputeWants(heads, nil, &mockRefStore{refs: map[string]core.Hash{}})
	if !errors.Is(err, core.ErrNoFetchRefspec) {
		t.Errorf("expected ErrNoFetchRefspec, got %v", err)
	}
}

func TestComputeWantsEmptyResult(t *testing.T) {
	spec := mustSpec(t, "+refs/heads/*:refs/remotes/origin/*")

	// Everything up to date: empty result, not an error
	heads := []*RemoteHead{{Name: "refs/heads/main", RemoteOID: oid("c1")}}
	refs := &mockRefStore{refs: map[string]core.Hash{
		"refs/remotes/origin/main": oid("c1"),
	}}

	wants, err := ComputeWants(heads, spec, refs)
	if err != nil {
		t.Fatalf("ComputeWants failed: %v", err)
	}
	if len(wants) != 0 {
		t.Errorf("expected empty want list, got %d entries", len(wants))
	}

	// Zero matches: same outcome
	wants, err = ComputeWants([]*RemoteHead{
		{Name: "refs/tags/v1.0", RemoteOID: oid("t")},
	}, spec, refs)
	if err != nil {
		t.Fatalf("ComputeWants failed: %v", err)
	}
	if len(wants) != 0 {
		t.Errorf("expected empty want list for zero matches, got %d", len(wants))
	}
}

func TestComputeWantsLookupFailureIsFatal(t *testing.T) {
	spec := mustSpec(t, "+refs/heads/*:refs/remotes/origin/*")

	heads := []*RemoteHead{
		{Name: "refs/heads/ok", RemoteOID: oid("a")},
		{Name: "refs/heads/broken", RemoteOID: oid("b")},
	}
	refs := &mockRefStore{
		refs:   map[string]core.Hash{},
		failOn: "refs/remotes/origin/broken",
	}

	wants, err := ComputeWants(heads, spec, refs)
	if err == nil {
		t.Fatal("expected fatal error from ref lookup")
	}
	if wants != nil {
		t.Error("no partial want list may be returned on failure")
	}
}

func TestComputeWantsNameTooLong(t *testing.T) {
	spec := mustSpec(t, "+refs/heads/*:refs/remotes/origin/*")

	heads := []*RemoteHead{
		{Name: "refs/heads/" + strings.Repeat("x", refspec.MaxNameLen), RemoteOID: oid("c")},
	}

	_, err := ComputeWants(heads, spec, &mockRefStore{refs: map[string]core.Hash{}})
	if !errors.Is(err, core.ErrRefNameTooLong) {
		t.Errorf("expected ErrRefNameTooLong, got %v", err)
	}
}

func TestComputeWantsIdempotent(t *testing.T) {
	spec := mustSpec(t, "+refs/heads/*:refs/remotes/origin/*")

	heads := []*RemoteHead{
		{Name: "refs/heads/main", RemoteOID: oid("c2")},
		{Name: "refs/heads/dev", RemoteOID: oid("d")},
	}
	refs := &mockRefStore{refs: map[string]core.Hash{
		"refs/remotes/origin/main": oid("c1"),
	}}

	first, err := ComputeWants(heads, spec, refs)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ComputeWants(heads, spec, refs)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("length differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entry %d differs between runs", i)
		}
	}
}
