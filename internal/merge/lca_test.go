package merge

import (
	"testing"
	"time"

	"github.com/lodestar-vc/lodestar/internal/core"
	"github.com/lodestar-vc/lodestar/internal/storage"
)

func testCommit(t *testing.T, store *storage.Store, msg string, parents ...core.Hash) core.Hash {
	t.Helper()

	hash, err := store.PutCommit(&core.Commit{
		Tree:      core.HashBytes([]byte("tree-" + msg)),
		Parents:   parents,
		Author:    "Test",
		Email:     "test@example.com",
		Timestamp: time.Unix(1700000000, 0),
		Message:   msg,
	})
	if err != nil {
		t.Fatalf("failed to store commit: %v", err)
	}
	return hash
}

func TestIsAncestor(t *testing.T) {
	store := storage.NewStore(t.TempDir())

	root := testCommit(t, store, "root")
	mid := testCommit(t, store, "mid", root)
	tip := testCommit(t, store, "tip", mid)
	other := testCommit(t, store, "other")

	cases := []struct {
		name     string
		ancestor core.Hash
		commit   core.Hash
		want     bool
	}{
		{"direct parent", mid, tip, true},
		{"transitive", root, tip, true},
		{"self", tip, tip, true},
		{"reversed", tip, root, false},
		{"unrelated", other, tip, false},
	}

	for _, c := range cases {
		got, err := IsAncestor(store, c.ancestor, c.commit)
		if err != nil {
			t.Fatalf("%s: IsAncestor failed: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: IsAncestor = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestCanFastForward(t *testing.T) {
	store := storage.NewStore(t.TempDir())

	base := testCommit(t, store, "base")
	ahead := testCommit(t, store, "ahead", base)
	diverged := testCommit(t, store, "diverged", base)

	ok, err := CanFastForward(store, base, ahead)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("base -> ahead should fast-forward")
	}

	ok, err = CanFastForward(store, ahead, diverged)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("diverged histories should not fast-forward")
	}
}
