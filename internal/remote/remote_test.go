package remote

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lodestar-vc/lodestar/internal/core"
)

func createTestRepoDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	configDir := filepath.Join(dir, ".lds", "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}

	configFile := filepath.Join(configDir, "config")
	if err := os.WriteFile(configFile, []byte("[core]\n\trepositoryformatversion = 1\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	return dir
}

func TestRemoteOperations(t *testing.T) {
	repoPath := createTestRepoDir(t)

	if err := AddRemote(repoPath, "origin", "https://example.com/repo"); err != nil {
		t.Fatalf("AddRemote failed: %v", err)
	}

	remotes, err := ListRemotes(repoPath)
	if err != nil {
		t.Fatalf("ListRemotes failed: %v", err)
	}
	if len(remotes) != 1 {
		t.Fatalf("expected 1 remote, got %d", len(remotes))
	}
	if remotes[0].Name != "origin" {
		t.Errorf("expected remote name 'origin', got '%s'", remotes[0].Name)
	}
	if remotes[0].URL != "https://example.com/repo" {
		t.Errorf("unexpected URL '%s'", remotes[0].URL)
	}

	// Duplicate add
	if err := AddRemote(repoPath, "origin", "https://example.com/other"); err == nil {
		t.Error("expected error when adding duplicate remote")
	}

	r, err := GetRemote(repoPath, "origin")
	if err != nil {
		t.Fatalf("GetRemote failed: %v", err)
	}
	if r.URL != "https://example.com/repo" {
		t.Error("GetRemote returned wrong URL")
	}

	if err := RemoveRemote(repoPath, "origin"); err != nil {
		t.Fatalf("RemoveRemote failed: %v", err)
	}
	remotes, err = ListRemotes(repoPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(remotes) != 0 {
		t.Errorf("expected no remotes after removal, got %d", len(remotes))
	}

	if err := RemoveRemote(repoPath, "origin"); err == nil {
		t.Error("expected error removing missing remote")
	}
}

func TestFetchRefspecParsing(t *testing.T) {
	repoPath := createTestRepoDir(t)

	if err := AddRemote(repoPath, "origin", "https://example.com/repo"); err != nil {
		t.Fatal(err)
	}

	r, err := GetRemote(repoPath, "origin")
	if err != nil {
		t.Fatal(err)
	}

	if len(r.Fetch) != 1 {
		t.Fatalf("expected 1 fetch line, got %d", len(r.Fetch))
	}
	if r.Fetch[0] != "+refs/heads/*:refs/remotes/origin/*" {
		t.Errorf("unexpected fetch line %q", r.Fetch[0])
	}

	spec, err := r.FetchRefspec()
	if err != nil {
		t.Fatalf("FetchRefspec failed: %v", err)
	}
	if !spec.Force {
		t.Error("default fetch refspec should be forced")
	}

	local, err := spec.Transform("refs/heads/main")
	if err != nil {
		t.Fatal(err)
	}
	if local != "refs/remotes/origin/main" {
		t.Errorf("unexpected transform %q", local)
	}
}

func TestFetchRefspecMissing(t *testing.T) {
	r := &Remote{Name: "bare", URL: "https://example.com/repo"}

	if _, err := r.FetchRefspec(); !errors.Is(err, core.ErrNoFetchRefspec) {
		t.Errorf("expected ErrNoFetchRefspec, got %v", err)
	}
}

func TestParseURL(t *testing.T) {
	u, err := ParseURL("https://user@example.com:8443/team/repo")
	if err != nil {
		t.Fatalf("ParseURL failed: %v", err)
	}

	if u.Protocol != "https" || u.Host != "example.com" || u.Port != 8443 ||
		u.Path != "/team/repo" || u.User != "user" {
		t.Errorf("unexpected parse result: %+v", u)
	}
}
