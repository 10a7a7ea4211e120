package repository

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lodestar-vc/lodestar/internal/core"
	"github.com/lodestar-vc/lodestar/internal/storage"
)

const (
	ldsDir    = ".lds"
	configDir = "config"
	refsDir   = "refs"
	headsDir  = "refs/heads"
)

// Repository represents a lodestar repository
type Repository struct {
	Root  string
	store *storage.Store
}

// Init initializes a new repository in the given directory
func Init(path string) (*Repository, error) {
	ldsPath := filepath.Join(path, ldsDir)

	if _, err := os.Stat(ldsPath); err == nil {
		return nil, core.ErrAlreadyRepository
	}

	dirs := []string{
		ldsPath,
		filepath.Join(ldsPath, "objects"),
		filepath.Join(ldsPath, "refs", "heads"),
		filepath.Join(ldsPath, "config"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	headPath := filepath.Join(ldsPath, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0644); err != nil {
		return nil, fmt.Errorf("failed to create HEAD: %w", err)
	}

	configPath := filepath.Join(ldsPath, "config", "config")
	defaultConfig := []byte("[core]\n\trepositoryformatversion = 1\n")
	if err := os.WriteFile(configPath, defaultConfig, 0644); err != nil {
		return nil, fmt.Errorf("failed to create config: %w", err)
	}

	return Open(path)
}

// Open opens an existing repository
func Open(path string) (*Repository, error) {
	ldsPath := filepath.Join(path, ldsDir)

	info, err := os.Stat(ldsPath)
	if err != nil || !info.IsDir() {
		return nil, core.ErrNotARepository
	}

	return &Repository{
		Root:  path,
		store: storage.NewStore(ldsPath),
	}, nil
}

// FindRoot walks up from startPath looking for a repository root
func FindRoot(startPath string) (string, error) {
	path, err := filepath.Abs(startPath)
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(path, ldsDir)); err == nil && info.IsDir() {
			return path, nil
		}

		parent := filepath.Dir(path)
		if parent == path {
			return "", core.ErrNotARepository
		}
		path = parent
	}
}

// Store returns the object store
func (r *Repository) Store() *storage.Store {
	return r.store
}

// LdsPath returns the .lds directory path
func (r *Repository) LdsPath() string {
	return filepath.Join(r.Root, ldsDir)
}

// GetHEAD returns the current HEAD reference
func (r *Repository) GetHEAD() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.LdsPath(), "HEAD"))
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}

	// Parse "ref: refs/heads/main" format
	content := strings.TrimSuffix(string(data), "\n")
	if strings.HasPrefix(content, "ref: ") {
		return content[5:], nil
	}

	// Direct hash reference
	return content, nil
}

// SetHEAD sets the HEAD reference
func (r *Repository) SetHEAD(ref string) error {
	headPath := filepath.Join(r.LdsPath(), "HEAD")

	var content string
	if strings.HasPrefix(ref, headsDir+"/") {
		content = fmt.Sprintf("ref: %s\n", ref)
	} else {
		content = fmt.Sprintf("%s\n", ref)
	}

	return os.WriteFile(headPath, []byte(content), 0644)
}

// GetRef returns the hash that a reference points to. A missing reference
// is reported as core.ErrRefNotFound.
func (r *Repository) GetRef(ref string) (core.Hash, error) {
	refPath := filepath.Join(r.LdsPath(), ref)
	data, err := os.ReadFile(refPath)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Hash{}, core.ErrRefNotFound
		}
		return core.Hash{}, fmt.Errorf("failed to read ref: %w", err)
	}

	hashStr := strings.TrimSuffix(string(data), "\n")
	return core.ParseHash(hashStr)
}

// SetRef sets a reference to point to a hash
func (r *Repository) SetRef(ref string, hash core.Hash) error {
	refPath := filepath.Join(r.LdsPath(), ref)

	if err := os.MkdirAll(filepath.Dir(refPath), 0755); err != nil {
		return fmt.Errorf("failed to create ref directory: %w", err)
	}

	content := fmt.Sprintf("%s\n", hash.String())
	return os.WriteFile(refPath, []byte(content), 0644)
}

// ListRefs returns every reference name under refs/, recursively, in
// lexicographic order. The order is stable for a fixed repository state so
// that callers walking history from these tips behave deterministically.
func (r *Repository) ListRefs() ([]string, error) {
	refsPath := filepath.Join(r.LdsPath(), refsDir)

	var names []string
	err := filepath.WalkDir(refsPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(r.LdsPath(), path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list refs: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

// GetCurrentBranch returns the name of the current branch
func (r *Repository) GetCurrentBranch() (string, error) {
	ref, err := r.GetHEAD()
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(ref, headsDir+"/") {
		return ref[len(headsDir)+1:], nil
	}

	return "", fmt.Errorf("HEAD is detached")
}

// GetCurrentCommit returns the hash of the current commit
func (r *Repository) GetCurrentCommit() (core.Hash, error) {
	ref, err := r.GetHEAD()
	if err != nil {
		return core.Hash{}, err
	}

	// If HEAD points to a branch, resolve it
	if strings.HasPrefix(ref, headsDir+"/") {
		return r.GetRef(ref)
	}

	return core.ParseHash(ref)
}

// ListBranches returns all local branch names
func (r *Repository) ListBranches() ([]string, error) {
	headsPath := filepath.Join(r.LdsPath(), headsDir)

	entries, err := os.ReadDir(headsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read branches: %w", err)
	}

	branches := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			branches = append(branches, entry.Name())
		}
	}

	return branches, nil
}

// CreateBranch creates a new branch pointing to the current commit
func (r *Repository) CreateBranch(name string) error {
	if name == "" || name == "HEAD" {
		return core.ErrInvalidBranchName
	}

	ref := headsDir + "/" + name
	refPath := filepath.Join(r.LdsPath(), ref)
	if _, err := os.Stat(refPath); err == nil {
		return core.ErrBranchExists
	}

	currentCommit, err := r.GetCurrentCommit()
	if err != nil {
		if err == core.ErrRefNotFound {
			// No commits yet, create empty branch
			return r.SetRef(ref, core.Hash{})
		}
		return err
	}

	return r.SetRef(ref, currentCommit)
}

// SwitchBranch switches to a different branch
func (r *Repository) SwitchBranch(name string) error {
	ref := headsDir + "/" + name
	refPath := filepath.Join(r.LdsPath(), ref)

	if _, err := os.Stat(refPath); os.IsNotExist(err) {
		return core.ErrRefNotFound
	}

	return r.SetHEAD(ref)
}
