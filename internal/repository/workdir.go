package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lodestar-vc/lodestar/internal/core"
	"golang.org/x/sync/errgroup"
)

// Save creates a new commit with the specified files and message
func (r *Repository) Save(files []string, message string) (core.Hash, error) {
	if message == "" {
		return core.Hash{}, fmt.Errorf("commit message cannot be empty")
	}

	// If no files specified, save all tracked files
	if len(files) == 0 {
		var err error
		files, err = r.listAllFiles()
		if err != nil {
			return core.Hash{}, err
		}
	}

	tree, err := r.buildTree(files)
	if err != nil {
		return core.Hash{}, err
	}

	treeHash, err := r.store.PutTree(tree)
	if err != nil {
		return core.Hash{}, err
	}

	// Get parent commit (if exists)
	var parents []core.Hash
	if currentCommit, err := r.GetCurrentCommit(); err == nil && !currentCommit.IsZero() {
		parents = []core.Hash{currentCommit}
	}

	commit := &core.Commit{
		Tree:      treeHash,
		Parents:   parents,
		Author:    r.getAuthorName(),
		Email:     r.getAuthorEmail(),
		Timestamp: time.Now(),
		Message:   message,
	}

	commitHash, err := r.store.PutCommit(commit)
	if err != nil {
		return core.Hash{}, err
	}

	branch, err := r.GetCurrentBranch()
	if err != nil {
		return core.Hash{}, err
	}

	if err := r.SetRef(headsDir+"/"+branch, commitHash); err != nil {
		return core.Hash{}, err
	}

	return commitHash, nil
}

// buildTree creates a tree object from the given files, hashing them in
// parallel
func (r *Repository) buildTree(files []string) (*core.Tree, error) {
	entries := make([]core.TreeEntry, len(files))

	var g errgroup.Group
	var mu sync.Mutex

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			absPath := filepath.Join(r.Root, file)

			info, err := os.Stat(absPath)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", file, err)
			}

			data, err := os.ReadFile(absPath)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			hash, err := r.store.PutBlob(data)
			if err != nil {
				return fmt.Errorf("failed to store %s: %w", file, err)
			}

			mode := uint32(0100644)
			if info.Mode()&0111 != 0 {
				mode = 0100755
			}

			mu.Lock()
			entries[i] = core.TreeEntry{Mode: mode, Name: file, Hash: hash}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	return &core.Tree{Entries: entries}, nil
}

// listAllFiles returns every file in the working directory, relative to the
// repository root, skipping the metadata directory
func (r *Repository) listAllFiles() ([]string, error) {
	var files []string

	err := filepath.Walk(r.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(r.Root, path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if rel == ldsDir {
				return filepath.SkipDir
			}
			return nil
		}

		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list working directory: %w", err)
	}

	return files, nil
}

func (r *Repository) getAuthorName() string {
	if name := r.configValue("user", "name"); name != "" {
		return name
	}
	return "Unknown"
}

func (r *Repository) getAuthorEmail() string {
	if email := r.configValue("user", "email"); email != "" {
		return email
	}
	return "unknown@localhost"
}

// configValue reads a single key from a config section; empty on any error
func (r *Repository) configValue(section, key string) string {
	data, err := os.ReadFile(filepath.Join(r.LdsPath(), configDir, "config"))
	if err != nil {
		return ""
	}

	inSection := false
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "[") {
			inSection = line == "["+section+"]"
			continue
		}

		if !inSection {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 && strings.TrimSpace(parts[0]) == key {
			return strings.TrimSpace(parts[1])
		}
	}

	return ""
}
