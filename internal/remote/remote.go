package remote

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lodestar-vc/lodestar/internal/core"
	"github.com/lodestar-vc/lodestar/internal/refspec"
)

type Remote struct {
	Name     string
	URL      string
	FetchURL string   // Optional, defaults to URL
	PushURL  string   // Optional, defaults to URL
	Fetch    []string // Fetch refspec lines, in config order
}

type RemoteURL struct {
	Protocol string // "https", "ssh", "file"
	Host     string
	Port     int
	Path     string
	User     string
}

// FetchRefspec returns the active fetch refspec of the remote. A remote
// without one cannot be fetched from; that is a configuration error.
func (r *Remote) FetchRefspec() (*refspec.Refspec, error) {
	if len(r.Fetch) == 0 {
		return nil, fmt.Errorf("remote %q: %w", r.Name, core.ErrNoFetchRefspec)
	}

	spec, err := refspec.Parse(r.Fetch[0])
	if err != nil {
		return nil, fmt.Errorf("remote %q: %w", r.Name, err)
	}
	return spec, nil
}

func configPath(repoPath string) string {
	return filepath.Join(repoPath, ".lds", "config", "config")
}

// AddRemote adds a new remote to the configuration with the default fetch
// refspec for its tracking namespace
func AddRemote(repoPath, name, remoteURL string) error {
	if name == "" {
		return fmt.Errorf("remote name cannot be empty")
	}
	if remoteURL == "" {
		return fmt.Errorf("remote URL cannot be empty")
	}

	remotes, err := ListRemotes(repoPath)
	if err == nil {
		for _, r := range remotes {
			if r.Name == name {
				return fmt.Errorf("remote '%s' already exists", name)
			}
		}
	}

	f, err := os.OpenFile(configPath(repoPath), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	section := fmt.Sprintf("\n[remote \"%s\"]\n\turl = %s\n\tfetch = +refs/heads/*:refs/remotes/%s/*\n", name, remoteURL, name)
	if _, err := f.WriteString(section); err != nil {
		return fmt.Errorf("failed to write to config file: %w", err)
	}

	return nil
}

// RemoveRemote removes a remote from the configuration
func RemoveRemote(repoPath, name string) error {
	path := configPath(repoPath)

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	lines := strings.Split(string(content), "\n")
	var newLines []string
	inSection := false
	sectionHeader := fmt.Sprintf("[remote \"%s\"]", name)

	found := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == sectionHeader {
			inSection = true
			found = true
			continue
		}

		if inSection && strings.HasPrefix(trimmed, "[") {
			inSection = false
		}

		if !inSection {
			newLines = append(newLines, line)
		}
	}

	if !found {
		return fmt.Errorf("remote '%s' not found", name)
	}

	return os.WriteFile(path, []byte(strings.Join(newLines, "\n")), 0644)
}

// ListRemotes returns all configured remotes, sorted by name
func ListRemotes(repoPath string) ([]Remote, error) {
	file, err := os.Open(configPath(repoPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	remotes := make(map[string]*Remote)
	scanner := bufio.NewScanner(file)

	var currentRemote *Remote

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[remote \"") && strings.HasSuffix(line, "\"]") {
			name := line[9 : len(line)-2]
			currentRemote = &Remote{Name: name}
			remotes[name] = currentRemote
			continue
		}

		if strings.HasPrefix(line, "[") {
			currentRemote = nil // Other sections
			continue
		}

		if currentRemote != nil {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				switch key {
				case "url":
					currentRemote.URL = value
					if currentRemote.FetchURL == "" {
						currentRemote.FetchURL = value
					}
					if currentRemote.PushURL == "" {
						currentRemote.PushURL = value
					}
				case "pushurl":
					currentRemote.PushURL = value
				case "fetch":
					currentRemote.Fetch = append(currentRemote.Fetch, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var result []Remote
	for _, r := range remotes {
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// GetRemote returns a specific remote by name
func GetRemote(repoPath, name string) (*Remote, error) {
	remotes, err := ListRemotes(repoPath)
	if err != nil {
		return nil, err
	}

	for _, r := range remotes {
		if r.Name == name {
			return &r, nil
		}
	}

	return nil, fmt.Errorf("remote '%s' not found", name)
}

// ParseURL parses a remote URL into its components
func ParseURL(rawURL string) (*RemoteURL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	port := 0
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err == nil {
			port = p
		}
	}

	return &RemoteURL{
		Protocol: u.Scheme,
		Host:     u.Hostname(),
		Port:     port,
		Path:     u.Path,
		User:     u.User.Username(),
	}, nil
}
