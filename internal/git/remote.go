package git

import (
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
)

// ErrNoRemote is returned when the repository has no usable remote.
var ErrNoRemote = errors.New("no git remote found")

// Remote is one fetch remote of a repository.
type Remote struct {
	Name string
	URL  string
}

// Remotes runs git remote -v in dir and returns the fetch remotes.
func Remotes(dir string) ([]Remote, error) {
	cmd := exec.Command("git", "remote", "-v")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git remote -v: %w", err)
	}
	return parseRemotes(string(out)), nil
}

// parseRemotes reads `git remote -v` output. Push lines are skipped and
// remotes come back sorted by name.
func parseRemotes(raw string) []Remote {
	seen := make(map[string]bool)
	var remotes []Remote
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if len(fields) >= 3 && fields[2] != "(fetch)" {
			continue
		}
		if seen[fields[0]] {
			continue
		}
		seen[fields[0]] = true
		remotes = append(remotes, Remote{Name: fields[0], URL: fields[1]})
	}
	sort.Slice(remotes, func(i, j int) bool { return remotes[i].Name < remotes[j].Name })
	return remotes
}

// OriginURL picks the URL a project would be registered with: origin when
// present, otherwise the first remote.
func OriginURL(dir string) (string, error) {
	remotes, err := Remotes(dir)
	if err != nil {
		return "", err
	}
	return pickOrigin(remotes)
}

func pickOrigin(remotes []Remote) (string, error) {
	if len(remotes) == 0 {
		return "", ErrNoRemote
	}
	for _, r := range remotes {
		if r.Name == "origin" {
			return r.URL, nil
		}
	}
	return remotes[0].URL, nil
}
