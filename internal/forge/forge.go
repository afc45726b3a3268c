package forge

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Kind identifies the forge hosting a project repository.
type Kind string

const (
	GitHub Kind = "github"
	GitLab Kind = "gitlab"
)

// Repo is a parsed repository location.
type Repo struct {
	Kind  Kind
	Host  string
	Owner string // org, user or GitLab group path
	Name  string
}

// Slug returns "owner/name".
func (r Repo) Slug() string { return r.Owner + "/" + r.Name }

// WebURL is the https form the backend stores.
func (r Repo) WebURL() string { return "https://" + r.Host + "/" + r.Slug() }

var (
	ErrUnknownForge = errors.New("must point at a GitHub or GitLab repository")
	ErrNoRepoPath   = errors.New("must include owner and repository name")
)

// Parse accepts https and scp-style ("git@github.com:org/repo.git") URLs.
func Parse(raw string) (Repo, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Repo{}, ErrNoRepoPath
	}

	var host, path string
	if rest, ok := strings.CutPrefix(raw, "git@"); ok {
		// scp form: git@host:owner/name(.git)
		h, p, found := strings.Cut(rest, ":")
		if !found {
			return Repo{}, fmt.Errorf("parse %q: %w", raw, ErrNoRepoPath)
		}
		host, path = h, p
	} else {
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return Repo{}, fmt.Errorf("parse %q: %w", raw, err)
		}
		host, path = u.Hostname(), u.Path
	}

	host = strings.ToLower(host)
	var kind Kind
	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.com"):
		kind = GitHub
	case strings.Contains(host, "gitlab"):
		kind = GitLab
	default:
		return Repo{}, ErrUnknownForge
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return Repo{}, ErrNoRepoPath
	}
	owner, name := path[:idx], path[idx+1:]
	// GitHub has no nested groups: only owner/name is a repository.
	if kind == GitHub && strings.Contains(owner, "/") {
		return Repo{}, ErrNoRepoPath
	}

	return Repo{Kind: kind, Host: host, Owner: owner, Name: name}, nil
}
