package model

import (
	"strings"

	"prhealth/internal/forge"
)

// Project is a GitHub-backed project as returned by the backend.
type Project struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	RepoURL   string    `json:"repo_url"`
	CreatedBy int       `json:"created_by,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

// Initial is the avatar letter shown on project cards.
func (p Project) Initial() string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(name)[:1]))
}

// NewProject is the create-project payload.
type NewProject struct {
	Name    string `json:"name"`
	RepoURL string `json:"repo_url"`
}

func (p NewProject) Validate() error {
	if err := required("name", p.Name); err != nil {
		return err
	}
	if err := required("repository URL", p.RepoURL); err != nil {
		return err
	}
	if _, err := forge.Parse(p.RepoURL); err != nil {
		return &ValidationError{Field: "repository URL", Message: err.Error()}
	}
	return nil
}
