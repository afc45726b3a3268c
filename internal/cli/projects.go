package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"prhealth/internal/forge"
	"prhealth/internal/git"
	"prhealth/internal/model"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Inspect projects",
	}
	cmd.AddCommand(newProjectsListCmd(), newProjectsSummaryCmd(), newProjectsCreateCmd())
	return cmd
}

func newProjectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the projects visible to the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			projects, err := e.client.ListProjects(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", e.sessionErr(err))
			}
			if len(projects) == 0 {
				info(cmd).Println("No projects assigned for you")
				return nil
			}

			data := pterm.TableData{{"ID", "NAME", "REPOSITORY", "CREATED AT"}}
			for _, p := range projects {
				repo := p.RepoURL
				if r, err := forge.Parse(p.RepoURL); err == nil {
					repo = r.Slug()
				}
				data = append(data, []string{strconv.Itoa(p.ID), p.Name, repo, p.CreatedAt.Display()})
			}
			return table(cmd, data).Render()
		},
	}
}

func newProjectsSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <project-id>",
		Short: "Show the pull request summary of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			e, err := newEnv(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			sum, err := e.client.PullRequestSummary(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load summary: %w", e.sessionErr(err))
			}
			prs, err := e.client.ListPullRequests(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load pull requests: %w", e.sessionErr(err))
			}

			section(cmd).Printfln("Project %d", id)
			data := pterm.TableData{
				{"OPEN", "STALE", "AVG DAYS OPEN", "OLDEST (DAYS)"},
				{
					strconv.Itoa(sum.TotalOpen),
					strconv.Itoa(sum.StaleCount),
					strconv.FormatFloat(sum.AverageDaysOpen, 'f', 1, 64),
					strconv.Itoa(sum.OldestDays),
				},
			}
			if err := table(cmd, data).Render(); err != nil {
				return err
			}

			for _, pr := range prs {
				if pr.IsStale() {
					warning(cmd).Printfln("stale: %s (%d days) %s", prTitle(pr), pr.DaysOpen, pr.URL)
				}
			}
			return nil
		},
	}
}

func prTitle(pr model.PullRequest) string {
	if pr.Title != "" {
		return pr.Title
	}
	return "#" + pr.ID
}

func newProjectsCreateCmd() *cobra.Command {
	var name, repo, dir string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a project (admin only)",
		Long: `Registers a project with the backend. Without --repo the origin remote of
the git repository in --dir (default: the working directory) is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repo == "" {
				origin, err := git.OriginURL(dir)
				if err != nil {
					return fmt.Errorf("no --repo given and %w", err)
				}
				repo = origin
			}
			if r, err := forge.Parse(repo); err == nil {
				repo = r.WebURL()
			}
			p := model.NewProject{Name: strings.TrimSpace(name), RepoURL: repo}
			if err := p.Validate(); err != nil {
				return err
			}

			e, err := newEnv(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			created, err := e.client.CreateProject(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("failed to create project: %w", e.sessionErr(err))
			}
			success(cmd).Printfln("Project %q created (id %d, %s)", created.Name, created.ID, created.RepoURL)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&repo, "repo", "", "GitHub or GitLab repository URL")
	cmd.Flags().StringVar(&dir, "dir", ".", "git repository to read the origin remote from")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
