package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"prhealth/internal/api"
	"prhealth/internal/config"
	"prhealth/internal/router"
	"prhealth/internal/session"
	"prhealth/internal/tui"
)

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Running it without a subcommand starts
// the dashboard.
func NewRootCmd() *cobra.Command {
	var (
		serverURL  string
		configPath string
	)

	root := &cobra.Command{
		Use:   "prhealth",
		Short: "PR Health Dashboard terminal client",
		Long: `prhealth is a terminal client for the PR Health Dashboard. Run it without
arguments to open the dashboard, or use the subcommands for scripting.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("server") {
				cfg.ServerURL = serverURL
			}
			cmd.SetContext(config.InjectConfig(cmd.Context(), &cfg))
			return nil
		},
		RunE: runDashboard,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "", "backend URL (overrides PRHEALTH_SERVER_URL)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")

	root.AddCommand(newAuthCmd())
	root.AddCommand(newProjectsCmd())
	return root
}

// env is what every command needs: the session and a client reading it.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	sessions *session.Manager
	client   *api.Client
}

func newEnv(ctx context.Context, logOut io.Writer) (*env, error) {
	cfg := config.MustFromContext(ctx)
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.Level()}))

	fs, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	mgr := session.NewManager(session.NewStore(), fs, logger)
	mgr.Restore()

	client := api.New(cfg.ServerURL, mgr.Store(), api.WithLogger(logger))
	return &env{cfg: cfg, logger: logger, sessions: mgr, client: client}, nil
}

// sessionErr ends a session the backend refused so the next run starts at
// login.
func (e *env) sessionErr(err error) error {
	if errors.Is(err, api.ErrSessionInvalid) {
		e.sessions.End()
		return fmt.Errorf("session is no longer valid, run `prhealth auth login`: %w", err)
	}
	return err
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg := config.MustFromContext(cmd.Context())

	// the TUI owns the terminal, so logs go to a file
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(cfg.LogFile, "prhealth")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	e, err := newEnv(cmd.Context(), f)
	if err != nil {
		return err
	}
	e.logger.Info("starting dashboard", "server", cfg.ServerURL)

	m := tui.New(tui.Options{
		Context:  cmd.Context(),
		Router:   router.New(e.sessions, e.logger),
		Sessions: e.sessions,
		Backend:  e.client,
		Logger:   e.logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
