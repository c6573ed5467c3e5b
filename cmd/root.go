package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/NamanBalaji/vidloader/internal/cli/styles"
	"github.com/NamanBalaji/vidloader/internal/config"
	"github.com/NamanBalaji/vidloader/internal/engine"
	"github.com/NamanBalaji/vidloader/internal/filesystem"
	"github.com/NamanBalaji/vidloader/internal/loader"
	"github.com/NamanBalaji/vidloader/internal/logger"
	"github.com/NamanBalaji/vidloader/internal/repository"
	"github.com/NamanBalaji/vidloader/internal/transport"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
)

// app holds everything a command needs; it is built before each command runs.
type app struct {
	config *config.Config
	repo   *repository.BboltRepository
	engine *engine.Engine
}

var (
	debug bool
	a     *app
)

var rootCmd = &cobra.Command{
	Use:           "vidloader",
	Short:         "Download HLS streams for offline playback",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		a, err = newApp(debug)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if a == nil {
			return nil
		}
		return a.close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(getCmd, listCmd, resumeCmd, cancelCmd, rmCmd)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("Error: "+err.Error()))
		return ExitGeneralError
	}
	return ExitSuccess
}

func newApp(debug bool) (*app, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", config.Path(), err)
	}

	if err := logger.InitLogging(debug, cfg.LogPath); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo, err := repository.NewBboltRepository(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	opts := transport.DefaultOptions()
	if cfg.Http != nil {
		opts.UserAgent = cfg.Http.UserAgent
		opts.RequestTimeout = cfg.Http.RequestTimeout
	}

	ld := loader.New(transport.NewClient(opts))
	eng := engine.New(repo, ld, filesystem.NewOSFileSystem(), engine.FromAppConfig(*cfg))

	logger.Debugf("Using config %s, database %s", config.Path(), cfg.DBPath)

	return &app{config: cfg, repo: repo, engine: eng}, nil
}

func (a *app) close() error {
	defer logger.Close()

	if err := a.engine.Close(); err != nil {
		logger.Errorf("Content removal failed: %v", err)
		a.repo.Close()
		return err
	}
	return a.repo.Close()
}
