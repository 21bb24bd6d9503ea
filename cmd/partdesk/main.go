// Command partdesk runs the terminal operations console for team hardware
// procurement.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/hylla/partdesk/internal/adapters/orderapi"
	"github.com/hylla/partdesk/internal/adapters/server"
	"github.com/hylla/partdesk/internal/adapters/storage/sqlite"
	"github.com/hylla/partdesk/internal/app"
	"github.com/hylla/partdesk/internal/config"
	"github.com/hylla/partdesk/internal/platform"
	"github.com/hylla/partdesk/internal/tui"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	devModeSet bool
}

// main handles main.
func main() {
	if err := fang.Execute(context.Background(), newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the partdesk command tree.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "partdesk",
		Short:         "Operations console for team hardware procurement",
		Long:          "partdesk is a keyboard-driven board for part requests and vendor orders,\nwith single-level undo over every board gesture.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.devModeSet = cmd.Flags().Changed("dev")
			return runTUI(opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "path to the local sqlite workspace")
	root.PersistentFlags().StringVar(&opts.appName, "app", "", "application name for config/data path resolution")
	root.PersistentFlags().BoolVar(&opts.devMode, "dev", false, "use dev mode paths (<app>-dev)")

	root.AddCommand(newServeCmd(opts), newPathsCmd(opts))
	return root
}

// resolveIdentity merges flags and environment into the path identity.
func resolveIdentity(opts *rootOptions) (string, bool) {
	appName := strings.TrimSpace(opts.appName)
	if appName == "" {
		appName = strings.TrimSpace(os.Getenv("PARTDESK_APP_NAME"))
	}
	if appName == "" {
		appName = "partdesk"
	}

	devMode := version == "dev"
	if env, ok := parseBoolEnv("PARTDESK_DEV_MODE"); ok {
		devMode = env
	}
	if opts.devModeSet {
		devMode = opts.devMode
	}
	return appName, devMode
}

// runtime holds resolved configuration plus the file-backed logger.
type runtime struct {
	cfg      config.Config
	paths    platform.Paths
	logger   *charmlog.Logger
	closeLog func() error
}

// newRuntime resolves paths, loads configuration, and opens the log sink.
func newRuntime(opts *rootOptions) (*runtime, error) {
	appName, devMode := resolveIdentity(opts)
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: appName,
		DevMode: devMode,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	configPath := strings.TrimSpace(opts.configPath)
	if configPath == "" {
		if envPath := strings.TrimSpace(os.Getenv("PARTDESK_CONFIG")); envPath != "" {
			configPath = envPath
		} else {
			configPath = paths.ConfigPath
		}
	}

	dbPath := strings.TrimSpace(opts.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		if envPath := strings.TrimSpace(os.Getenv("PARTDESK_DB_PATH")); envPath != "" {
			dbPath = envPath
			dbOverridden = true
		} else {
			dbPath = paths.DBPath
		}
	}

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, closeLog, err := newFileLogger(paths)
	if err != nil {
		return nil, fmt.Errorf("configure logger: %w", err)
	}
	logger.Info("configuration loaded", "config_path", configPath, "remote", cfg.UseRemote(), "db_path", cfg.Database.Path)
	return &runtime{cfg: cfg, paths: paths, logger: logger, closeLog: closeLog}, nil
}

// newFileLogger opens the data-dir log file. The TUI owns the terminal, so
// runtime logs never go to stderr.
func newFileLogger(paths platform.Paths) (*charmlog.Logger, func() error, error) {
	if err := os.MkdirAll(paths.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(paths.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := charmlog.NewWithOptions(f, charmlog.Options{
		ReportTimestamp: true,
		Prefix:          "partdesk",
	})
	return logger, f.Close, nil
}

// openService picks the hosted backend or the local sqlite workspace.
func (r *runtime) openService() (app.OrderService, func() error, error) {
	if r.cfg.UseRemote() {
		r.logger.Info("using hosted backend", "base_url", r.cfg.Server.BaseURL)
		client := orderapi.New(r.cfg.Server.BaseURL, r.cfg.Server.SessionToken)
		return client, func() error { return nil }, nil
	}
	r.logger.Info("opening sqlite workspace", "db_path", r.cfg.Database.Path)
	repo, err := sqlite.Open(r.cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite workspace: %w", err)
	}
	return repo, repo.Close, nil
}

// runTUI wires the console and runs the board program loop.
func runTUI(opts *rootOptions) error {
	rt, err := newRuntime(opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.closeLog() }()

	svc, closeSvc, err := rt.openService()
	if err != nil {
		rt.logger.Error("backend unavailable", "err", err)
		return err
	}
	defer func() {
		if closeErr := closeSvc(); closeErr != nil {
			rt.logger.Warn("backend close failed", "err", closeErr)
		}
	}()

	console := app.NewConsole(svc, rt.logger, nil)
	m := tui.NewModel(
		console,
		tui.WithBoardFieldConfig(toBoardFieldConfig(rt.cfg.Board)),
		tui.WithKeyConfig(toKeyConfig(rt.cfg.Keys)),
		tui.WithTrackingPoll(time.Duration(rt.cfg.Tracking.PollMinutes)*time.Minute),
	)

	rt.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	rt.logger.Info("command flow complete", "command", "tui")
	return nil
}

// newServeCmd exposes the read-only MCP surface over HTTP.
func newServeCmd(opts *rootOptions) *cobra.Command {
	var bind string
	var mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only MCP board surface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(opts)
			if err != nil {
				return err
			}
			defer func() { _ = rt.closeLog() }()

			svc, closeSvc, err := rt.openService()
			if err != nil {
				return err
			}
			defer func() { _ = closeSvc() }()

			rt.logger.Info("serving mcp surface", "bind", bind, "endpoint", mcpEndpoint)
			return server.Run(cmd.Context(), server.Config{
				HTTPBind:      bind,
				MCPEndpoint:   mcpEndpoint,
				ServerName:    "partdesk",
				ServerVersion: version,
			}, svc)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (default 127.0.0.1:8080)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP endpoint path (default /mcp)")
	return cmd
}

// newPathsCmd prints the resolved per-user paths.
func newPathsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data, and log paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appName, devMode := resolveIdentity(opts)
			paths, err := platform.DefaultPathsWithOptions(platform.Options{
				AppName: appName,
				DevMode: devMode,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "log: %s\n", paths.LogPath)
			return nil
		},
	}
}

// toBoardFieldConfig maps config board visibility into the TUI option shape.
func toBoardFieldConfig(cfg config.BoardConfig) tui.BoardFieldConfig {
	return tui.BoardFieldConfig{
		ShowVendor:   cfg.ShowVendor,
		ShowStudent:  cfg.ShowStudent,
		ShowTracking: cfg.ShowTracking,
		ShowCosts:    cfg.ShowCosts,
	}
}

// toKeyConfig maps config key overrides into the TUI option shape.
func toKeyConfig(cfg config.KeyConfig) tui.KeyConfig {
	return tui.KeyConfig{
		Select:     cfg.Select,
		SelectAll:  cfg.SelectAll,
		SameVendor: cfg.SameVendor,
		Group:      cfg.Group,
		AddToOrder: cfg.AddToOrder,
		Delete:     cfg.Delete,
		Undo:       cfg.Undo,
		Refresh:    cfg.Refresh,
	}
}

// parseBoolEnv reads one boolean environment variable.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return parsed, true
}
