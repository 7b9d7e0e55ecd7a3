package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	charmLog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hylla/tickit/internal/adapters/auth"
	serveradapter "github.com/hylla/tickit/internal/adapters/server"
	servercommon "github.com/hylla/tickit/internal/adapters/server/common"
	"github.com/hylla/tickit/internal/adapters/sessionfile"
	"github.com/hylla/tickit/internal/adapters/storage/sqlite"
	"github.com/hylla/tickit/internal/app"
	"github.com/hylla/tickit/internal/config"
	"github.com/hylla/tickit/internal/domain"
	"github.com/hylla/tickit/internal/platform"
	"github.com/hylla/tickit/internal/tasklist"
	"github.com/hylla/tickit/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// version stores a package-level helper value.
var version = "dev"

// errNotSignedIn is returned by commands that act for the persisted session.
var errNotSignedIn = errors.New("not signed in: run tickit and sign in first")

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// main handles main.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// run runs the requested command flow.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if args == nil {
		args = []string{}
	}

	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// newRootCommand builds the command tree.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("TICKIT_DEV_MODE"); ok {
		defaultDevMode = envDev
	}
	defaultApp := platform.DefaultAppName
	if envApp := strings.TrimSpace(os.Getenv("TICKIT_APP_NAME")); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:           "tickit",
		Short:         "A small synced to-do list for the terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database")
	flags.StringVar(&opts.appName, "app", defaultApp, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newServeCommand(opts, stderr),
		newExportCommand(opts, stdout, stderr),
		newImportCommand(opts, stdout, stderr),
		newListCommand(opts, stdout, stderr),
		newPathsCommand(opts, stdout),
	)
	return root
}

// newPathsCommand prints resolved runtime paths without opening storage.
func newPathsCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data, and session paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			configPath, dbPath := resolveConfigAndDB(opts, paths)
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", configPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", dbPath)
			_, _ = fmt.Fprintf(stdout, "session: %s\n", paths.SessionPath)
			_, _ = fmt.Fprintf(stdout, "key: %s\n", paths.KeyPath)
			return nil
		},
	}
}

// newServeCommand serves the REST and MCP surfaces.
func newServeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var (
		httpBind    string
		apiEndpoint string
		mcpEndpoint string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tasks over HTTP (REST + server-sent events) and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(opts, stderr, "serve")
			if err != nil {
				return err
			}
			defer env.Close()

			serverCfg := serveradapter.Config{
				HTTPBind:      firstNonEmpty(httpBind, env.cfg.Server.HTTPBind),
				APIEndpoint:   firstNonEmpty(apiEndpoint, env.cfg.Server.APIEndpoint),
				MCPEndpoint:   firstNonEmpty(mcpEndpoint, env.cfg.Server.MCPEndpoint),
				ServerName:    opts.appName,
				ServerVersion: version,
			}
			adapter := servercommon.NewAppServiceAdapter(env.store, env.accounts)
			env.logger.Info("command flow start", "command", "serve", "http", serverCfg.HTTPBind, "api", serverCfg.APIEndpoint, "mcp", serverCfg.MCPEndpoint)
			if err := serveCommandRunner(cmd.Context(), serverCfg, serveradapter.Dependencies{
				Tasks:    adapter,
				Accounts: adapter,
			}); err != nil {
				env.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			env.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint (default from config)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint (default from config)")
	return cmd
}

// newExportCommand writes the signed-in identity's tasks as JSON or YAML.
func newExportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		outPath string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the signed-in identity's tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openRuntime(opts, stderr, "export")
			if err != nil {
				return err
			}
			defer env.Close()

			identity, err := env.restoreIdentity(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := env.store.ExportSnapshot(cmd.Context(), identity)
			if err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			encoded, err := encodeSnapshot(snap, format)
			if err != nil {
				return err
			}
			if err := writeOutput(outPath, encoded, stdout); err != nil {
				return err
			}
			env.logger.Info("command flow complete", "command", "export", "tasks", len(snap.Tasks))
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json|yaml")
	return cmd
}

// newImportCommand appends a snapshot's tasks to the signed-in identity's list.
func newImportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		inPath string
		format string
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tasks from an exported snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return errors.New("--in is required")
			}
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			if strings.TrimSpace(format) == "" {
				format = formatFromPath(inPath)
			}
			snap, err := decodeSnapshot(content, format)
			if err != nil {
				return err
			}

			env, err := openRuntime(opts, stderr, "import")
			if err != nil {
				return err
			}
			defer env.Close()

			identity, err := env.restoreIdentity(cmd.Context())
			if err != nil {
				return err
			}
			created, err := env.store.ImportSnapshot(cmd.Context(), identity.ID, snap)
			if err != nil {
				return fmt.Errorf("import snapshot: %w", err)
			}
			_, _ = fmt.Fprintf(stdout, "imported %d task(s)\n", created)
			env.logger.Info("command flow complete", "command", "import", "tasks", created)
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot file")
	cmd.Flags().StringVar(&format, "format", "", "input format: json|yaml (default from file extension)")
	return cmd
}

// newListCommand prints the signed-in identity's tasks as a table.
func newListCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var rawFilter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the signed-in identity's tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := domain.ParseFilter(rawFilter)
			if err != nil {
				return fmt.Errorf("parse --filter: %w", err)
			}
			env, err := openRuntime(opts, stderr, "list")
			if err != nil {
				return err
			}
			defer env.Close()

			identity, err := env.restoreIdentity(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := env.store.List(cmd.Context(), identity.ID)
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}
			_, _ = fmt.Fprintln(stdout, renderTaskTable(tasks, filter))
			return nil
		},
	}
	cmd.Flags().StringVar(&rawFilter, "filter", "all", "task filter: all|active|completed")
	return cmd
}

// renderTaskTable renders tasks visible under filter plus the active counter.
func renderTaskTable(tasks []domain.Task, filter domain.Filter) string {
	rows := make([][]string, 0, len(tasks))
	active := 0
	for _, task := range tasks {
		if !task.Completed {
			active++
		}
		if !filter.Matches(task) {
			continue
		}
		mark := "○"
		if task.Completed {
			mark = "✓"
		}
		rows = append(rows, []string{mark, task.Title, task.UpdatedAt.Local().Format("2006-01-02 15:04")})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers("", "TITLE", "UPDATED").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	counter := "1 item left"
	if active != 1 {
		counter = fmt.Sprintf("%d items left", active)
	}
	return t.Render() + "\n" + counter + " • " + filter.Label()
}

// runTUI runs the terminal client until the user quits.
func runTUI(ctx context.Context, opts *globalOptions, stderr io.Writer) error {
	env, err := openRuntime(opts, stderr, "tui")
	if err != nil {
		return err
	}
	defer env.Close()

	// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the list is active.
	env.logger.SetConsoleEnabled(false)

	mutator := tasklist.NewAsyncMutator(ctx, env.store, env.logger, 0)
	feed := tasklist.NewFeed(tasklist.StoreSubscriber(env.store))
	m := tui.NewModel(
		env.sessions,
		feed,
		mutator,
		tui.WithContext(ctx),
		tui.WithTheme(tui.NewTheme(string(env.cfg.UI.Theme))),
		tui.WithCompactWidth(env.cfg.UI.CompactWidth),
	)
	env.logger.Info("starting tui program loop")
	_, err = programFactory(m).Run()
	feed.Close()
	mutator.Wait()
	if err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("command flow complete", "command", "tui")
	return nil
}

// runtimeEnv is the opened storage, auth, and logging stack of one command.
type runtimeEnv struct {
	cfg      config.Config
	logger   *runtimeLogger
	repo     *sqlite.Repository
	store    *app.TaskStore
	accounts *app.AccountService
	sessions *app.SessionProvider
}

// openRuntime resolves config and opens everything a command needs.
func openRuntime(opts *globalOptions, stderr io.Writer, command string) (*runtimeEnv, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}
	configPath, dbPath := resolveConfigAndDB(opts, paths)
	dbOverridden := strings.TrimSpace(opts.dbPath) != "" || strings.TrimSpace(os.Getenv("TICKIT_DB_PATH")) != ""

	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	env := &runtimeEnv{cfg: cfg, logger: logger}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", configPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	ttl, err := cfg.SessionTTL()
	if err != nil {
		env.Close()
		return nil, err
	}
	pollInterval, err := cfg.PollInterval()
	if err != nil {
		env.Close()
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		env.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		env.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	env.repo = repo
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")

	keyPath := firstNonEmpty(cfg.Auth.KeyPath, paths.KeyPath)
	secret, err := auth.LoadOrCreateSecret(keyPath)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("load signing key: %w", err)
	}
	issuer, err := auth.NewJWTIssuer(secret, ttl)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("configure token issuer: %w", err)
	}
	var federated app.FederatedProvider
	if cfg.FederatedEnabled() {
		federated = auth.NewSystemProvider()
	}
	sessionStore, err := sessionfile.New(paths.SessionPath)
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("configure session store: %w", err)
	}

	env.store = app.NewTaskStore(repo, uuid.NewString, time.Now, app.TaskStoreConfig{PollInterval: pollInterval})
	env.accounts = app.NewAccountService(repo, auth.BcryptHasher{Cost: bcrypt.DefaultCost}, issuer, federated, uuid.NewString, time.Now, app.AccountConfig{
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	})
	env.sessions = app.NewSessionProvider(env.accounts, sessionStore)
	logger.Debug("application services initialized", "poll_interval", pollInterval, "session_ttl", ttl, "federated", cfg.FederatedEnabled())
	return env, nil
}

// restoreIdentity loads the persisted session for non-interactive commands.
func (e *runtimeEnv) restoreIdentity(ctx context.Context) (domain.Identity, error) {
	identity, ok, err := e.sessions.Restore(ctx)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		return domain.Identity{}, errNotSignedIn
	}
	e.logger.Debug("session restored", "user_id", identity.ID)
	return identity, nil
}

// Close releases storage and log sinks.
func (e *runtimeEnv) Close() {
	if e == nil {
		return
	}
	if e.repo != nil {
		if err := e.repo.Close(); err != nil {
			e.logger.Warn("sqlite close failed", "db_path", e.cfg.Database.Path, "err", err)
		}
	}
	if err := e.logger.Close(); err != nil && e.logger.shouldLogToSink(e.logger.consoleSink) {
		e.logger.consoleSink.Warn("close runtime log sink failed", "err", err)
	}
}

// resolvePaths resolves platform paths for the app name and dev flag.
func resolvePaths(opts *globalOptions) (platform.Paths, error) {
	return platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
}

// resolveConfigAndDB applies flag, then environment, then platform defaults.
func resolveConfigAndDB(opts *globalOptions, paths platform.Paths) (string, string) {
	configPath := firstNonEmpty(opts.configPath, os.Getenv("TICKIT_CONFIG"), paths.ConfigPath)
	dbPath := firstNonEmpty(opts.dbPath, os.Getenv("TICKIT_DB_PATH"), paths.DBPath)
	return configPath, dbPath
}

// encodeSnapshot renders snap in the requested format.
func encodeSnapshot(snap app.Snapshot, format string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		encoded, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode snapshot json: %w", err)
		}
		return append(encoded, '\n'), nil
	case "yaml", "yml":
		encoded, err := yaml.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot yaml: %w", err)
		}
		return encoded, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// decodeSnapshot parses content in the requested format.
func decodeSnapshot(content []byte, format string) (app.Snapshot, error) {
	var snap app.Snapshot
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		if err := json.Unmarshal(content, &snap); err != nil {
			return app.Snapshot{}, fmt.Errorf("decode snapshot json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(content, &snap); err != nil {
			return app.Snapshot{}, fmt.Errorf("decode snapshot yaml: %w", err)
		}
	default:
		return app.Snapshot{}, fmt.Errorf("unsupported format %q", format)
	}
	return snap, nil
}

// formatFromPath guesses the snapshot format from a file extension.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// writeOutput writes encoded to stdout for "-" or to a file otherwise.
func writeOutput(outPath string, encoded []byte, stdout io.Writer) error {
	if outPath == "" || outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// parseBoolEnv parses input into a normalized form.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// runtimeLogger fans log events to a styled console sink and an optional dev-file sink.
type runtimeLogger struct {
	sinks          []*charmLog.Logger
	consoleSink    *charmLog.Logger
	consoleEnabled bool
	closeFile      func() error
	devLog         string
}

// newRuntimeLogger configures runtime log sinks from CLI/config state.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}

	if now == nil {
		now = time.Now
	}
	if stderr == nil {
		stderr = io.Discard
	}

	consoleLogger := charmLog.NewWithOptions(stderr, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.TextFormatter,
	})

	logger := &runtimeLogger{
		sinks:          []*charmLog.Logger{consoleLogger},
		consoleSink:    consoleLogger,
		consoleEnabled: true,
	}
	if !devMode || !cfg.DevFile.Enabled {
		return logger, nil
	}

	devLogPath, err := devLogFilePath(cfg.DevFile.Dir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(devLogPath), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	logFile, err := os.OpenFile(devLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}

	// Keep file output parseable and unstyled while preserving styled console logs.
	fileLogger := charmLog.NewWithOptions(logFile, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	logger.sinks = append(logger.sinks, fileLogger)
	logger.closeFile = logFile.Close
	logger.devLog = devLogPath
	return logger, nil
}

// DevLogPath returns the active dev log file path.
func (l *runtimeLogger) DevLogPath() string {
	if l == nil {
		return ""
	}
	return l.devLog
}

// Close closes the optional dev-file sink.
func (l *runtimeLogger) Close() error {
	if l == nil || l.closeFile == nil {
		return nil
	}
	return l.closeFile()
}

// SetConsoleEnabled toggles whether the console sink receives runtime events.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	if l == nil {
		return
	}
	l.consoleEnabled = enabled
}

// shouldLogToSink reports whether one sink should receive runtime output.
func (l *runtimeLogger) shouldLogToSink(sink *charmLog.Logger) bool {
	if l == nil || sink == nil {
		return false
	}
	if sink == l.consoleSink && !l.consoleEnabled {
		return false
	}
	return true
}

// log forwards one event at level to every enabled sink.
func (l *runtimeLogger) log(level charmLog.Level, msg any, keyvals ...any) {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if !l.shouldLogToSink(sink) {
			continue
		}
		sink.Log(level, msg, keyvals...)
	}
}

// Debug logs a debug event to all configured sinks.
func (l *runtimeLogger) Debug(msg any, keyvals ...any) {
	l.log(charmLog.DebugLevel, msg, keyvals...)
}

// Info logs an informational event to all configured sinks.
func (l *runtimeLogger) Info(msg any, keyvals ...any) {
	l.log(charmLog.InfoLevel, msg, keyvals...)
}

// Warn logs a warning event to all configured sinks.
func (l *runtimeLogger) Warn(msg any, keyvals ...any) {
	l.log(charmLog.WarnLevel, msg, keyvals...)
}

// Error logs an error event to all configured sinks.
func (l *runtimeLogger) Error(msg any, keyvals ...any) {
	l.log(charmLog.ErrorLevel, msg, keyvals...)
}

// devLogFilePath resolves a workspace-local dev log file path for the current run day.
func devLogFilePath(configDir, appName string, now time.Time) (string, error) {
	baseDir := strings.TrimSpace(configDir)
	if baseDir == "" {
		baseDir = ".tickit/log"
	}
	if !filepath.IsAbs(baseDir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		baseDir = filepath.Join(workspaceRootFrom(cwd), baseDir)
	}
	fileName := fmt.Sprintf("%s-%s.log", sanitizeLogFileStem(appName), now.Format("20060102"))
	return filepath.Join(filepath.Clean(baseDir), fileName), nil
}

// workspaceRootFrom resolves the nearest ancestor workspace marker for stable local log placement.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	if start == "" {
		return "."
	}
	dir := start
	for {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// hasWorkspaceMarker reports whether a directory looks like a project workspace root.
func hasWorkspaceMarker(dir string) bool {
	for _, marker := range []string{"go.mod", ".git"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// sanitizeLogFileStem normalizes app names into safe file-name segments.
func sanitizeLogFileStem(appName string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem := strings.Trim(replacer.Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		return platform.DefaultAppName
	}
	return stem
}
