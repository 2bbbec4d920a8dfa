// Package main provides the CLI entrypoint for spookhunt.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/spookhunt/internal/catalog"
	"github.com/verte-zerg/spookhunt/internal/config"
	"github.com/verte-zerg/spookhunt/internal/digest"
	"github.com/verte-zerg/spookhunt/internal/effect"
	"github.com/verte-zerg/spookhunt/internal/logging"
	"github.com/verte-zerg/spookhunt/internal/model"
	"github.com/verte-zerg/spookhunt/internal/progress"
	"github.com/verte-zerg/spookhunt/internal/redisstore"
	"github.com/verte-zerg/spookhunt/internal/report"
	"github.com/verte-zerg/spookhunt/internal/sequencer"
	"github.com/verte-zerg/spookhunt/internal/store"
	"github.com/verte-zerg/spookhunt/internal/tui"
	"github.com/verte-zerg/spookhunt/internal/verify"
)

const (
	defaultBackend   = config.BackendSQLite
	defaultRedisAddr = "localhost:6379"
	defaultLogLevel  = "info"
)

var (
	huntCatalog   string
	huntNamespace string
	huntBackend   string
	huntDB        string
	redisAddr     string
	redisPassword string
	redisDB       int
	logLevel      string
	logFile       string

	catalogWatch     bool
	catalogExport    string
	statusNamespaces bool

	fileCfg config.FileConfig
	logger  = zap.NewNop()
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "spookhunt",
		Short:             "Terminal puzzle hunt",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
		RunE: runPlayCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&huntCatalog, "catalog", "", "catalog file (.toml or .yaml); built-in hunt when empty")
	flags.StringVar(&huntNamespace, "namespace", progress.DefaultNamespace, "progress namespace")
	flags.StringVar(&huntBackend, "backend", defaultBackend, "progress backend: sqlite, redis or memory")
	flags.StringVar(&huntDB, "db", config.DefaultDBPath(), "SQLite progress database")
	flags.StringVar(&redisAddr, "redis-addr", defaultRedisAddr, "Redis address")
	flags.StringVar(&redisPassword, "redis-password", "", "Redis password")
	flags.IntVar(&redisDB, "redis-db", 0, "Redis database number")
	flags.StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&logFile, "log-file", config.DefaultLogPath(), "log file")

	rootCmd.AddCommand(newSubmitCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newHashCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// setup resolves settings (flags over environment over config file) and
// builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		logErrf("ignoring .env: %v\n", err)
	}
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return err
	}
	envCfg.Overlay(&cfg)
	fileCfg = cfg

	applyStringConfig(cmd, "catalog", &huntCatalog, cfg.Hunt.Catalog)
	applyStringConfig(cmd, "namespace", &huntNamespace, cfg.Hunt.Namespace)
	applyStringConfig(cmd, "backend", &huntBackend, cfg.Hunt.Backend)
	applyStringConfig(cmd, "db", &huntDB, cfg.Hunt.DB)
	applyStringConfig(cmd, "redis-addr", &redisAddr, cfg.Redis.Addr)
	applyStringConfig(cmd, "redis-password", &redisPassword, cfg.Redis.Password)
	applyIntConfig(cmd, "redis-db", &redisDB, cfg.Redis.DB)
	applyStringConfig(cmd, "log-level", &logLevel, cfg.Log.Level)
	applyStringConfig(cmd, "log-file", &logFile, cfg.Log.File)

	if err := validateSettings(); err != nil {
		return err
	}
	if cmd.Annotations["logging"] == "off" {
		return nil
	}
	l, err := logging.New(logging.Options{Level: logLevel, File: logFile})
	if err != nil {
		return err
	}
	logger = l.With(zap.String("command", cmd.Name()))
	return nil
}

func validateSettings() error {
	switch huntBackend {
	case config.BackendSQLite, config.BackendRedis, config.BackendMemory:
	default:
		return fmt.Errorf("--backend must be one of sqlite, redis, memory")
	}
	if strings.TrimSpace(huntNamespace) == "" {
		return fmt.Errorf("--namespace must not be empty")
	}
	if redisDB < 0 {
		return fmt.Errorf("--redis-db must be >= 0")
	}
	if _, err := logging.ParseLevel(logLevel); err != nil {
		return err
	}
	return nil
}

type closer func()

// openProgress opens the configured progress backend.
func openProgress(ctx context.Context) (progress.Store, closer, error) {
	switch huntBackend {
	case config.BackendMemory:
		return progress.NewMemory(), func() {}, nil
	case config.BackendRedis:
		rs, err := redisstore.Open(ctx, redisstore.Options{Addr: redisAddr, Password: redisPassword, DB: redisDB}, huntNamespace, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open redis: %w", err)
		}
		return rs, func() {
			if cerr := rs.Close(); cerr != nil {
				logErrf("failed to close redis: %v\n", cerr)
			}
		}, nil
	default:
		st, err := store.Open(huntDB, huntNamespace, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db: %w", err)
		}
		return st, func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}, nil
	}
}

func loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.LoadOrDefault(huntCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

// defaultScare layers the config file's [scare] section over the catalog's
// default, or over the built-in default when the catalog has none.
func defaultScare(cat *catalog.Catalog) (*model.EffectConfig, error) {
	base := config.DefaultScare()
	if cat.DefaultScare != nil {
		base = *cat.DefaultScare
	}
	merged, err := fileCfg.Scare.Apply(base)
	if err != nil {
		return nil, err
	}
	return &merged, nil
}

func openSession(ctx context.Context, presenter sequencer.Presenter, navigator sequencer.Navigator) (*sequencer.Sequencer, closer, error) {
	ps, closeStore, err := openProgress(ctx)
	if err != nil {
		return nil, nil, err
	}
	seq, err := newSession(ctx, ps, presenter, navigator)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return seq, func() {
		seq.Close()
		closeStore()
	}, nil
}

func newSession(ctx context.Context, ps progress.Store, presenter sequencer.Presenter, navigator sequencer.Navigator) (*sequencer.Sequencer, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	scare, err := defaultScare(cat)
	if err != nil {
		return nil, err
	}
	seq, err := sequencer.New(ctx, cat.Challenges, ps, sequencer.Options{
		DefaultEffect: scare,
		Sampler:       effect.NewRoller(),
		Logger:        logger,
		Presenter:     presenter,
		Navigator:     navigator,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("session opened",
		zap.String("catalog", cat.Source),
		zap.String("backend", huntBackend),
		zap.String("namespace", huntNamespace),
	)
	return seq, nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	if !isTerminal(os.Stdout) || !isTerminal(os.Stdin) {
		return runConsolePlay(ctx, cmd)
	}
	seq, closeSession, err := openSession(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer closeSession()

	m := tui.NewModel(ctx, seq, tui.Options{Logger: logger, Bell: os.Stderr})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// runConsolePlay prints the active challenge when there is no terminal to
// draw on.
func runConsolePlay(ctx context.Context, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	console := report.NewConsole(out)
	seq, closeSession, err := openSession(ctx, console, console)
	if err != nil {
		return err
	}
	defer closeSession()

	snap := seq.Snapshot()
	lines := report.ChallengeLines(snap)
	lines = append(lines, "", "Answer with: spookhunt submit <answer>")
	return writeLines(cmd, lines)
}

func newSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit [answer]",
		Short: "Submit an answer for the active challenge",
		RunE:  runSubmitCmd,
	}
}

func runSubmitCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	console := report.NewConsole(cmd.OutOrStdout())
	seq, closeSession, err := openSession(ctx, console, console)
	if err != nil {
		return err
	}
	defer closeSession()

	if len(args) > 0 {
		if err := seq.ChangeAnswer(ctx, strings.Join(args, " ")); err != nil {
			return err
		}
	}
	out, err := seq.Submit(ctx)
	if err != nil {
		return err
	}
	switch {
	case out.Completed:
		return nil
	case out.Correct:
		lines := []string{"Correct!"}
		if out.Advanced {
			lines = append(lines, "")
			lines = append(lines, report.ChallengeLines(seq.Snapshot())...)
		}
		return writeLines(cmd, lines)
	default:
		return writeLines(cmd, []string{out.Message})
	}
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show progress",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
	cmd.Flags().BoolVar(&statusNamespaces, "namespaces", false, "list namespaces with saved progress (sqlite)")
	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	ps, closeStore, err := openProgress(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	st, isSQLite := ps.(*store.Store)
	if statusNamespaces {
		if !isSQLite {
			return fmt.Errorf("--namespaces needs the sqlite backend")
		}
		names, err := st.Namespaces(ctx)
		if err != nil {
			return fmt.Errorf("failed to list namespaces: %w", err)
		}
		return writeLines(cmd, names)
	}

	seq, err := newSession(ctx, ps, nil, nil)
	if err != nil {
		return err
	}
	defer seq.Close()

	width := 0
	if isTerminal(os.Stdout) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}
	lines := report.StatusLines(seq.Snapshot(), width)
	if isSQLite {
		if at, ok, err := st.UpdatedAt(ctx); err != nil {
			logger.Warn("failed to read save time", zap.Error(err))
		} else if ok {
			lines = append(lines, "Last saved: "+at.Local().Format(time.DateTime))
		}
	}
	return writeLines(cmd, lines)
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all progress",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	seq, closeSession, err := openSession(ctx, nil, nil)
	if err != nil {
		return err
	}
	defer closeSession()
	if err := seq.ResetAll(ctx); err != nil {
		return err
	}
	return writeLines(cmd, []string{"Progress cleared."})
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "hash <text>",
		Short:       "Print the answer digest for catalog authoring",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"logging": "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeLines(cmd, []string{digest.Sum(digest.Normalize(strings.Join(args, " ")))})
		},
	}
}

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate and list the catalog",
		Args:  cobra.NoArgs,
		RunE:  runCatalogCmd,
	}
	cmd.Flags().BoolVar(&catalogWatch, "watch", false, "re-validate when the catalog file changes")
	cmd.Flags().StringVar(&catalogExport, "export", "", "write the built-in catalog to this path and exit")
	return cmd
}

func runCatalogCmd(cmd *cobra.Command, _ []string) error {
	if catalogExport != "" {
		if err := writeFileAtomic(catalogExport, catalog.DefaultSource()); err != nil {
			return fmt.Errorf("failed to export catalog: %w", err)
		}
		logErrf("Wrote %s\n", catalogExport)
		return nil
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	if err := writeLines(cmd, catalogLines(cat)); err != nil {
		return err
	}
	if !catalogWatch {
		return nil
	}
	if huntCatalog == "" {
		return fmt.Errorf("--watch needs a catalog file (--catalog)")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	logErrf("Watching %s (ctrl+c to stop)\n", huntCatalog)
	return catalog.Watch(ctx, huntCatalog, catalog.DefaultDebounce, logger, func(c *catalog.Catalog, err error) {
		if err != nil {
			logErrf("invalid catalog: %v\n", err)
			return
		}
		if werr := writeLines(cmd, append([]string{""}, catalogLines(c)...)); werr != nil {
			logErrf("%v\n", werr)
		}
	})
}

func catalogLines(cat *catalog.Catalog) []string {
	rows := make([][]string, 0, len(cat.Challenges))
	for _, ch := range cat.Challenges {
		scare := "-"
		if ch.Scare != nil && ch.Scare.Enabled {
			scare = strconv.FormatFloat(ch.Scare.EffectiveProbability(), 'f', -1, 64)
			if ch.Scare.MazeGate {
				scare += " maze"
			}
		}
		rows = append(rows, []string{strconv.Itoa(ch.ID), ch.Title, string(verify.ModeOf(ch)), scare})
	}
	lines := report.FormatTable([]string{"ID", "Title", "Check", "Scare"}, rows, report.TableOptions{Right: map[int]bool{0: true}})
	return append(lines, "", fmt.Sprintf("%d challenges from %s", len(cat.Challenges), cat.Source))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "config",
		Short:       "Create/open config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"logging": "off"},
		RunE:        runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func writeLines(cmd *cobra.Command, lines []string) error {
	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "catalog-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	def := config.DefaultScare()
	return fmt.Sprintf(`# spookhunt configuration
# Uncomment a value to enable it. CLI flags and SPOOKHUNT_* variables override config values.

[hunt]
# catalog = "/path/to/hunt.toml"   # Catalog file (.toml or .yaml); built-in hunt when unset
# namespace = %q      # Progress namespace
# backend = %q                 # sqlite, redis or memory
# db = %q

[redis]
# addr = %q
# password = ""
# db = 0

[scare]
# Session-wide scare for challenges without their own.
# enabled = %t
# probability = %.2f
# duration-ms = %d
# image = %q
# sound = ""
# overlay-text = ""

[log]
# level = %q
# file = %q
`,
		progress.DefaultNamespace,
		defaultBackend,
		config.DefaultDBPath(),
		defaultRedisAddr,
		def.Enabled,
		def.EffectiveProbability(),
		def.Duration.Milliseconds(),
		def.ImageURL,
		defaultLogLevel,
		config.DefaultLogPath(),
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
