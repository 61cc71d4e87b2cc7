// Package cmd implements the CLI command structure for planconv.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/trabalhosfenix/planconv/internal/config"
	"github.com/trabalhosfenix/planconv/internal/export"
	"github.com/trabalhosfenix/planconv/internal/logging"
	"github.com/trabalhosfenix/planconv/internal/source"
	"github.com/trabalhosfenix/planconv/internal/ui"
	"github.com/trabalhosfenix/planconv/internal/utils"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// UsageError reports a command line that cannot be run. Usage has already
// been printed when it is returned.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// Run executes the planconv CLI.
func Run(ctx context.Context, args []string) error {
	// The first argument selects a command; anything else is a conversion.
	subcommand := "convert"
	remainingArgs := args
	if len(args) > 0 && isCommand(args[0]) {
		subcommand = args[0]
		remainingArgs = args[1:]
	}

	switch subcommand {
	case "convert":
		return convertCommand(ctx, remainingArgs)
	case "inspect":
		return inspectCommand(ctx, remainingArgs)
	case "formats":
		return formatsCommand()
	case "ls":
		return lsCommand(remainingArgs)
	case "tail":
		return tailCommand(ctx, remainingArgs)
	case "config":
		return configCommand(remainingArgs)
	case "version", "--version", "-v":
		return versionCommand()
	default:
		printUsage(stdout)
		return nil
	}
}

func isCommand(arg string) bool {
	switch arg {
	case "convert", "inspect", "formats", "ls", "tail", "config",
		"version", "--version", "-v", "help", "--help", "-h":
		return true
	}
	return false
}

// newFlagSet returns a flag set that leaves all output to the caller.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("planconv "+name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// loadConfig registers the global flags on fs and loads the layered
// configuration. Flag and argument errors are reported before any config
// file is read. A nil result with a nil error means help was printed.
func loadConfig(fs *flag.FlagSet, args []string, checks ...config.ArgsCheck) (*config.ConfigWithSources, error) {
	cws, err := config.LoadWithSources(fs, args, checks...)
	if err == nil {
		return cws, nil
	}
	if errors.Is(err, flag.ErrHelp) {
		printUsage(stdout)
		return nil, nil
	}
	var flagErr *config.FlagError
	if errors.As(err, &flagErr) {
		return nil, usageError(flagErr.Error())
	}
	return nil, fmt.Errorf("loading config: %w", err)
}

// exactArgs requires n positional arguments.
func exactArgs(n int, msg string) config.ArgsCheck {
	return func(args []string) error {
		if len(args) != n {
			return errors.New(msg)
		}
		return nil
	}
}

func noArgs(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	return nil
}

// usageError prints msg and the usage text to stderr.
func usageError(msg string) error {
	fmt.Fprintf(stderr, "planconv: %s\n\n", msg)
	printUsage(stderr)
	return &UsageError{Message: msg}
}

// convertCommand converts one project file to JSON.
func convertCommand(ctx context.Context, args []string) error {
	fs := newFlagSet("convert")
	cws, err := loadConfig(fs, args, exactArgs(2, "expected <input-file> <output-file>"))
	if err != nil || cws == nil {
		return err
	}
	cfg := cws.Config
	remaining := fs.Args()

	logger := newLogger(cfg)
	runLog := openRunLog(cfg, logger)
	defer runLog.Close()

	conv := &converter{cfg: cfg, logger: logger, runLog: runLog}
	count, err := conv.run(ctx, remaining[0], remaining[1])
	if err != nil {
		logEvent(logger, runLog, logging.Event{
			Type:   logging.EventError,
			Input:  remaining[0],
			Output: remaining[1],
			Error:  err.Error(),
		})
		return err
	}

	fmt.Fprintf(stdout, "OK: %d tasks exported\n", count)
	return nil
}

// converter runs the read, normalize, validate and write stages.
type converter struct {
	cfg    *config.Config
	logger *log.Logger
	runLog *logging.RunLogger
}

func (c *converter) run(ctx context.Context, input, output string) (int, error) {
	start := time.Now()
	project, format, err := source.Open(ctx, input, source.Options{
		Format:   c.cfg.Format,
		Encoding: c.cfg.Encoding,
	})
	if err != nil {
		return 0, err
	}
	c.logger.Debug("read project", "input", input, "format", format, "tasks", len(project.Tasks))
	logEvent(c.logger, c.runLog, logging.Event{
		Type:      logging.EventRead,
		Input:     input,
		Format:    string(format),
		Tasks:     len(project.Tasks),
		ElapsedMS: time.Since(start).Milliseconds(),
	})

	start = time.Now()
	doc := export.Normalize(project, export.Options{DateLayout: c.cfg.DateLayout})
	for _, w := range doc.Warnings {
		c.logger.Warn(w)
	}
	logEvent(c.logger, c.runLog, logging.Event{
		Type:      logging.EventNormalize,
		Tasks:     len(doc.Tasks),
		Warnings:  doc.Warnings,
		ElapsedMS: time.Since(start).Milliseconds(),
	})

	if c.cfg.Validate {
		start = time.Now()
		result := doc.Validate(export.ValidationOptions{SchemaPath: c.cfg.SchemaFile})
		for _, w := range result.Warnings {
			c.logger.Warn(w)
		}
		ev := logging.Event{
			Type:      logging.EventValidate,
			Warnings:  result.Warnings,
			ElapsedMS: time.Since(start).Milliseconds(),
		}
		if err := result.Err(); err != nil {
			ev.Error = err.Error()
			logEvent(c.logger, c.runLog, ev)
			return 0, err
		}
		logEvent(c.logger, c.runLog, ev)
	}

	start = time.Now()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := doc.Save(output); err != nil {
		return 0, err
	}
	c.logger.Info("exported", "output", output, "tasks", len(doc.Tasks))
	logEvent(c.logger, c.runLog, logging.Event{
		Type:      logging.EventWrite,
		Output:    output,
		Tasks:     len(doc.Tasks),
		ElapsedMS: time.Since(start).Milliseconds(),
	})

	return len(doc.Tasks), nil
}

func newLogger(cfg *config.Config) *log.Logger {
	return logging.NewConsoleFromConfig(stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
}

// openRunLog starts a run log when log_dir is set. Failing to create it only
// disables run logging.
func openRunLog(cfg *config.Config, logger *log.Logger) *logging.RunLogger {
	if cfg.LogDir == "" {
		return nil
	}
	wd, err := os.Getwd()
	if err != nil {
		logger.Warn("run log disabled", "err", err)
		return nil
	}
	runLog, err := logging.NewRunLogger(cfg.LogDir, wd)
	if err != nil {
		logger.Warn("run log disabled", "err", err)
		return nil
	}
	logger.Debug("run log", "path", runLog.LogPath)
	return runLog
}

func logEvent(logger *log.Logger, runLog *logging.RunLogger, ev logging.Event) {
	if err := runLog.Log(ev); err != nil {
		logger.Warn("write run log", "err", err)
	}
}

// inspectCommand opens the task browser for a project file or an exported document.
func inspectCommand(ctx context.Context, args []string) error {
	fs := newFlagSet("inspect")
	cws, err := loadConfig(fs, args, exactArgs(1, "expected <input-file>"))
	if err != nil || cws == nil {
		return err
	}
	cfg := cws.Config
	path := fs.Args()[0]

	return ui.Browse(ctx, documentLoader(cfg, path), ui.WithTitle(filepath.Base(path)))
}

// documentLoader reads exported JSON as is and converts anything else.
func documentLoader(cfg *config.Config, path string) ui.Loader {
	if utils.LowerExt(path) == "json" {
		return func(context.Context) (*export.Document, error) {
			return export.Load(path)
		}
	}
	return func(ctx context.Context) (*export.Document, error) {
		project, _, err := source.Open(ctx, path, source.Options{
			Format:   cfg.Format,
			Encoding: cfg.Encoding,
		})
		if err != nil {
			return nil, err
		}
		return export.Normalize(project, export.Options{DateLayout: cfg.DateLayout}), nil
	}
}

// formatsCommand lists the input formats.
func formatsCommand() error {
	fmt.Fprintln(stdout, "Input formats:")
	for _, f := range source.Formats() {
		fmt.Fprintf(stdout, "  %-6s %s\n", f, source.Describe(f))
	}
	fmt.Fprintf(stdout, "  %-6s %s\n", source.FormatMPP, source.Describe(source.FormatMPP))
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Use --format auto (default) to detect the format from content and extension.")
	return nil
}

// logDirFor resolves the run log directory of the current working directory.
// An empty result means run logging is disabled.
func logDirFor(cfg *config.Config) (string, error) {
	if cfg.LogDir == "" {
		return "", nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	logDir, err := logging.FindLogDir(cfg.LogDir, wd)
	if err != nil {
		return "", fmt.Errorf("finding log directory: %w", err)
	}
	return logDir, nil
}

// lsCommand lists recorded runs, newest first.
func lsCommand(args []string) error {
	fs := newFlagSet("ls")
	limit := fs.Int("n", 20, "Number of runs to show (0 = all)")
	cws, err := loadConfig(fs, args, noArgs)
	if err != nil || cws == nil {
		return err
	}

	logDir, err := logDirFor(cws.Config)
	if err != nil {
		return err
	}
	if logDir == "" {
		fmt.Fprintln(stdout, "Run logs are disabled. Set log_dir or pass --log-dir.")
		return nil
	}

	runs, err := logging.FindLogRuns(logDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs found.")
		return nil
	}
	if *limit > 0 && len(runs) > *limit {
		runs = runs[:*limit]
	}

	for _, run := range runs {
		fmt.Fprintf(stdout, "%s  %-9s  %s -> %s  (%s)\n",
			run.ModTime.Format("2006-01-02 15:04:05"),
			run.Status,
			orDash(run.Input),
			orDash(run.Output),
			run.RunID,
		)
	}
	return nil
}

// tailCommand prints the latest run log.
func tailCommand(ctx context.Context, args []string) error {
	fs := newFlagSet("tail")
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	cws, err := loadConfig(fs, args, noArgs)
	if err != nil || cws == nil {
		return err
	}

	logDir, err := logDirFor(cws.Config)
	if err != nil {
		return err
	}
	if logDir == "" {
		fmt.Fprintln(stdout, "Run logs are disabled. Set log_dir or pass --log-dir.")
		return nil
	}

	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(stdout, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(stdout)

	return logging.TailLog(ctx, stdout, logPath, *n, *follow)
}

// configCommand prints the effective configuration and where each value came from.
func configCommand(args []string) error {
	fs := newFlagSet("config")
	example := fs.Bool("example", false, "Print an example configuration file")
	cws, err := loadConfig(fs, args, noArgs)
	if err != nil || cws == nil {
		return err
	}
	if *example {
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	cfg := cws.Config
	fmt.Fprintln(stdout, "Configuration:")
	for _, key := range config.Fields() {
		value := cfg.Value(key)
		if value == "" {
			value = `""`
		}
		fmt.Fprintf(stdout, "  %-15s %-24s (%s)\n", key, value, cws.Sources[key])
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Files:")
	fmt.Fprintf(stdout, "  active:  %s\n", orDash(cws.GetConfigFile()))
	fmt.Fprintf(stdout, "  user:    %s\n", orDash(cfg.UserFile))
	fmt.Fprintf(stdout, "  project: %s\n", orDash(cfg.ProjectFile))
	fmt.Fprintf(stdout, "  dotenv:  %s\n", orDash(cfg.DotEnvFile))
	return nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "planconv version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "planconv - convert project schedules to JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  planconv [options] <input-file> <output-file>")
	fmt.Fprintln(w, "  planconv <command> [options] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert <in> <out>  Convert a project file (default command)")
	fmt.Fprintln(w, "  inspect <file>      Browse the tasks of a project or exported JSON file")
	fmt.Fprintln(w, "  formats             List supported input formats")
	fmt.Fprintln(w, "  ls [-n N]           List recorded runs")
	fmt.Fprintln(w, "  tail [-n N] [-f]    Print the latest run log")
	fmt.Fprintln(w, "  config [-example]   Show the effective configuration")
	fmt.Fprintln(w, "  version             Show version information")
	fmt.Fprintln(w, "  help                Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "An input file named like a command must be given with an explicit")
	fmt.Fprintln(w, "convert, e.g. planconv convert ls out.json.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	config.PrintFlagDefaults(w)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// ExitCode maps an error returned by Run to a process exit code.
func ExitCode(ctx context.Context, err error) int {
	if err == nil {
		return 0
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return 130
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		return 1
	}
	return 2
}

// PrintError writes err to w as an ERROR line followed by its causes.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "ERROR: %v\n", err)
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(w, "  caused by: %v\n", cause)
	}
}
