// Package cmd implements the CLI command structure for tasklist.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/logging"
	"github.com/nibzard/tasklist-go/internal/storage"
	"github.com/nibzard/tasklist-go/internal/tasklistdir"
	"github.com/nibzard/tasklist-go/internal/todo"
	"github.com/nibzard/tasklist-go/internal/ui"
	"github.com/nibzard/tasklist-go/internal/widget"
)

// Version is set via ldflags at build time.
var Version = "dev"

// stdout receives command output. Tests replace it.
var stdout io.Writer = os.Stdout

// Run executes the tasklist CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(fs, stdout)
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(cfg, remainingArgs)
	case "add":
		return addCommand(cfg, remainingArgs)
	case "rm", "delete":
		return rmCommand(cfg, remainingArgs)
	case "doctor":
		return doctorCommand(cws, remainingArgs)
	case "tail":
		return tailCommand(ctx, cfg, remainingArgs)
	case "init":
		return initCommand(remainingArgs)
	case "completion":
		return completionCommand(remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// session is an open store, its widget, and the run log.
type session struct {
	widget *widget.Widget
	store  storage.Store
	run    *logging.RunLogger
}

func openSession(cfg *config.Config, command string) (*session, error) {
	run, err := logging.NewRunLogger(logging.Options{
		BaseDir: cfg.LogDir,
		WorkDir: cfg.ProjectRoot,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("creating run logger: %w", err)
	}
	logger := run.Logger.With("cmd", command)
	logger.Info("starting", "version", Version, "store", cfg.StorageBackend, "path", cfg.StoragePath, "encrypted", cfg.Encrypt)

	store, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		logger.Error("open store", "err", err)
		run.Close()
		return nil, fmt.Errorf("opening %s store: %w", cfg.StorageBackend, err)
	}

	w := widget.New(store, cfg.StorageKey,
		widget.WithLogger(logger),
		widget.WithPersistToggle(cfg.PersistToggle),
	)
	return &session{widget: w, store: store, run: run}, nil
}

func (s *session) logger() *log.Logger {
	return s.run.Logger
}

func (s *session) Close() error {
	err := s.store.Close()
	if cerr := s.run.Close(); err == nil {
		err = cerr
	}
	return err
}

func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist tui", flag.ContinueOnError)
	noAlt := fs.Bool("no-alt-screen", false, "Render inline instead of using the alternate screen (disables mouse)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	s, err := openSession(cfg, "tui")
	if err != nil {
		return err
	}
	defer s.Close()

	if !ui.IsTTY(os.Stdout) {
		// Not a terminal: print the list once.
		fmt.Fprint(stdout, s.widget.View().String())
		return nil
	}
	err = ui.RunTUI(ctx, s.widget,
		ui.WithMouse(cfg.Mouse),
		ui.WithAltScreen(!*noAlt),
	)
	if err != nil {
		s.logger().Error("tui exited", "err", err)
		return err
	}
	s.logger().Info("tui closed", "tasks", len(s.widget.Tasks()))
	return nil
}

func lsCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist ls", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Show task ids")
	asJSON := fs.Bool("json", false, "Print the stored JSON value")
	openOnly := fs.Bool("open", false, "Only show tasks that are not completed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	s, err := openSession(cfg, "ls")
	if err != nil {
		return err
	}
	defer s.Close()

	tasks := s.widget.Tasks()
	if *openOnly {
		var filtered todo.List
		for _, t := range tasks {
			if !t.Completed {
				filtered = append(filtered, t)
			}
		}
		tasks = filtered
	}

	if *asJSON {
		out, err := todo.Encode(tasks)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, out)
		return nil
	}

	if len(tasks) == 0 {
		fmt.Fprintln(stdout, "No tasks.")
		return nil
	}
	for _, t := range tasks {
		printTask(stdout, t, *verbose)
	}
	open, done := tasks.Counts()
	fmt.Fprintf(stdout, "\n%d open, %d done\n", open, done)
	return nil
}

func addCommand(cfg *config.Config, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		return fmt.Errorf("add: task text is required")
	}

	s, err := openSession(cfg, "add")
	if err != nil {
		return err
	}
	defer s.Close()

	s.widget.SetInput(text)
	if _, err := s.widget.Add(); err != nil {
		return err
	}
	tasks := s.widget.Tasks()
	added := tasks[len(tasks)-1]
	fmt.Fprintf(stdout, "Added %s: %s\n", added.ID, added.Text)
	return nil
}

func rmCommand(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("rm: expected exactly one task id")
	}

	s, err := openSession(cfg, "rm")
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := resolveID(s.widget.Tasks(), args[0])
	if err != nil {
		return err
	}
	task, _ := s.widget.Tasks().Find(id)
	if _, err := s.widget.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Removed %s: %s\n", task.ID, task.Text)
	return nil
}

// resolveID matches a full id or a unique id prefix.
func resolveID(tasks todo.List, ref string) (string, error) {
	if _, ok := tasks.Find(ref); ok {
		return ref, nil
	}
	var matches []string
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task with id %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func doctorCommand(cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("tasklist doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	cfg := cws.Config

	fmt.Fprintln(stdout, "Tasklist Doctor")
	fmt.Fprintln(stdout, "===============")
	fmt.Fprintln(stdout)

	allOK := true

	fmt.Fprintln(stdout, "Config:")
	if len(cws.Files) == 0 {
		fmt.Fprintln(stdout, "  Files: (none, using defaults)")
	}
	for _, f := range cws.Files {
		fmt.Fprintf(stdout, "  File: %s\n", f)
	}
	if active := cws.GetConfigFile(); active != "" {
		fmt.Fprintf(stdout, "  Active: %s\n", active)
	}
	fields := make([]string, 0, len(cws.Sources))
	for field := range cws.Sources {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		source := cws.Sources[field]
		if source == config.SourceDefault && !*verbose {
			continue
		}
		fmt.Fprintf(stdout, "  %s: %s\n", field, source)
	}
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, "Store: %s", cfg.StorageBackend)
	if cfg.StoragePath != "" {
		fmt.Fprintf(stdout, " (%s)", cfg.StoragePath)
	}
	fmt.Fprintln(stdout)
	if cfg.Encrypt {
		fmt.Fprintf(stdout, "  Encryption key: %s\n", cfg.EncryptKeyFile)
	}

	store, err := storage.Open(cfg.StorageOptions())
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Open failed: %v\n", err)
		allOK = false
	} else {
		defer store.Close()
		fmt.Fprintln(stdout, "  ✅ OK")
		if !checkStoredValue(store, cfg.StorageKey, *verbose) {
			allOK = false
		}
	}
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, "Log directory: %s\n", cfg.LogDir)
	if _, err := os.Stat(cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(stdout, "  ⚠️  Not found (will be created on first run)")
		} else {
			fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else {
		fmt.Fprintln(stdout, "  ✅ OK")
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(stdout, "  ❌ %v\n", err)
		allOK = false
	}
	if _, err := logging.ParseFormat(cfg.LogFormat); err != nil {
		fmt.Fprintf(stdout, "  ❌ %v\n", err)
		allOK = false
	}
	fmt.Fprintln(stdout)

	if allOK {
		fmt.Fprintln(stdout, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(stdout, "⚠️  Some checks failed. The widget will start with an empty list.")
	return fmt.Errorf("doctor checks failed")
}

// checkStoredValue reports whether the value under key decodes cleanly.
// A missing key is fine.
func checkStoredValue(store storage.Store, key string, verbose bool) bool {
	fmt.Fprintf(stdout, "Key: %s\n", key)
	value, ok, err := store.GetItem(key)
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Read failed: %v\n", err)
		return false
	}
	if !ok {
		fmt.Fprintln(stdout, "  ⚠️  Not set (the list starts empty)")
		return true
	}
	tasks, err := todo.Decode(value)
	if err != nil {
		fmt.Fprintln(stdout, "  ❌ Validation failed:")
		for _, e := range unjoin(err) {
			fmt.Fprintf(stdout, "     - %v\n", e)
		}
		return false
	}
	open, done := tasks.Counts()
	fmt.Fprintf(stdout, "  ✅ Valid (%d open, %d done)\n", open, done)
	if verbose {
		for _, t := range tasks {
			printTask(stdout, t, true)
		}
	}
	return true
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func tailCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist tail", flag.ContinueOnError)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logDir, err := logging.FindLogDir(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
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

func initCommand(args []string) error {
	fs := flag.NewFlagSet("tasklist init", flag.ContinueOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := tasklistdir.DefaultConfigFile
	if fs.NArg() == 1 {
		path = fs.Arg(0)
	} else if fs.NArg() > 1 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}

	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(config.ExampleConfig()), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

func versionCommand() error {
	fmt.Fprintf(stdout, "tasklist version %s\n", Version)
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Tasklist - A persistent to-do list for the terminal")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasklist [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui             Open the interactive list (default command)")
	fmt.Fprintln(w, "  ls              Print the stored list")
	fmt.Fprintln(w, "  add <text...>   Add a task")
	fmt.Fprintln(w, "  rm <id>         Delete a task by id or unique id prefix")
	fmt.Fprintln(w, "  doctor          Check config, store, and stored value")
	fmt.Fprintln(w, "  tail            Tail the latest log file")
	fmt.Fprintln(w, "  init [file]     Write an example tasklist.toml")
	fmt.Fprintln(w, "  completion <sh> Print a shell completion script")
	fmt.Fprintln(w, "  version         Show version information")
	fmt.Fprintln(w, "  help            Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tui Options:")
	fmt.Fprintln(w, "  -no-alt-screen")
	fmt.Fprintln(w, "        Render inline instead of using the alternate screen (disables mouse)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -v      Show task ids")
	fmt.Fprintln(w, "  -open   Only show open tasks")
	fmt.Fprintln(w, "  -json   Print the stored JSON value")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options:")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
}

func printTask(w io.Writer, t todo.Task, verbose bool) {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	if verbose {
		fmt.Fprintf(w, "[%s] %s  (%s)\n", mark, t.Text, t.ID)
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", mark, t.Text)
}
