package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/CTAG07/keepfn/pkg/functions"
	"github.com/CTAG07/keepfn/pkg/templating"
	"github.com/mattn/go-isatty"
	slogmulti "github.com/samber/slog-multi"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

const usage = `usage: keepfn [-config path] <command> [arguments]

commands:
  list                                 list registered functions
  call <name> [args...] [-kw k=v]...   call a function
  render [-context file] [-string tmpl | name]
                                       render a template
  watch [-context file] [name]         reload templates on change
  version                              print build information
`

// app carries everything a command needs.
type app struct {
	config *Config
	logger *slog.Logger
	lib    *functions.Library
	stdout io.Writer
	stdin  io.Reader
	pretty bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("keepfn", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "./keepfn.json", "path to the configuration file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	command, rest := fs.Arg(0), fs.Args()[1:]

	if command == "version" {
		fmt.Fprintf(stdout, "keepfn %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		return 0
	}

	config, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	logger, closeLog, err := newLogger(config, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "failed to set up logging: %v\n", err)
		return 1
	}
	defer closeLog()

	lib, err := functions.NewLibrary(logger, config.Functions)
	if err != nil {
		logger.Error("Failed to create function library", "error", err)
		return 1
	}

	a := &app{
		config: config,
		logger: logger,
		lib:    lib,
		stdout: stdout,
		stdin:  stdin,
		pretty: isTerminal(stdout),
	}

	switch command {
	case "list":
		err = a.list()
	case "call":
		err = a.call(rest)
	case "render":
		err = a.render(rest)
	case "watch":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		err = a.watch(ctx, rest)
		stop()
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}
	if err != nil {
		logger.Error("Command failed", "command", command, "error", err)
		return 1
	}
	return 0
}

// newLogger builds a text logger on stderr, fanned out to a JSON log file
// when log_file is configured.
func newLogger(config *Config, stderr io.Writer) (*slog.Logger, func(), error) {
	level, err := parseLogLevel(config.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	console := slog.NewTextHandler(stderr, opts)
	if config.LogFile == "" {
		return slog.New(console), func() {}, nil
	}

	f, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slogmulti.Fanout(console, slog.NewJSONHandler(f, opts)))
	return logger, func() { _ = f.Close() }, nil
}

// newTemplateManager builds a template manager from the loaded configuration.
func (a *app) newTemplateManager() (*templating.TemplateManager, error) {
	tm, err := templating.NewTemplateManager(a.logger, a.lib, a.config.Templates)
	if err != nil {
		return nil, fmt.Errorf("failed to create template manager: %w", err)
	}
	return tm, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
