// Package main is the console driver for the cmdqueue command queue.
//
// Every frame it asks whether a collision happened, enqueues a collision
// command on "1" and drains the queue before asking again.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/cmdqueue/internal/command/builtin"
	"github.com/dshills/cmdqueue/internal/command/script"
	"github.com/dshills/cmdqueue/internal/config"
	"github.com/dshills/cmdqueue/internal/dispatcher"
	"github.com/dshills/cmdqueue/internal/invoker"
	"github.com/dshills/cmdqueue/internal/listener"
	"github.com/dshills/cmdqueue/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds the command line flags. Zero values mean "not given".
type options struct {
	configPath  string
	dotenvPath  string
	logLevel    string
	maxPasses   int
	metrics     bool
	showVersion bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.showVersion {
		fmt.Printf("cmdqueue %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return 0
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, os.Stdin, os.Stdout, os.Stderr); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var opts options

	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.dotenvPath, "env-file", config.DefaultDotenvPath, "Path to .env file (empty to skip)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.IntVar(&opts.maxPasses, "max-passes", -1, "Passes per frame before giving up (0 = unbounded)")
	fs.BoolVar(&opts.metrics, "metrics", false, "Log execution metrics on exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	fs.BoolVar(&opts.showVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "cmdqueue - frame-driven command queue\n\n")
		fmt.Fprintf(out, "Usage: cmdqueue [options]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nInput, one line per frame:\n")
		fmt.Fprintf(out, "  1 | 0           collision happened or not\n")
		fmt.Fprintf(out, "  say <text>      print text through the queue\n")
		fmt.Fprintf(out, "  lua <source>    run a Lua chunk through the queue\n")
		fmt.Fprintf(out, "  q               quit\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// loadConfig loads the layered configuration and applies flags on top.
func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(config.WithFile(opts.configPath), config.WithDotenv(opts.dotenvPath))
	if err != nil {
		return cfg, err
	}

	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.maxPasses >= 0 {
		cfg.Invoker.MaxPasses = opts.maxPasses
	}
	if opts.metrics {
		cfg.Invoker.Metrics = true
	}
	return cfg, cfg.Validate()
}

// serve wires registry, invoker and dispatcher and runs the console loop.
func serve(ctx context.Context, cfg config.Config, in io.Reader, out, logOut io.Writer) (err error) {
	logger := logging.NewLogger(cfg.LoggerConfig(logOut))
	logging.SetLogger(logger)

	registry := listener.New(listener.WithLogger(logger))
	defer func() {
		err = errors.Join(err, registry.Close())
	}()

	if err := registry.Add(cfg.Dispatcher.Receiver, builtin.NewWriter(out, cfg.Dispatcher.Prefix)); err != nil {
		return err
	}
	ref, err := registry.Ref(cfg.Dispatcher.Receiver)
	if err != nil {
		return err
	}

	var hookOpts []invoker.Option
	if logger.Enabled(logging.LogLevelDebug) {
		hooks := invoker.NewHookManager()
		hooks.Register(invoker.NewLoggingHook(logger))
		hookOpts = append(hookOpts, invoker.WithHooks(hooks))
	}
	inv := invoker.New(cfg.InvokerConfig(), append(hookOpts, invoker.WithLogger(logger))...)
	defer func() {
		reportMetrics(logger, inv.Metrics())
		err = errors.Join(err, inv.Close())
	}()

	disp := dispatcher.New(inv,
		dispatcher.WithReceiver(ref),
		dispatcher.WithCatalog(dispatcher.BuiltinCatalog(script.WithTimeout(cfg.Dispatcher.ScriptTimeout))),
		dispatcher.WithLogger(logger),
	)

	logger.WithFields(map[string]any{
		"receiver":   cfg.Dispatcher.Receiver,
		"max_passes": cfg.Invoker.MaxPasses,
		"variants":   disp.Catalog().Variants(),
	}).Debug("console ready")

	c := &console{
		in:     in,
		out:    out,
		prompt: cfg.Dispatcher.Prompt,
		disp:   disp,
		inv:    inv,
		logger: logger,
	}
	return c.loop(ctx)
}

func reportMetrics(logger *logging.Logger, m *invoker.Metrics) {
	if m == nil {
		return
	}
	for _, cm := range m.Commands() {
		logger.WithFields(map[string]any{
			"command":    cm.Name,
			"executions": cm.ExecutionCount,
			"errors":     cm.ErrorCount,
			"panics":     cm.PanicCount,
			"avg":        cm.AverageDuration(),
		}).Info("command metrics")
	}
	logger.WithFields(map[string]any{
		"passes":     m.TotalPasses(),
		"executions": m.TotalExecutions(),
		"errors":     m.TotalErrors(),
	}).Info("queue metrics")
}
