// Package cli implements the leakix command line tool.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/tphakala/go-leakix"
	"github.com/tphakala/go-leakix/internal/config"
	"github.com/tphakala/go-leakix/internal/logging"
)

// Command represents a CLI command.
type Command struct {
	Name        string
	Description string
	Run         func(ctx context.Context, s *session, args []string) error
	Subcommands map[string]*Command

	stdout     io.Writer
	stderr     io.Writer
	loadConfig func(path string) (*config.Config, error)
}

// Option customizes the root command.
type Option func(*Command)

// WithOutput redirects standard output and standard error.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Command) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithConfigLoader replaces config.Load.
func WithConfigLoader(load func(path string) (*config.Config, error)) Option {
	return func(c *Command) {
		c.loadConfig = load
	}
}

// NewRootCommand creates the root command.
func NewRootCommand(opts ...Option) *Command {
	root := &Command{
		Name:        "leakix",
		Description: "LeakIX API command line client",
		Subcommands: make(map[string]*Command),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		loadConfig:  config.Load,
	}
	for _, opt := range opts {
		opt(root)
	}

	for _, cmd := range []*Command{
		newSearchCommand(),
		newHostCommand(),
		newDomainCommand(),
		newSubdomainsCommand(),
		newPluginsCommand(),
		newBulkExportCommand(),
		newBulkServiceCommand(),
	} {
		root.Subcommands[cmd.Name] = cmd
	}

	return root
}

// Execute parses the global flags, loads the configuration and runs the
// selected subcommand.
func (c *Command) Execute(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet(c.Name, flag.ContinueOnError)
	flags.SetOutput(c.stderr)
	configPath := flags.String("config", "", "YAML configuration file")
	flags.Usage = func() { c.usage(flags) }

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	rest := flags.Args()
	if len(rest) == 0 || rest[0] == "help" {
		c.usage(flags)
		return nil
	}

	sub, ok := c.Subcommands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", rest[0])
	}

	cfg, err := c.loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.FilePath = cfg.Log.File
	logCfg.JSON = cfg.Log.JSON

	logger, cleanup, err := logging.Setup(logCfg, c.stderr)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer func() { _ = cleanup() }()

	s := &session{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		stdout:   c.stdout,
		stderr:   c.stderr,
	}

	logger.Debug("running command", slog.String("command", sub.Name))
	return sub.Run(ctx, s, rest[1:])
}

func (c *Command) usage(flags *flag.FlagSet) {
	fmt.Fprintf(c.stderr, "Usage: %s [-config file] <command> [flags] [args]\n\n", c.Name)
	fmt.Fprintf(c.stderr, "Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(c.stderr, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}

	fmt.Fprintf(c.stderr, "\nGlobal flags:\n")
	flags.PrintDefaults()
}

// session carries what a subcommand needs once configuration is loaded.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	stdout   io.Writer
	stderr   io.Writer
}

func (s *session) clientOptions() []leakix.ClientOption {
	opts := []leakix.ClientOption{
		leakix.WithBaseURL(s.cfg.BaseURL),
		leakix.WithAPIKey(s.cfg.APIKey),
		leakix.WithTimeout(s.cfg.Timeout),
		leakix.WithMaxRetries(s.cfg.MaxRetries),
		leakix.WithRetryDelay(s.cfg.RetryDelay),
		leakix.WithUserAgent("leakix-cli/" + leakix.Version),
		leakix.WithLogger(s.logger),
		leakix.WithMetrics(s.registry),
	}
	if s.cfg.RateLimit > 0 {
		opts = append(opts, leakix.WithRateLimit(rate.Limit(s.cfg.RateLimit), s.cfg.RateBurst))
	}
	return opts
}

func (s *session) client() (*leakix.Client, error) {
	return leakix.NewClient(s.clientOptions()...)
}

func (s *session) asyncClient() (*leakix.AsyncClient, error) {
	return leakix.NewAsyncClient(s.clientOptions()...)
}

// newFlagSet returns a subcommand flag set with the common output flags.
func (s *session) newFlagSet(name string) (*flag.FlagSet, *outputFlags) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(s.stderr)

	of := &outputFlags{}
	flags.StringVar(&of.path, "out", "", "Write output to file instead of stdout")
	flags.StringVar(&of.jq, "jq", "", "Filter output through a jq expression")
	flags.StringVar(&of.metricsFile, "metrics-file", "", "Write Prometheus metrics to file on exit")
	return flags, of
}

// parseFlags parses args, treating -h as a successful no-op.
func parseFlags(flags *flag.FlagSet, args []string) (bool, error) {
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// responseError describes a response that did not succeed.
func responseError(resp *leakix.RawResponse) error {
	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		return fmt.Errorf("API error (status %d): %w", resp.StatusCode(), resp.Err())
	}
	return fmt.Errorf("API error (status %d, body %s): %w", resp.StatusCode(), body, resp.Err())
}
