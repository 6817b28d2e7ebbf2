package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/eternalApril/moonmock"
	"github.com/eternalApril/moonmock/internal/config"
	"github.com/eternalApril/moonmock/internal/logger"
	"github.com/eternalApril/moonmock/internal/resp"
)

const (
	formatText = "text"
	formatRESP = "resp"
)

func main() {
	if err := app().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "moonmock",
		Usage: "in-memory Redis stand-in shell",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file or directory holding config.yaml",
				EnvVars: []string{"MOONMOCK_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "ZADD takes score/member pairs (overrides engine.strict)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "reply format: text or resp",
				Value:   formatText,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "repl",
				Usage:  "read commands line by line from stdin",
				Action: runREPL,
			},
			{
				Name:      "exec",
				Usage:     "run a single command and print the reply",
				ArgsUsage: "COMMAND [ARG...]",
				Action:    runExec,
			},
		},
		Action: runREPL,
	}
}

// setup builds the engine and reply writer from flags and configuration
func setup(c *cli.Context) (*shell, func(), error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	opts := moonmock.Options{
		Strict:               cfg.Engine.Strict || c.Bool("strict"),
		LazyExpire:           cfg.Engine.LazyExpire,
		BlockingTimeout:      cfg.Engine.BlockingTimeout,
		BlockingPollInterval: cfg.Engine.BlockingPollInterval,
		Logger:               log,
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		opts.Registerer = reg
		opts.MetricsNamespace = cfg.Metrics.Namespace
	}

	engine, err := moonmock.New(opts)
	if err != nil {
		return nil, nil, err
	}

	var w resp.Writer
	switch c.String("format") {
	case formatText:
		w = resp.NewTextWriter(c.App.Writer)
	case formatRESP:
		w = resp.NewEncoder(c.App.Writer)
	default:
		return nil, nil, fmt.Errorf("unknown format %q", c.String("format"))
	}

	log.Debug("engine ready",
		zap.Bool("strict", opts.Strict),
		zap.Bool("lazy_expire", opts.LazyExpire),
		zap.Bool("metrics", reg != nil),
	)

	cleanup := func() { log.Sync() } //nolint:errcheck
	return newShell(engine, w, reg), cleanup, nil
}

func runREPL(c *cli.Context) error {
	sh, cleanup, err := setup(c)
	if err != nil {
		return err
	}
	defer cleanup()

	return sh.run(c.App.Reader)
}

func runExec(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.ShowSubcommandHelp(c)
	}

	sh, cleanup, err := setup(c)
	if err != nil {
		return err
	}
	defer cleanup()

	args := c.Args().Slice()
	return sh.execute(args[0], args[1:])
}
