// Package commands implements the querykit CLI commands.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/querykit/cli/internal/config"
	"github.com/satishbabariya/querykit/cli/internal/version"
	"github.com/satishbabariya/querykit/internal/debug"
	"github.com/satishbabariya/querykit/query/executor"
	"github.com/satishbabariya/querykit/runtime/client"
	"github.com/satishbabariya/querykit/runtime/pool"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configFile string
	url        string
	driver     string
	logLevel   string
	logFormat  string
}

// NewRootCommand creates the querykit root command with every subcommand
// attached.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	info := version.Get()

	rootCmd := &cobra.Command{
		Use:           "querykit",
		Short:         "Filter compiler and resilient SQL runner",
		Long:          "querykit compiles filters into parameterized SQL and runs statements through a retrying, transaction-aware connection layer",
		Version:       fmt.Sprintf("%s (commit: %s)", info.Version, info.GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Config file (default searches .querykit.yaml)")
	flags.StringVar(&opts.url, "url", "", "Database URL, overrides configuration")
	flags.StringVar(&opts.driver, "driver", "", "Driver name (postgres, mysql, sqlite3)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")

	rootCmd.AddCommand(NewWhereCommand())
	rootCmd.AddCommand(NewPingCommand(opts))
	rootCmd.AddCommand(NewSelectCommand(opts))
	rootCmd.AddCommand(NewExecCommand(opts))
	rootCmd.AddCommand(NewConfigCommand(opts))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig reads configuration and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configFile)
	if err != nil {
		return nil, err
	}

	if o.url != "" {
		cfg.DatabaseURL = o.url
		if o.driver == "" {
			cfg.Driver = config.DetectDriver(o.url)
		}
	}
	if o.driver != "" {
		cfg.Driver = o.driver
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	return cfg, nil
}

// session is an open database stack built from configuration.
type session struct {
	cfg      *config.Config
	logger   *debug.Logger
	pool     *pool.SQLPool
	acquirer *pool.Acquirer
	sweeper  *pool.Sweeper
	client   *client.Client
	executor *executor.Executor
}

// connect builds logger, pool, acquirer, sweeper and client. Logs go to
// logOut.
func (o *rootOptions) connect(ctx context.Context, logOut io.Writer) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, config.ErrNoDatabaseURL
	}

	logger, err := debug.New(cfg.LoggerConfig(logOut))
	if err != nil {
		return nil, err
	}

	sqlPool, err := pool.Open(cfg.Driver, cfg.DatabaseURL, cfg.PoolOptions())
	if err != nil {
		return nil, err
	}

	acquirer := pool.NewAcquirer(sqlPool, cfg.AcquirerOptions(logger)...)
	sweeper := pool.NewSweeper(acquirer, cfg.Sweep.Interval, cfg.Sweep.IdleThreshold)
	sweeper.Start(ctx)

	c := client.New(acquirer, client.WithMiddleware(client.LoggingMiddleware(logger)))

	return &session{
		cfg:      cfg,
		logger:   logger.With("driver", cfg.Driver),
		pool:     sqlPool,
		acquirer: acquirer,
		sweeper:  sweeper,
		client:   c,
		executor: executor.New(c),
	}, nil
}

// Close stops the sweeper and closes the pool.
func (s *session) Close() error {
	s.sweeper.Stop()
	return s.pool.Close()
}
