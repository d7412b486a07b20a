package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NyankoNyan/buildgen/internal/api"
	"github.com/NyankoNyan/buildgen/pkg/cache"
	"github.com/NyankoNyan/buildgen/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string
	store    string
	redisURL string
	mongoURI string
	prefix   string
	noCache  bool
	maxBody  int64
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:    ":8080",
		store:   "file",
		maxBody: api.DefaultMaxBodyBytes,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the plan API over HTTP",
		Long: `Serve runs the HTTP API: POST a config to /v1/plans to generate a plan,
then fetch it or its link graph by id.

Plans are kept in the file store by default; use --store mongo with --mongo
(or $` + envMongoURI + `) to share them between instances.`,
		Example: `  buildgen serve --addr :8080
  curl --data-binary @towers.yaml 'localhost:8080/v1/plans?building=twin'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.store, "store", opts.store, "plan store: file, mongo")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for the plan cache (default $"+envRedisURL+")")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "MongoDB URI for --store mongo (default $"+envMongoURI+")")
	cmd.Flags().StringVar(&opts.prefix, "cache-prefix", "", "namespace for cache keys shared with other deployments")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", opts.maxBody, "largest accepted config in bytes")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	if opts.store == "" {
		return fmt.Errorf("serve needs a plan store")
	}
	store, err := newStore(ctx, opts.store, opts.mongoURI)
	if err != nil {
		return fmt.Errorf("open plan store: %w", err)
	}
	defer store.Close()

	cc, err := newCache(ctx, opts.noCache, opts.redisURL)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	var keyer cache.Keyer
	if opts.prefix != "" {
		keyer = cache.NewScopedKeyer(nil, strings.TrimSuffix(opts.prefix, ":")+":")
	}
	runner := pipeline.NewRunner(cc, keyer, logger)
	defer runner.Close()

	srv := api.NewServer(runner, store,
		api.WithLogger(logger),
		api.WithMaxBodyBytes(opts.maxBody))

	printInfo("Serving on %s (store: %s)", opts.addr, opts.store)
	return srv.ListenAndServe(ctx, opts.addr)
}
