package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/NyankoNyan/buildgen/pkg/buildinfo"
	"github.com/NyankoNyan/buildgen/pkg/cache"
	"github.com/NyankoNyan/buildgen/pkg/config"
	"github.com/NyankoNyan/buildgen/pkg/param"
	"github.com/NyankoNyan/buildgen/pkg/pipeline"
	"github.com/NyankoNyan/buildgen/pkg/plan"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "buildgen"

	// envRedisURL selects a Redis plan cache when --redis is not given.
	envRedisURL = "BUILDGEN_REDIS_URL"

	// envMongoURI selects a MongoDB plan store when --mongo is not given.
	envMongoURI = "BUILDGEN_MONGO_URI"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "buildgen generates destructible buildings from parametric configs",
		Long: `buildgen turns parametric building configurations into block placements and
joints for a physics engine: sections are laid out on grids, blocks are picked
from block groups, and neighboring sections are linked with breakable joints.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.evalCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool, redisURL string) (*pipeline.Runner, error) {
	cache, err := newCache(ctx, noCache, redisURL)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// newCache picks Redis when a URL is configured and the file cache
// otherwise.
func newCache(ctx context.Context, noCache bool, redisURL string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisURL == "" {
		redisURL = os.Getenv(envRedisURL)
	}
	if redisURL != "" {
		return cache.NewRedisCache(ctx, redisURL)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newStore opens the plan store named by kind: "file", "mongo" or "".
func newStore(ctx context.Context, kind, mongoURI string) (plan.Store, error) {
	if mongoURI == "" {
		mongoURI = os.Getenv(envMongoURI)
	}
	switch kind {
	case "":
		return nil, nil
	case "file":
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		return plan.NewFileStore(filepath.Join(dir, "plans"))
	case "mongo":
		return plan.NewMongoStore(ctx, plan.MongoConfig{URI: mongoURI})
	}
	return nil, fmt.Errorf("invalid store: %q (must be 'file' or 'mongo')", kind)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/buildgen/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory using XDG standard (~/.local/share/buildgen/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return pipeline.DefaultFormats
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseSets turns name=value flags into default parameters. Values use the
// YAML surface forms of configuration files.
func parseSets(sets []string) (map[string]param.Parameter, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	out := make(map[string]param.Parameter, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q (want name=value)", s)
		}
		p, err := config.ParseParameterText(value, config.FormatYAML)
		if err != nil {
			return nil, fmt.Errorf("--set %s: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}
