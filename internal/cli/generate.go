package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NyankoNyan/buildgen/pkg/pipeline"
	"github.com/NyankoNyan/buildgen/pkg/plan"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	output      string   // output file (single artifact), base path, or "-" for stdout
	formats     []string // json, msgpack, dot, svg
	sets        []string // name=value default parameters
	noCache     bool
	interactive bool
	store       string // "", "file" or "mongo"
	redisURL    string
	mongoURI    string
}

// generateCommand creates the generate command.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		formatsStr string
		opts       generateOpts
		popts      pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "generate <config> [building]",
		Short: "Generate building plans from a config",
		Long: `Generate assembles every section of a building, links neighboring sections
and writes the resulting plan.

Without a building argument the first building is generated; --all generates
every building concurrently and --interactive picks one from a list.

Plans are cached by config content, building and seed, so repeated runs are
instant. Set BUILDGEN_REDIS_URL (or --redis) to share the cache.`,
		Example: `  buildgen generate towers.yaml twin -f json,svg
  buildgen generate towers.yaml --all -o out/plan
  buildgen generate towers.yaml --set floors=5 --seed 7 -o -`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if len(args) == 2 {
				popts.Building = args[1]
			}
			return c.runGenerate(cmd.Context(), args[0], popts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `output file (single artifact), base path, or "-" for stdout`)
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): json (default), msgpack, dot, svg (comma-separated)")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "override a default parameter (name=value, repeatable)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick the building from a list")
	cmd.Flags().StringVar(&opts.store, "store", "", "also save plans to a store: file, mongo")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for the plan cache (default $"+envRedisURL+")")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo", "", "MongoDB URI for --store mongo (default $"+envMongoURI+")")

	cmd.Flags().BoolVar(&popts.All, "all", false, "generate every building")
	cmd.Flags().Uint64Var(&popts.Seed, "seed", pipeline.DefaultSeed, "random seed for rand ranges")
	cmd.Flags().BoolVar(&popts.Blocks, "blocks", false, "draw one node per block in dot/svg output")
	cmd.Flags().BoolVar(&popts.Refresh, "refresh", false, "regenerate even if a cached plan exists")
	cmd.Flags().Float64Var(&popts.CellSize, "cell-size", 0, "broad-phase cell size of the reference engine")
	cmd.Flags().IntVar(&popts.Workers, "workers", pipeline.DefaultWorkers, "buildings generated at once with --all")

	return cmd
}

// runGenerate loads the config, runs the pipeline and writes the artifacts.
func (c *CLI) runGenerate(ctx context.Context, input string, popts pipeline.Options, opts generateOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	src, err := pipeline.LoadSource(input)
	if err != nil {
		return err
	}

	if opts.interactive {
		if popts.All {
			return fmt.Errorf("--interactive and --all are mutually exclusive")
		}
		file, err := src.Decode()
		if err != nil {
			return err
		}
		id, err := pickBuilding(file)
		if err != nil {
			return fmt.Errorf("building picker: %w", err)
		}
		if id == "" {
			printInfo("No building selected")
			return nil
		}
		popts.Building = id
	}

	defaults, err := parseSets(opts.sets)
	if err != nil {
		return err
	}
	popts.Defaults = defaults
	popts.Formats = opts.formats
	popts.Logger = logger

	toStdout := opts.output == "-"
	if toStdout && (popts.All || len(opts.formats) != 1) {
		return fmt.Errorf("stdout output needs exactly one building and one format")
	}

	runner, err := c.newRunner(ctx, opts.noCache, opts.redisURL)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Generating "+src.Name+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, src, popts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return err
	}
	if toStdout {
		spinner.Stop()
	} else {
		spinner.StopWithSuccess("Generated " + src.Name)
	}

	if err := savePlans(ctx, opts, result); err != nil {
		return err
	}

	single := len(result.Buildings) == 1 && len(opts.formats) == 1
	for _, br := range result.Buildings {
		p := br.Plan
		if !toStdout {
			printSuccess("%s", buildingLabel(p))
			fmt.Println(formatStats(br.Stats.Sections, br.Stats.Blocks, br.Stats.CrossLinks, br.Stats.Unmatched, br.CacheHit))
			if br.Stats.Sections > 1 && br.Stats.CrossLinks == 0 {
				printWarning("no sections of %s were linked; check positions and linkSearchRadius", p.BuildingID)
			}
		}
		for _, name := range opts.formats {
			data := br.Artifacts[name]
			if toStdout {
				_, err := os.Stdout.Write(data)
				return err
			}
			f, _ := plan.ParseFormat(name)
			path := artifactPath(opts.output, input, p.BuildingID, f, single)
			if err := writeArtifact(path, data); err != nil {
				return err
			}
			printFile(path)
		}
	}

	prog.done(fmt.Sprintf("Generated %d building(s)", len(result.Buildings)))
	if !popts.All && len(result.Buildings) == 1 {
		printNextStep("Inspect parameters", fmt.Sprintf("%s inspect %s", appName, input))
	}
	return nil
}

// savePlans writes every plan to the store selected by opts, if any.
func savePlans(ctx context.Context, opts generateOpts, result *pipeline.Result) error {
	store, err := newStore(ctx, opts.store, opts.mongoURI)
	if err != nil {
		return fmt.Errorf("open plan store: %w", err)
	}
	if store == nil {
		return nil
	}
	defer store.Close()

	for _, br := range result.Buildings {
		if err := store.Put(ctx, br.Plan); err != nil {
			return fmt.Errorf("store plan %s: %w", br.Plan.ID, err)
		}
		printDetail("stored plan %s", br.Plan.ID)
	}
	return nil
}

func buildingLabel(p *plan.Plan) string {
	if p.BuildingName == "" {
		return "[" + p.BuildingID + "]"
	}
	return "[" + p.BuildingID + "] " + p.BuildingName
}

// basePath derives the base output path. With no output it is the input
// path without its extension; a known plan format extension is stripped
// from output.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if _, err := plan.ParseFormat(strings.TrimPrefix(ext, ".")); err == nil && ext != "" {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// artifactPath names the file for one building and format. A single
// artifact goes to output as given. Otherwise files are named
// <base>.<building>.<ext>, or <dir>/<building>.<ext> when output names a
// directory with a trailing separator.
func artifactPath(output, input, buildingID string, format plan.Format, single bool) string {
	if single && output != "" {
		return output
	}
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)) {
		return filepath.Join(output, buildingID+"."+format.Ext())
	}
	return basePath(output, input) + "." + buildingID + "." + format.Ext()
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
