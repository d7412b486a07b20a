// Package pipeline runs building generation end to end.
//
// This package implements the complete decode → assemble → link → encode
// pipeline used by the CLI and the HTTP API. Centralizing it keeps the
// engine stepping, caching and output encoding identical across entry
// points.
//
// # Architecture
//
// Each building passes through four stages:
//
//  1. Assemble: Evaluate section parameters, lay out grids and place
//     blocks with their inner links
//  2. Link: Drive a [building.LinkQueue] against the reference engine so the
//     broad-phase steps before cross-section links are flushed
//  3. Plan: Capture the result as a [plan.Plan]
//  4. Encode: Produce the requested formats (JSON, msgpack, DOT, SVG)
//
// Every building gets its own engine and random source, so buildings
// generated concurrently with [Options.All] match the ones generated alone.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	src, err := pipeline.LoadSource("towers.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Execute(ctx, src, pipeline.Options{
//	    Building: "tower",
//	    Formats:  []string{"json", "svg"},
//	})
//	svg := result.Buildings[0].Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/NyankoNyan/buildgen/pkg/cache"
	"github.com/NyankoNyan/buildgen/pkg/param"
	"github.com/NyankoNyan/buildgen/pkg/plan"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)

	// DefaultMaxTicks bounds the link queue loop. Two ticks suffice for one
	// building; the margin covers callers that push more work.
	DefaultMaxTicks = 16

	// DefaultWorkers is the number of buildings generated at once with
	// Options.All.
	DefaultWorkers = 4
)

// DefaultFormats is used when no format is requested.
var DefaultFormats = []string{string(plan.FormatJSON)}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Building selects one building. Empty means the first one.
	Building string `json:"building,omitempty"`
	// All generates every building in the document.
	All bool `json:"all,omitempty"`

	Seed     uint64   `json:"seed,omitempty"`
	Formats  []string `json:"formats,omitempty"`
	Blocks   bool     `json:"blocks,omitempty"` // per-block DOT/SVG graphs
	CellSize float64  `json:"cell_size,omitempty"`
	MaxTicks int      `json:"max_ticks,omitempty"`
	Workers  int      `json:"workers,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger                `json:"-"`
	Defaults map[string]param.Parameter `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// ConfigHash is the content hash of the source document.
	ConfigHash string

	// Buildings holds one entry per generated building, in document order.
	Buildings []BuildingResult

	// Duration is the wall time of the whole run.
	Duration time.Duration
}

// BuildingResult is the output for one building.
type BuildingResult struct {
	Plan *plan.Plan

	// Artifacts contains encoded outputs keyed by format.
	Artifacts map[string][]byte

	Stats Stats

	// CacheHit reports whether the plan came from the cache.
	CacheHit bool
}

// Stats contains generation statistics for one building.
type Stats struct {
	Sections   int
	Blocks     int
	InnerLinks int
	CrossLinks int
	Unmatched  int
	Duplicates int
	Ticks      int

	AssembleTime time.Duration
	LinkTime     time.Duration
	EncodeTime   time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if _, err := plan.ParseFormat(format); err != nil {
		return fmt.Errorf("invalid format: %q (must be one of: %s)", format, formatList())
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

func formatList() string {
	names := make([]string, len(plan.Formats))
	for i, f := range plan.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.All && o.Building != "" {
		return fmt.Errorf("building and all are mutually exclusive")
	}
	if o.CellSize < 0 {
		return fmt.Errorf("cell_size must not be negative")
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats
	}
	o.Formats = slices.Clone(o.Formats)
	for i, f := range o.Formats {
		format, err := plan.ParseFormat(f)
		if err != nil {
			return fmt.Errorf("invalid format: %q (must be one of: %s)", f, formatList())
		}
		o.Formats[i] = string(format)
	}
	if o.MaxTicks <= 0 {
		o.MaxTicks = DefaultMaxTicks
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// PlanKeyOpts returns cache key options for plan generation.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	return cache.PlanKeyOpts{
		Seed:     o.Seed,
		Defaults: defaultsHash(o.Defaults),
	}
}

// defaultsHash hashes the printed form of the extra defaults in name order.
func defaultsHash(params map[string]param.Parameter) string {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	for _, name := range slices.Sorted(maps.Keys(params)) {
		fmt.Fprintf(&b, "%s=%s\n", name, params[name])
	}
	return cache.Hash([]byte(b.String()))
}
