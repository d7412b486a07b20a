package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/NyankoNyan/buildgen/pkg/building"
	"github.com/NyankoNyan/buildgen/pkg/cache"
	"github.com/NyankoNyan/buildgen/pkg/config"
	"github.com/NyankoNyan/buildgen/pkg/engine/memory"
	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/param"
	"github.com/NyankoNyan/buildgen/pkg/plan"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute generates the selected buildings of src.
func (r *Runner) Execute(ctx context.Context, src *Source, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid options: %v", err)
	}
	start := time.Now()

	file, err := src.Decode()
	if err != nil {
		return nil, err
	}
	ids, err := selectBuildings(file, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ConfigHash: src.Hash(),
		Buildings:  make([]BuildingResult, len(ids)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, id := range ids {
		g.Go(func() error {
			res, err := r.Building(gctx, file, result.ConfigHash, id, opts)
			if err != nil {
				return err
			}
			result.Buildings[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	return result, nil
}

func selectBuildings(file *config.File, opts Options) ([]string, error) {
	lib := building.NewLibrary(file)
	if opts.All {
		ids := lib.Buildings()
		if len(ids) == 0 {
			return nil, errors.New(errors.ErrCodeNotFound, "no buildings defined")
		}
		return ids, nil
	}
	b, _, err := lib.Building(opts.Building)
	if err != nil {
		return nil, err
	}
	return []string{b.ID}, nil
}

// Building generates one building of file, using the cache unless
// opts.Refresh is set. configHash identifies file in cache keys.
func (r *Runner) Building(ctx context.Context, file *config.File, configHash, id string, opts Options) (*BuildingResult, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid options: %v", err)
	}
	logger := opts.Logger.With("building", id)
	key := r.Keyer.PlanKey(configHash, id, opts.PlanKeyOpts())

	res := &BuildingResult{}
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if p, err := plan.UnmarshalMsgpack(data); err == nil {
				res.Plan, res.CacheHit = p, true
				res.Stats = planStats(p)
				logger.Debug("plan cache hit", "plan", p.ID)
			}
		} else if err != nil {
			logger.Warn("cache read failed", "err", err)
		}
	}

	if res.Plan == nil {
		p, stats, err := Generate(ctx, file, id, opts)
		if err != nil {
			return nil, err
		}
		res.Plan, res.Stats = p, stats
		if data, err := plan.MarshalMsgpack(p); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLPlan); err != nil {
				logger.Warn("cache write failed", "err", err)
			}
		}
	}

	encodeStart := time.Now()
	artifacts, err := Encode(res.Plan, opts)
	if err != nil {
		return nil, err
	}
	res.Artifacts = artifacts
	res.Stats.EncodeTime = time.Since(encodeStart)

	logger.Info("generated building",
		"sections", res.Stats.Sections,
		"blocks", res.Stats.Blocks,
		"cross_links", res.Stats.CrossLinks,
		"cached", res.CacheHit)
	return res, nil
}

// Generate assembles and links one building against a fresh reference
// engine, without caching.
func Generate(ctx context.Context, file *config.File, id string, opts Options) (*plan.Plan, Stats, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, Stats{}, errors.New(errors.ErrCodeInvalidInput, "invalid options: %v", err)
	}
	var stats Stats

	var worldOpts []memory.Option
	if opts.CellSize > 0 {
		worldOpts = append(worldOpts, memory.WithCellSize(opts.CellSize))
	}
	world := memory.New(worldOpts...)

	asmOpts := []building.Option{
		building.WithEvaluator(param.NewEvaluator(param.NewRand(opts.Seed))),
		building.WithLogger(opts.Logger),
	}
	if len(opts.Defaults) > 0 {
		asmOpts = append(asmOpts, building.WithDefaults(opts.Defaults))
	}
	asm := building.NewAssembler(building.NewLibrary(file), world, asmOpts...)

	start := time.Now()
	pending, err := asm.Assemble(ctx, id)
	if err != nil {
		return nil, stats, err
	}
	stats.AssembleTime = time.Since(start)

	start = time.Now()
	var report *building.LinkReport
	queue := &building.LinkQueue{}
	queue.Push(pending)
	for queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		if stats.Ticks == opts.MaxTicks {
			return nil, stats, errors.New(errors.ErrCodeInternal,
				"link queue for %q not drained after %d ticks", id, stats.Ticks)
		}
		stats.Ticks++
		for _, p := range queue.Tick() {
			if report, err = asm.FlushLinks(ctx, p); err != nil {
				return nil, stats, err
			}
		}
		world.Step()
	}
	stats.LinkTime = time.Since(start)

	p := plan.New(pending, report, opts.Seed)
	s := planStats(p)
	s.AssembleTime, s.LinkTime, s.Ticks = stats.AssembleTime, stats.LinkTime, stats.Ticks
	if report != nil {
		s.Unmatched, s.Duplicates = report.Unmatched, report.Duplicates
	}
	opts.Logger.Debug("links flushed", "building", id, "ticks", s.Ticks,
		"cross_links", s.CrossLinks, "unmatched", s.Unmatched)
	return p, s, nil
}

func planStats(p *plan.Plan) Stats {
	return Stats{
		Sections:   len(p.Sections),
		Blocks:     p.BlockCount(),
		InnerLinks: len(p.InnerLinks),
		CrossLinks: len(p.CrossLinks),
	}
}

// Encode renders p in every format of opts.
func Encode(p *plan.Plan, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))
	for _, name := range opts.Formats {
		f, err := plan.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		var data []byte
		switch f {
		case plan.FormatDOT:
			data = []byte(plan.ToDOT(p, plan.DOTOptions{Blocks: opts.Blocks}))
		case plan.FormatSVG:
			data, err = plan.RenderSVG(plan.ToDOT(p, plan.DOTOptions{Blocks: opts.Blocks}))
		default:
			data, err = plan.Encode(p, f)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f, err)
		}
		out[name] = data
	}
	return out, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
