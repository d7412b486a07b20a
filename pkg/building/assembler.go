// Package building generates buildings from configuration in two phases.
//
// [Assembler.Assemble] walks a building's sections in declaration order.
// Each section is laid out by its algorithm, every cell is instantiated in
// the [Engine], and the section's inner links are joined right away. The
// result is a [Pending] value holding the potential links that cross
// section boundaries.
//
// [Assembler.FlushLinks] resolves those potential links with spatial
// queries. Engines usually index new colliders on their next physics step,
// so callers must let the engine tick before flushing; [LinkQueue] gives the
// two-tick delay the reference engine needs.
//
// Parameters are resolved through the scope chain
//
//	defaults -> config file -> building -> section
//
// where defaults are [Defaults] merged with [WithDefaults].
package building

import (
	"context"
	"fmt"
	"io"
	"maps"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/NyankoNyan/buildgen/pkg/config"
	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/geom"
	"github.com/NyankoNyan/buildgen/pkg/grid"
	"github.com/NyankoNyan/buildgen/pkg/observability"
	"github.com/NyankoNyan/buildgen/pkg/param"
)

// Assembler places the blocks of buildings into an [Engine].
//
// An Assembler keeps no state between calls besides its evaluator, whose
// random source is advanced by every RandomRange. Use one Assembler per
// goroutine.
type Assembler struct {
	lib        *Library
	engine     Engine
	eval       *param.Evaluator
	defaults   map[string]param.Parameter
	algorithms map[string]Algorithm
	logger     *log.Logger
}

// Option configures an [Assembler].
type Option func(*Assembler)

// WithDefaults overrides or extends the default parameter scope.
func WithDefaults(params map[string]param.Parameter) Option {
	return func(a *Assembler) { maps.Copy(a.defaults, params) }
}

// WithAlgorithm registers a layout algorithm under name.
func WithAlgorithm(name string, alg Algorithm) Option {
	return func(a *Assembler) { a.algorithms[name] = alg }
}

// WithEvaluator sets the evaluator, and so the random source, used for
// every parameter.
func WithEvaluator(e *param.Evaluator) Option { return func(a *Assembler) { a.eval = e } }

// WithLogger sets the logger for progress messages.
func WithLogger(l *log.Logger) Option { return func(a *Assembler) { a.logger = l } }

// NewAssembler returns an Assembler that looks configs up in lib and
// places blocks into engine.
func NewAssembler(lib *Library, engine Engine, opts ...Option) *Assembler {
	a := &Assembler{
		lib:        lib,
		engine:     engine,
		defaults:   Defaults(),
		algorithms: map[string]Algorithm{AlgorithmGrid: GridAlgorithm},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.eval == nil {
		a.eval = param.NewEvaluator(nil)
	}
	if a.logger == nil {
		a.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return a
}

// GlobalScope returns the defaults followed by the global parameters of f.
func (a *Assembler) GlobalScope(f *config.File) *param.Scope {
	return param.NewScope(a.defaults).Push(f.Parameters)
}

// Scope returns the scope the parameters of a section are resolved in. An
// empty sectionID gives the building scope.
func (a *Assembler) Scope(buildingID, sectionID string) (*param.Scope, error) {
	b, f, err := a.lib.Building(buildingID)
	if err != nil {
		return nil, err
	}
	scope := a.GlobalScope(f).Push(b.Parameters)
	if sectionID == "" {
		return scope, nil
	}
	for i := range b.Sections {
		if b.Sections[i].ID == sectionID {
			return scope.Push(b.Sections[i].Parameters), nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "building %q has no section %q", b.ID, sectionID)
}

// Evaluator returns the evaluator parameters are computed with.
func (a *Assembler) Evaluator() *param.Evaluator { return a.eval }

// Block is one instantiated cell of a section.
type Block struct {
	Handle    Handle
	BlockID   string
	Cell      int
	PointType grid.PointType
	Depth     int
	Pose      geom.Pose
}

// GeneratedSection is the outcome of assembling one section.
type GeneratedSection struct {
	Index   int
	Section *config.Section
	Pose    geom.Pose
	Size    grid.Size
	Blocks  []Block // indexed by cell id

	InnerLinks     []grid.Link
	PotentialLinks []grid.PotentialLink // anchors in section space
	// Limits of the inner links.
	Limits BreakLimits
	// Static is the evaluated isStatic, set by FlushLinks.
	Static bool

	scope *param.Scope
}

// AnchorWorld returns the world position of a potential link anchor.
func (s *GeneratedSection) AnchorWorld(pl grid.PotentialLink) mgl64.Vec3 {
	return s.Pose.Point(pl.Anchor)
}

// Scope returns the scope the section was evaluated in.
func (s *GeneratedSection) Scope() *param.Scope { return s.scope }

type blockRef struct {
	section int
	block   int
}

// Pending is an assembled building whose cross-section links have not been
// resolved yet. Pass it to [Assembler.FlushLinks] exactly once.
type Pending struct {
	Building *config.Building
	File     *config.File
	Sections []*GeneratedSection

	blocks  map[Handle]blockRef
	flushed bool
}

// BlockCount returns the number of instantiated blocks.
func (p *Pending) BlockCount() int { return len(p.blocks) }

// Lookup returns the section and block a handle belongs to.
func (p *Pending) Lookup(h Handle) (*GeneratedSection, *Block, bool) {
	ref, ok := p.blocks[h]
	if !ok {
		return nil, nil, false
	}
	s := p.Sections[ref.section]
	return s, &s.Blocks[ref.block], true
}

// Flushed reports whether FlushLinks has run.
func (p *Pending) Flushed() bool { return p.flushed }

// Assemble generates every section of the building with the given id. An
// empty id selects the first building in the library.
//
// A failing section aborts the building. Blocks placed by earlier sections
// stay in the engine; discarding them is the caller's job.
func (a *Assembler) Assemble(ctx context.Context, buildingID string) (p *Pending, err error) {
	b, f, err := a.lib.Building(buildingID)
	if err != nil {
		return nil, err
	}

	hooks := observability.Generation()
	hooks.OnAssembleStart(ctx, b.ID)
	start := time.Now()
	defer func() {
		sections, blocks := 0, 0
		if p != nil {
			sections, blocks = len(p.Sections), p.BlockCount()
		}
		hooks.OnAssembleComplete(ctx, b.ID, sections, blocks, time.Since(start), err)
	}()

	p = &Pending{
		Building: b,
		File:     f,
		blocks:   make(map[Handle]blockRef),
	}
	scope := a.GlobalScope(f).Push(b.Parameters)

	for i := range b.Sections {
		s := &b.Sections[i]
		gs, err := a.assembleSection(p, s, scope.Push(s.Parameters))
		if err != nil {
			return nil, fmt.Errorf("building %q: section %q: %w", b.ID, s.ID, err)
		}
		p.Sections = append(p.Sections, gs)
		a.logger.Debug("section assembled", "building", b.ID, "section", s.ID,
			"blocks", len(gs.Blocks), "links", len(gs.InnerLinks), "potential", len(gs.PotentialLinks))
	}
	return p, nil
}

func (a *Assembler) assembleSection(p *Pending, s *config.Section, scope *param.Scope) (*GeneratedSection, error) {
	pose, err := a.sectionPose(s, scope)
	if err != nil {
		return nil, err
	}
	mass, err := a.eval.Float(param.Ref(ParamBlockMass), scope)
	if err != nil {
		return nil, err
	}
	padding, err := a.eval.Float(param.Ref(ParamHitboxPadding), scope)
	if err != nil {
		return nil, err
	}
	if err := requireFinite(ParamBlockMass, mass); err != nil {
		return nil, err
	}
	if err := requireFinite(ParamHitboxPadding, padding); err != nil {
		return nil, err
	}
	limits, err := a.breakLimits(scope)
	if err != nil {
		return nil, err
	}

	if s.BlockGroupID == "" {
		return nil, errors.New(errors.ErrCodeNotFound, "section has no block group")
	}
	group, err := a.lib.BlockGroup(s.BlockGroupID)
	if err != nil {
		return nil, err
	}

	name, err := a.eval.String(param.Ref(ParamGenerationAlgorithm), scope)
	if err != nil {
		return nil, err
	}
	alg, ok := a.algorithms[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupportedAlgorithm, "generation algorithm %q is not supported", name)
	}
	layout, err := alg.Layout(s, a.eval, scope)
	if err != nil {
		return nil, err
	}

	gs := &GeneratedSection{
		Index:          len(p.Sections),
		Section:        s,
		Pose:           pose,
		Size:           layout.Size,
		Blocks:         make([]Block, len(layout.Points)),
		InnerLinks:     layout.Links,
		PotentialLinks: layout.PotentialLinks,
		Limits:         limits,
		scope:          scope,
	}
	for i, pt := range layout.Points {
		block, ok := group.Match(pt.PointType)
		if !ok {
			return nil, errors.New(errors.ErrCodeNoMatchingBlock,
				"block group %q has no block for point type %s", group.ID, pt.PointType)
		}
		world := pose.Compose(geom.Pose{Position: pt.Offset, Rotation: pt.Rotation})
		h, err := a.engine.Instantiate(BlockSpec{
			BlockID:       block.ID,
			Pose:          world,
			Mass:          mass,
			HitboxPadding: padding,
			Kinematic:     true,
		})
		if err != nil {
			return nil, fmt.Errorf("instantiate %s: %w", block.ID, err)
		}
		gs.Blocks[i] = Block{
			Handle:    h,
			BlockID:   block.ID,
			Cell:      i,
			PointType: pt.PointType,
			Depth:     pt.Depth,
			Pose:      world,
		}
		p.blocks[h] = blockRef{section: gs.Index, block: i}
	}

	for _, l := range layout.Links {
		if err := a.engine.Link(gs.Blocks[l.A].Handle, gs.Blocks[l.B].Handle, limits); err != nil {
			return nil, fmt.Errorf("link cells %d and %d: %w", l.A, l.B, err)
		}
	}
	return gs, nil
}

// sectionPose converts the configured position and rotation, where z is
// up, to engine space.
func (a *Assembler) sectionPose(s *config.Section, scope *param.Scope) (geom.Pose, error) {
	pos, err := a.eval.Vec3(s.Position, scope)
	if err != nil {
		return geom.Pose{}, fmt.Errorf("position: %w", err)
	}
	rot, err := a.eval.Vec3(s.Rotation, scope)
	if err != nil {
		return geom.Pose{}, fmt.Errorf("rotation: %w", err)
	}
	if err := requireFinite("position", pos[:]...); err != nil {
		return geom.Pose{}, err
	}
	if err := requireFinite("rotation", rot[:]...); err != nil {
		return geom.Pose{}, err
	}
	return geom.Pose{
		Position: geom.SwapYZ(mgl64.Vec3(pos)),
		Rotation: geom.Euler(rot[0], rot[2], rot[1]),
	}, nil
}

func (a *Assembler) breakLimits(scope *param.Scope) (BreakLimits, error) {
	force, err := a.eval.Float(param.Ref(ParamBreakForce), scope)
	if err != nil {
		return BreakLimits{}, err
	}
	torque, err := a.eval.Float(param.Ref(ParamBreakTorque), scope)
	if err != nil {
		return BreakLimits{}, err
	}
	// Infinite limits are valid and mean unbreakable.
	if math.IsNaN(force) || math.IsNaN(torque) {
		return BreakLimits{}, errors.New(errors.ErrCodeInvalidConfig,
			"%s and %s must be numbers, got %v and %v", ParamBreakForce, ParamBreakTorque, force, torque)
	}
	return BreakLimits{Force: unbreakable(force), Torque: unbreakable(torque)}, nil
}

func requireFinite(name string, vs ...float64) error {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be finite, got %v", name, vs)
		}
	}
	return nil
}

// unbreakable maps negative limits to +Inf.
func unbreakable(v float64) float64 {
	if v < 0 {
		return math.Inf(1)
	}
	return v
}
