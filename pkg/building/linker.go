package building

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/geom"
	"github.com/NyankoNyan/buildgen/pkg/observability"
	"github.com/NyankoNyan/buildgen/pkg/param"
)

// CrossLink is a joint created between blocks of two sections.
type CrossLink struct {
	FromSection, FromCell int
	ToSection, ToCell     int
	Limits                BreakLimits
}

// LinkReport summarizes a [Assembler.FlushLinks] run.
type LinkReport struct {
	Links []CrossLink
	// Unmatched counts potential links with no block of another section
	// within the search radius.
	Unmatched int
	// Duplicates counts matches skipped because the same ordered pair was
	// already joined.
	Duplicates int
	// Activated counts blocks handed to the physics simulation.
	Activated int
}

type linkKey struct {
	from, to Handle
}

// FlushLinks resolves the potential links of every section of p.
//
// Sections are processed in order. For each potential link the engine is
// queried around the anchor's world position with the section's
// linkSearchRadius. Among the hits that belong to another section of the
// same building, the block closest to the link's own block is joined. A
// pair is joined once per direction: the key is the ordered pair
// (source, target), so two sections whose anchors reach each other end up
// with a joint each way. Afterwards the section's blocks are activated
// unless isStatic is true.
func (a *Assembler) FlushLinks(ctx context.Context, p *Pending) (report *LinkReport, err error) {
	if p.flushed {
		return nil, errors.New(errors.ErrCodeInvalidInput, "links of building %q already flushed", p.Building.ID)
	}
	p.flushed = true

	hooks := observability.Generation()
	start := time.Now()
	report = &LinkReport{}
	defer func() {
		hooks.OnLinksFlushed(ctx, p.Building.ID, len(report.Links), report.Unmatched, time.Since(start), err)
	}()

	linked := make(map[linkKey]bool)
	for _, s := range p.Sections {
		if err := a.flushSection(p, s, linked, report); err != nil {
			return report, fmt.Errorf("building %q: section %q: %w", p.Building.ID, s.Section.ID, err)
		}
	}
	a.logger.Debug("links flushed", "building", p.Building.ID,
		"linked", len(report.Links), "unmatched", report.Unmatched, "duplicates", report.Duplicates)
	return report, nil
}

func (a *Assembler) flushSection(p *Pending, s *GeneratedSection, linked map[linkKey]bool, report *LinkReport) error {
	radius, err := a.eval.Float(param.Ref(ParamLinkSearchRadius), s.scope)
	if err != nil {
		return err
	}
	static, err := a.eval.Bool(param.Ref(ParamIsStatic), s.scope)
	if err != nil {
		return err
	}
	limits, err := a.breakLimits(s.scope)
	if err != nil {
		return err
	}

	for _, pl := range s.PotentialLinks {
		source := &s.Blocks[pl.Block]
		target, ok := a.nearest(p, s, source, s.AnchorWorld(pl), radius)
		if !ok {
			report.Unmatched++
			continue
		}
		key := linkKey{from: source.Handle, to: target.Handle}
		if linked[key] {
			report.Duplicates++
			continue
		}
		if err := a.engine.Link(source.Handle, target.Handle, limits); err != nil {
			return fmt.Errorf("link cell %d: %w", source.Cell, err)
		}
		linked[key] = true
		ts, _, _ := p.Lookup(target.Handle)
		report.Links = append(report.Links, CrossLink{
			FromSection: s.Index,
			FromCell:    source.Cell,
			ToSection:   ts.Index,
			ToCell:      target.Cell,
			Limits:      limits,
		})
	}

	s.Static = static
	if static {
		return nil
	}
	for _, b := range s.Blocks {
		if err := a.engine.Activate(b.Handle); err != nil {
			return fmt.Errorf("activate cell %d: %w", b.Cell, err)
		}
		report.Activated++
	}
	return nil
}

// nearest returns the block of another section that lies closest to source
// among the blocks found around anchor. Handles the building does not own
// are ignored.
func (a *Assembler) nearest(p *Pending, s *GeneratedSection, source *Block, anchor mgl64.Vec3, radius float64) (*Block, bool) {
	var best *Block
	bestDist := math.Inf(1)
	for _, h := range a.engine.Query(anchor, radius) {
		ts, tb, ok := p.Lookup(h)
		if !ok || ts.Index == s.Index {
			continue
		}
		if d := geom.DistSq(source.Pose.Position, tb.Pose.Position); d < bestDist {
			best, bestDist = tb, d
		}
	}
	return best, best != nil
}
