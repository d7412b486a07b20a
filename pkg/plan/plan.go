// Package plan records the outcome of generating one building.
//
// A [Plan] is a flat, serializable description of every placed block and
// every joint: what a game server needs to rebuild the building without
// evaluating the configuration again. Plans are encoded as JSON or msgpack,
// drawn as link graphs with Graphviz, and kept in a [Store].
//
// Break limits are stored as given, except that unbreakable joints use -1,
// the same convention configuration files use.
package plan

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/NyankoNyan/buildgen/pkg/building"
	"github.com/NyankoNyan/buildgen/pkg/geom"
)

// Plan is a generated building.
type Plan struct {
	ID           string    `json:"id" bson:"_id"`
	BuildingID   string    `json:"building_id" bson:"building_id"`
	BuildingName string    `json:"building_name,omitempty" bson:"building_name,omitempty"`
	Seed         uint64    `json:"seed" bson:"seed"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	Sections     []Section `json:"sections" bson:"sections"`
	InnerLinks   []Link    `json:"inner_links" bson:"inner_links"`
	CrossLinks   []Link    `json:"cross_links" bson:"cross_links"`
}

// Section is one generated section.
type Section struct {
	Index    int        `json:"index" bson:"index"`
	ID       string     `json:"id" bson:"id"`
	Position [3]float64 `json:"position" bson:"position"`
	Rotation [4]float64 `json:"rotation" bson:"rotation"` // x, y, z, w
	Size     [3]int     `json:"size" bson:"size"`
	Static   bool       `json:"static" bson:"static"`
	Blocks   []Block    `json:"blocks" bson:"blocks"`
}

// Block is one placed block, indexed by its cell id.
type Block struct {
	Cell      int        `json:"cell" bson:"cell"`
	BlockID   string     `json:"block_id" bson:"block_id"`
	PointType string     `json:"point_type" bson:"point_type"`
	Depth     int        `json:"depth" bson:"depth"`
	Position  [3]float64 `json:"position" bson:"position"`
	Rotation  [4]float64 `json:"rotation" bson:"rotation"`
}

// Link is a joint between two blocks. Inner links have FromSection equal
// to ToSection.
type Link struct {
	FromSection int     `json:"from_section" bson:"from_section"`
	FromCell    int     `json:"from_cell" bson:"from_cell"`
	ToSection   int     `json:"to_section" bson:"to_section"`
	ToCell      int     `json:"to_cell" bson:"to_cell"`
	BreakForce  float64 `json:"break_force" bson:"break_force"`
	BreakTorque float64 `json:"break_torque" bson:"break_torque"`
}

// BlockCount returns the number of blocks in all sections.
func (p *Plan) BlockCount() int {
	n := 0
	for _, s := range p.Sections {
		n += len(s.Blocks)
	}
	return n
}

// New builds a plan from an assembled building and the report of its link
// flush. Positions are rounded to 1e-6 to drop rotation noise.
func New(p *building.Pending, report *building.LinkReport, seed uint64) *Plan {
	out := &Plan{
		ID:           uuid.NewString(),
		BuildingID:   p.Building.ID,
		BuildingName: p.Building.Name,
		Seed:         seed,
		CreatedAt:    time.Now().UTC(),
		Sections:     make([]Section, 0, len(p.Sections)),
		InnerLinks:   []Link{},
		CrossLinks:   []Link{},
	}

	for _, gs := range p.Sections {
		s := Section{
			Index:    gs.Index,
			ID:       gs.Section.ID,
			Position: vec(gs.Pose),
			Rotation: quat(gs.Pose),
			Size:     [3]int(gs.Size),
			Static:   gs.Static,
			Blocks:   make([]Block, len(gs.Blocks)),
		}
		for i, b := range gs.Blocks {
			s.Blocks[i] = Block{
				Cell:      b.Cell,
				BlockID:   b.BlockID,
				PointType: b.PointType.String(),
				Depth:     b.Depth,
				Position:  vec(b.Pose),
				Rotation:  quat(b.Pose),
			}
		}
		out.Sections = append(out.Sections, s)

		for _, l := range gs.InnerLinks {
			out.InnerLinks = append(out.InnerLinks, link(gs.Index, l.A, gs.Index, l.B, gs.Limits))
		}
	}

	if report != nil {
		for _, l := range report.Links {
			out.CrossLinks = append(out.CrossLinks, link(l.FromSection, l.FromCell, l.ToSection, l.ToCell, l.Limits))
		}
	}
	return out
}

func link(fromSection, fromCell, toSection, toCell int, limits building.BreakLimits) Link {
	return Link{
		FromSection: fromSection,
		FromCell:    fromCell,
		ToSection:   toSection,
		ToCell:      toCell,
		BreakForce:  finite(limits.Force),
		BreakTorque: finite(limits.Torque),
	}
}

func finite(v float64) float64 {
	if math.IsInf(v, 1) {
		return -1
	}
	return v
}

func vec(p geom.Pose) [3]float64 {
	return [3]float64(geom.Round(p.Position, 1e-6))
}

func quat(p geom.Pose) [4]float64 {
	q := p.Rotation.Normalize()
	return [4]float64{q.V[0], q.V[1], q.V[2], q.W}
}
