// Package memory is an in-process [building.Engine] without dynamics.
//
// Blocks are oriented boxes with half extent 0.5 - hitboxPadding on every
// axis. Like a real physics engine, the world indexes new colliders in its
// broad phase only when it steps: a block created after the last [World.Step]
// is invisible to [World.Query]. Joints are recorded with their break
// limits and never break.
//
// The world is used by the CLI to produce plans and by tests as the engine
// collaborator.
package memory

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/NyankoNyan/buildgen/pkg/building"
	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/geom"
)

// DefaultCellSize is the edge length of a spatial hash cell.
const DefaultCellSize = 2.0

// minHalfExtent keeps padded boxes from collapsing.
const minHalfExtent = 1e-6

// Body is a block in the world.
type Body struct {
	Handle     building.Handle
	BlockID    string
	Pose       geom.Pose
	Mass       float64
	HalfExtent mgl64.Vec3
	Kinematic  bool
	// Indexed is set once a step has added the body to the broad phase.
	Indexed bool
}

// Joint is a fixed joint between two bodies.
type Joint struct {
	A, B   building.Handle
	Limits building.BreakLimits
}

type cell [3]int

// World is safe for concurrent use.
type World struct {
	mu       sync.Mutex
	cellSize float64
	next     building.Handle
	bodies   map[building.Handle]*Body
	pending  []building.Handle
	cells    map[cell][]building.Handle
	indexed  int
	joints   []Joint
	steps    int
}

// Option configures a [World].
type Option func(*World)

// WithCellSize sets the spatial hash cell size. Non-positive sizes are
// ignored.
func WithCellSize(size float64) Option {
	return func(w *World) {
		if size > 0 {
			w.cellSize = size
		}
	}
}

// New returns an empty world.
func New(opts ...Option) *World {
	w := &World{
		cellSize: DefaultCellSize,
		bodies:   make(map[building.Handle]*Body),
		cells:    make(map[cell][]building.Handle),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Instantiate implements [building.Engine].
func (w *World) Instantiate(spec building.BlockSpec) (building.Handle, error) {
	if spec.BlockID == "" {
		return 0, errors.New(errors.ErrCodeInvalidInput, "block id cannot be empty")
	}
	half := math.Max(minHalfExtent, 0.5-spec.HitboxPadding)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.next++
	h := w.next
	w.bodies[h] = &Body{
		Handle:     h,
		BlockID:    spec.BlockID,
		Pose:       spec.Pose,
		Mass:       spec.Mass,
		HalfExtent: mgl64.Vec3{half, half, half},
		Kinematic:  spec.Kinematic,
	}
	w.pending = append(w.pending, h)
	return h, nil
}

// Link implements [building.Engine].
func (w *World) Link(a, b building.Handle, limits building.BreakLimits) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if a == b {
		return errors.New(errors.ErrCodeInvalidInput, "cannot link body %d to itself", a)
	}
	for _, h := range []building.Handle{a, b} {
		if _, ok := w.bodies[h]; !ok {
			return errors.New(errors.ErrCodeNotFound, "body %d not found", h)
		}
	}
	w.joints = append(w.joints, Joint{A: a, B: b, Limits: limits})
	return nil
}

// Activate implements [building.Engine].
func (w *World) Activate(h building.Handle) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	body, ok := w.bodies[h]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "body %d not found", h)
	}
	body.Kinematic = false
	return nil
}

// Step runs the broad phase, making every body created since the previous
// step visible to queries.
func (w *World) Step() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range w.pending {
		body := w.bodies[h]
		lo, hi := w.cellRange(bounds(body))
		for x := lo[0]; x <= hi[0]; x++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for z := lo[2]; z <= hi[2]; z++ {
					c := cell{x, y, z}
					w.cells[c] = append(w.cells[c], h)
				}
			}
		}
		body.Indexed = true
		w.indexed++
	}
	w.pending = w.pending[:0]
	w.steps++
}

// Query implements [building.Engine]. Handles are returned in ascending
// order. When the query box spans more hash cells than there are indexed
// bodies, the bodies are scanned directly.
func (w *World) Query(center mgl64.Vec3, radius float64) []building.Handle {
	if radius < 0 || math.IsNaN(radius) {
		return nil
	}
	r := mgl64.Vec3{radius, radius, radius}

	w.mu.Lock()
	defer w.mu.Unlock()
	var hits []building.Handle
	if !(w.spanCells(center.Sub(r), center.Add(r)) <= float64(w.indexed)) {
		for h, b := range w.bodies {
			if b.Indexed && overlaps(b, center, radius) {
				hits = append(hits, h)
			}
		}
		slices.Sort(hits)
		return hits
	}

	lo, hi := w.cellRange(center.Sub(r), center.Add(r))
	seen := make(map[building.Handle]bool)
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				for _, h := range w.cells[cell{x, y, z}] {
					if seen[h] {
						continue
					}
					seen[h] = true
					if overlaps(w.bodies[h], center, radius) {
						hits = append(hits, h)
					}
				}
			}
		}
	}
	slices.Sort(hits)
	return hits
}

// Body returns a copy of the body with handle h.
func (w *World) Body(h building.Handle) (Body, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, ok := w.bodies[h]
	if !ok {
		return Body{}, false
	}
	return *b, true
}

// Bodies returns copies of all bodies in creation order.
func (w *World) Bodies() []Body {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Body, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b Body) int { return cmp.Compare(a.Handle, b.Handle) })
	return out
}

// Joints returns the recorded joints in creation order.
func (w *World) Joints() []Joint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.joints)
}

// Steps returns the number of completed steps.
func (w *World) Steps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.steps
}

// spanCells counts the hash cells covered by the box from..to. It is
// computed in floating point and is NaN or +Inf for non-finite boxes.
func (w *World) spanCells(from, to mgl64.Vec3) float64 {
	n := 1.0
	for i := range 3 {
		n *= math.Floor(to[i]/w.cellSize) - math.Floor(from[i]/w.cellSize) + 1
	}
	return n
}

func (w *World) cellRange(from, to mgl64.Vec3) (lo, hi cell) {
	for i := range 3 {
		lo[i] = int(math.Floor(from[i] / w.cellSize))
		hi[i] = int(math.Floor(to[i] / w.cellSize))
	}
	return lo, hi
}

// bounds returns the world-space axis-aligned box around a body.
func bounds(b *Body) (lo, hi mgl64.Vec3) {
	var ext mgl64.Vec3
	for i, axis := range []mgl64.Vec3{geom.Right, geom.Up, geom.Forward} {
		d := b.Pose.Rotation.Rotate(axis.Mul(b.HalfExtent[i]))
		for j := range 3 {
			ext[j] += math.Abs(d[j])
		}
	}
	return b.Pose.Position.Sub(ext), b.Pose.Position.Add(ext)
}

// overlaps tests a sphere against a body's oriented box.
func overlaps(b *Body, center mgl64.Vec3, radius float64) bool {
	local := b.Pose.InversePoint(center)
	var closest mgl64.Vec3
	for i := range 3 {
		closest[i] = mgl64.Clamp(local[i], -b.HalfExtent[i], b.HalfExtent[i])
	}
	return geom.DistSq(local, closest) <= radius*radius
}
