// Package grid lays out the cells of one section on a regular grid.
//
// Grid coordinates are (x, y, z) with z as the height axis. Cell offsets
// are produced in engine space, where height maps to the vertical Y axis
// and the grid's y maps to Z:
//
//	offset = ((x - midX)·spx, (z + 0.5)·spz, (y - midY)·spy)
//
// Each cell is classified by its distance to the outer ring of the
// footprint and turned to face the nearest edge. Cells are identified by
// [Index]; links and potential links refer to cells by that index.
package grid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/geom"
)

// MaxCells bounds the number of cells of one section.
const MaxCells = 1 << 20

// Size is the number of cells along x, y and z.
type Size [3]int

// Count returns the number of cells.
func (s Size) Count() int { return s[0] * s[1] * s[2] }

// Point is the placement of one cell relative to its section.
type Point struct {
	Offset    mgl64.Vec3
	Angle     float64 // yaw in degrees, one of 0, 90, 180, 270
	Rotation  mgl64.Quat
	PointType PointType
	Depth     int
}

// Link connects two cells of the same section.
type Link struct {
	A, B int
}

// PotentialLink is a candidate connection to a neighboring section: the
// cell Block and a section-local Anchor one spacing unit outside the grid.
type PotentialLink struct {
	Block  int
	Anchor mgl64.Vec3
}

// Layout is the result of [Generate].
type Layout struct {
	Size           Size
	Spacing        mgl64.Vec3
	Points         []Point
	Links          []Link
	PotentialLinks []PotentialLink
}

// Index returns the id of cell (x, y, z) in a grid of size s.
func Index(x, y, z int, s Size) int {
	return (x*s[1]+y)*s[2] + z
}

// Coord is the inverse of [Index].
func Coord(id int, s Size) (x, y, z int) {
	z = id % s[2]
	id /= s[2]
	y = id % s[1]
	x = id / s[1]
	return x, y, z
}

// Validate checks that every dimension is at least one, that the grid has
// at most MaxCells cells and that every spacing is finite.
func Validate(size Size, spacing mgl64.Vec3) error {
	for i, n := range size {
		if n <= 0 {
			return errors.New(errors.ErrCodeInvalidGridSettings,
				"grid size must be positive on every axis, got %v (axis %d)", [3]int(size), i)
		}
	}
	count := 1
	for _, n := range size {
		if n > MaxCells/count {
			return errors.New(errors.ErrCodeInvalidGridSettings,
				"grid size %v exceeds %d cells", [3]int(size), MaxCells)
		}
		count *= n
	}
	for i, s := range spacing {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return errors.New(errors.ErrCodeInvalidGridSettings,
				"grid spacing must be finite, got %v (axis %d)", [3]float64(spacing), i)
		}
	}
	return nil
}

// Generate lays out size cells with the given spacing.
func Generate(size Size, spacing mgl64.Vec3) (*Layout, error) {
	if err := Validate(size, spacing); err != nil {
		return nil, err
	}

	n := size.Count()
	l := &Layout{
		Size:    size,
		Spacing: spacing,
		Points:  make([]Point, 0, n),
		Links:   make([]Link, 0, 3*n),
	}

	midX := float64(size[0]-1) / 2
	midY := float64(size[1]-1) / 2
	spx, spy, spz := spacing[0], spacing[1], spacing[2]

	for x := 0; x < size[0]; x++ {
		for y := 0; y < size[1]; y++ {
			for z := 0; z < size[2]; z++ {
				offset := mgl64.Vec3{
					(float64(x) - midX) * spx,
					(float64(z) + 0.5) * spz,
					(float64(y) - midY) * spy,
				}

				distX := int(math.Floor(midX)) - int(math.Floor(math.Abs(float64(x)-midX)))
				distY := int(math.Floor(midY)) - int(math.Floor(math.Abs(float64(y)-midY)))
				depth := min(distX, distY)
				angle := facing(float64(x) > midX, float64(y) > midY, distX-distY)

				l.Points = append(l.Points, Point{
					Offset:    offset,
					Angle:     angle,
					Rotation:  geom.Yaw(angle),
					PointType: classify(distX, distY),
					Depth:     depth,
				})

				id := Index(x, y, z, size)
				if x > 0 {
					l.Links = append(l.Links, Link{id, Index(x-1, y, z, size)})
				}
				if y > 0 {
					l.Links = append(l.Links, Link{id, Index(x, y-1, z, size)})
				}
				if z > 0 {
					l.Links = append(l.Links, Link{id, Index(x, y, z-1, size)})
				}

				if x == 0 {
					l.addPotential(id, offset.Sub(geom.Right.Mul(spx)))
				}
				if x == size[0]-1 {
					l.addPotential(id, offset.Add(geom.Right.Mul(spx)))
				}
				if y == 0 {
					l.addPotential(id, offset.Sub(geom.Forward.Mul(spy)))
				}
				if y == size[1]-1 {
					l.addPotential(id, offset.Add(geom.Forward.Mul(spy)))
				}
				if z == 0 {
					l.addPotential(id, offset.Sub(geom.Up.Mul(spz)))
				}
				if z == size[2]-1 {
					l.addPotential(id, offset.Add(geom.Up.Mul(spz)))
				}
			}
		}
	}
	return l, nil
}

func (l *Layout) addPotential(id int, anchor mgl64.Vec3) {
	l.PotentialLinks = append(l.PotentialLinks, PotentialLink{Block: id, Anchor: anchor})
}

func classify(distX, distY int) PointType {
	switch {
	case min(distX, distY) > 0:
		return Inside
	case distX == distY:
		return Corner
	default:
		return Boundary
	}
}

// facing picks the yaw of a cell from its quadrant and which edge is
// nearer (d = distX - distY). Corners take the angle of their left-hand
// neighbor, so ties break differently per quadrant.
func facing(right, front bool, d int) float64 {
	switch {
	case right && front:
		if d > 0 {
			return 0
		}
		return 90
	case right:
		if d >= 0 {
			return 180
		}
		return 90
	case front:
		if d >= 0 {
			return 0
		}
		return 270
	default:
		if d > 0 {
			return 180
		}
		return 270
	}
}
