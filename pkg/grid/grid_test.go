package grid

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/geom"
)

var unit = mgl64.Vec3{1, 1, 1}

func TestGenerateCellCount(t *testing.T) {
	for _, size := range []Size{{1, 1, 1}, {2, 3, 4}, {5, 5, 1}, {4, 1, 3}, {1, 7, 1}} {
		t.Run(fmt.Sprint([3]int(size)), func(t *testing.T) {
			l, err := Generate(size, unit)
			require.NoError(t, err)
			require.Len(t, l.Points, size.Count())

			seen := make(map[int]bool)
			for x := 0; x < size[0]; x++ {
				for y := 0; y < size[1]; y++ {
					for z := 0; z < size[2]; z++ {
						id := Index(x, y, z, size)
						assert.False(t, seen[id], "duplicate id %d", id)
						seen[id] = true
						assert.GreaterOrEqual(t, id, 0)
						assert.Less(t, id, size.Count())

						cx, cy, cz := Coord(id, size)
						assert.Equal(t, [3]int{x, y, z}, [3]int{cx, cy, cz})
					}
				}
			}
		})
	}
}

func TestSingleCellIsCorner(t *testing.T) {
	l, err := Generate(Size{1, 1, 1}, unit)
	require.NoError(t, err)
	require.Len(t, l.Points, 1)
	assert.Equal(t, Corner, l.Points[0].PointType)
	assert.Equal(t, 0, l.Points[0].Depth)
	assert.Empty(t, l.Links)
	assert.Len(t, l.PotentialLinks, 6)
}

func TestClassificationAndFacing3x3(t *testing.T) {
	l, err := Generate(Size{3, 3, 1}, unit)
	require.NoError(t, err)

	tests := []struct {
		x, y  int
		want  PointType
		angle float64
		depth int
	}{
		{0, 0, Corner, 270, 0},
		{0, 1, Boundary, 270, 0},
		{0, 2, Corner, 0, 0},
		{1, 0, Boundary, 180, 0},
		{1, 1, Inside, 270, 1},
		{1, 2, Boundary, 0, 0},
		{2, 0, Corner, 180, 0},
		{2, 1, Boundary, 90, 0},
		{2, 2, Corner, 90, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d,%d", tt.x, tt.y), func(t *testing.T) {
			p := l.Points[Index(tt.x, tt.y, 0, l.Size)]
			assert.Equal(t, tt.want, p.PointType)
			assert.Equal(t, tt.angle, p.Angle)
			assert.Equal(t, tt.depth, p.Depth)
			assert.True(t, p.Rotation.ApproxEqualThreshold(geom.Yaw(tt.angle), 1e-12))
		})
	}
}

// Rows run from the highest y down to y = 0, columns from x = 0.
func TestFacingTable(t *testing.T) {
	const (
		I = Inside
		B = Boundary
		C = Corner
	)
	tests := []struct {
		name   string
		size   Size
		angles [][]float64
		types  [][]PointType
		depths [][]int
	}{
		{
			name: "5x5",
			size: Size{5, 5, 1},
			angles: [][]float64{
				{0, 0, 0, 0, 90},
				{270, 0, 0, 90, 90},
				{270, 270, 270, 90, 90},
				{270, 270, 180, 180, 90},
				{270, 180, 180, 180, 180},
			},
			types: [][]PointType{
				{C, B, B, B, C},
				{B, I, I, I, B},
				{B, I, I, I, B},
				{B, I, I, I, B},
				{C, B, B, B, C},
			},
			depths: [][]int{
				{0, 0, 0, 0, 0},
				{0, 1, 1, 1, 0},
				{0, 1, 2, 1, 0},
				{0, 1, 1, 1, 0},
				{0, 0, 0, 0, 0},
			},
		},
		{
			name: "4x4",
			size: Size{4, 4, 1},
			angles: [][]float64{
				{0, 0, 0, 90},
				{270, 0, 90, 90},
				{270, 270, 180, 90},
				{270, 180, 180, 180},
			},
			types: [][]PointType{
				{C, B, B, C},
				{B, I, I, B},
				{B, I, I, B},
				{C, B, B, C},
			},
			depths: [][]int{
				{0, 0, 0, 0},
				{0, 1, 1, 0},
				{0, 1, 1, 0},
				{0, 0, 0, 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Generate(tt.size, unit)
			require.NoError(t, err)
			for row := range tt.angles {
				y := tt.size[1] - 1 - row
				for x := range tt.angles[row] {
					p := l.Points[Index(x, y, 0, tt.size)]
					assert.Equal(t, tt.angles[row][x], p.Angle, "angle at %d,%d", x, y)
					assert.Equal(t, tt.types[row][x], p.PointType, "type at %d,%d", x, y)
					assert.Equal(t, tt.depths[row][x], p.Depth, "depth at %d,%d", x, y)
				}
			}
		})
	}
}

func TestFacingBranches(t *testing.T) {
	tests := []struct {
		right, front bool
		d            int
		want         float64
	}{
		{true, true, 1, 0},
		{true, true, 0, 90},
		{true, true, -1, 90},
		{true, false, 1, 180},
		{true, false, 0, 180},
		{true, false, -1, 90},
		{false, true, 1, 0},
		{false, true, 0, 0},
		{false, true, -1, 270},
		{false, false, 1, 180},
		{false, false, 0, 270},
		{false, false, -1, 270},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, facing(tt.right, tt.front, tt.d), "right=%v front=%v d=%d", tt.right, tt.front, tt.d)
	}
}

func TestDepthGrowsInward(t *testing.T) {
	l, err := Generate(Size{5, 5, 2}, unit)
	require.NoError(t, err)

	assert.Equal(t, 2, l.Points[Index(2, 2, 1, l.Size)].Depth)
	assert.Equal(t, Inside, l.Points[Index(2, 2, 0, l.Size)].PointType)
	assert.Equal(t, 1, l.Points[Index(1, 2, 0, l.Size)].Depth)
	assert.Equal(t, 1, l.Points[Index(1, 1, 0, l.Size)].Depth)
	assert.Equal(t, 0, l.Points[Index(4, 2, 0, l.Size)].Depth)
}

func TestOffsetsSwapHeightAxis(t *testing.T) {
	l, err := Generate(Size{3, 3, 2}, mgl64.Vec3{1, 2, 3})
	require.NoError(t, err)

	tests := []struct {
		x, y, z int
		want    mgl64.Vec3
	}{
		{0, 0, 0, mgl64.Vec3{-1, 1.5, -2}},
		{2, 1, 0, mgl64.Vec3{1, 1.5, 0}},
		{1, 2, 1, mgl64.Vec3{0, 4.5, 2}},
	}
	for _, tt := range tests {
		got := l.Points[Index(tt.x, tt.y, tt.z, l.Size)].Offset
		assert.True(t, got.ApproxEqualThreshold(tt.want, 1e-12), "cell %d,%d,%d: got %v want %v", tt.x, tt.y, tt.z, got, tt.want)
	}
}

func TestLinksConnectEachAdjacentPairOnce(t *testing.T) {
	size := Size{3, 4, 2}
	l, err := Generate(size, unit)
	require.NoError(t, err)

	want := (size[0]-1)*size[1]*size[2] + size[0]*(size[1]-1)*size[2] + size[0]*size[1]*(size[2]-1)
	require.Len(t, l.Links, want)

	pairs := make(map[[2]int]bool)
	for _, link := range l.Links {
		a, b := min(link.A, link.B), max(link.A, link.B)
		assert.False(t, pairs[[2]int{a, b}], "duplicate link %d-%d", a, b)
		pairs[[2]int{a, b}] = true

		ax, ay, az := Coord(link.A, size)
		bx, by, bz := Coord(link.B, size)
		manhattan := abs(ax-bx) + abs(ay-by) + abs(az-bz)
		assert.Equal(t, 1, manhattan, "link %v joins non-adjacent cells", link)
		assert.Greater(t, link.A, link.B)
	}
}

func TestPotentialLinksOnEveryBoundaryFace(t *testing.T) {
	size := Size{3, 2, 1}
	spacing := mgl64.Vec3{1, 2, 3}
	l, err := Generate(size, spacing)
	require.NoError(t, err)

	want := 2 * (size[1]*size[2] + size[0]*size[2] + size[0]*size[1])
	assert.Len(t, l.PotentialLinks, want)

	for _, pl := range l.PotentialLinks {
		offset := l.Points[pl.Block].Offset
		d := pl.Anchor.Sub(offset)
		nonzero := 0
		for i := range d {
			if d[i] != 0 {
				nonzero++
			}
		}
		assert.Equal(t, 1, nonzero, "anchor %v of block %d is not axis-aligned", pl.Anchor, pl.Block)
	}

	// Cell (0,0,0): -x, -y (grid) and both height faces.
	var anchors []mgl64.Vec3
	for _, pl := range l.PotentialLinks {
		if pl.Block == Index(0, 0, 0, size) {
			anchors = append(anchors, pl.Anchor.Sub(l.Points[pl.Block].Offset))
		}
	}
	assert.Equal(t, []mgl64.Vec3{{-1, 0, 0}, {0, 0, -2}, {0, -3, 0}, {0, 3, 0}}, anchors)
}

func TestGenerateRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		size    Size
		spacing mgl64.Vec3
	}{
		{"zero x", Size{0, 1, 1}, unit},
		{"negative z", Size{2, 2, -1}, unit},
		{"nan spacing", Size{1, 1, 1}, mgl64.Vec3{1, math.NaN(), 1}},
		{"count overflows", Size{1 << 62, 2, 1}, unit},
		{"too many cells", Size{50000, 50000, 1}, unit},
		{"one past the limit", Size{MaxCells + 1, 1, 1}, unit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.size, tt.spacing)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidGridSettings), "got %v", err)
		})
	}
}

func TestValidateAcceptsMaxCells(t *testing.T) {
	assert.NoError(t, Validate(Size{1 << 10, 1 << 5, 1 << 5}, unit))
	assert.NoError(t, Validate(Size{1, 1, MaxCells}, unit))
}

func TestParsePointType(t *testing.T) {
	for _, name := range []string{"Inside", "boundary", "CORNER", "Peninsula", "Wall", "Island"} {
		pt, err := ParsePointType(name)
		require.NoError(t, err)
		assert.True(t, strings.EqualFold(pt.String(), name))
	}
	_, err := ParsePointType("OuterCorner")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
