package memory

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NyankoNyan/buildgen/pkg/building"
	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/geom"
)

func block(id string, pos mgl64.Vec3, padding float64) building.BlockSpec {
	return building.BlockSpec{
		BlockID:       id,
		Pose:          geom.Pose{Position: pos, Rotation: mgl64.QuatIdent()},
		Mass:          1,
		HitboxPadding: padding,
		Kinematic:     true,
	}
}

func TestQuerySeesBodiesOnlyAfterStep(t *testing.T) {
	w := New()
	h, err := w.Instantiate(block("a", mgl64.Vec3{0, 0, 0}, 0))
	require.NoError(t, err)

	assert.Empty(t, w.Query(mgl64.Vec3{}, 1))
	b, _ := w.Body(h)
	assert.False(t, b.Indexed)

	w.Step()
	assert.Equal(t, []building.Handle{h}, w.Query(mgl64.Vec3{}, 1))
	assert.Equal(t, 1, w.Steps())
	b, _ = w.Body(h)
	assert.True(t, b.Indexed)
}

func TestQueryUsesPaddedBoxes(t *testing.T) {
	w := New()
	h, err := w.Instantiate(block("a", mgl64.Vec3{0, 0, 0}, 0.1))
	require.NoError(t, err)
	w.Step()

	b, _ := w.Body(h)
	assert.InDelta(t, 0.4, b.HalfExtent[0], 1e-12)

	// The face sits at x = 0.4.
	assert.Len(t, w.Query(mgl64.Vec3{0.65, 0, 0}, 0.3), 1)
	assert.Empty(t, w.Query(mgl64.Vec3{0.75, 0, 0}, 0.3))
	// Corner distance is sqrt(2)·0.1.
	assert.Empty(t, w.Query(mgl64.Vec3{0.5, 0.5, 0}, 0.14))
	assert.Len(t, w.Query(mgl64.Vec3{0.5, 0.5, 0}, 0.15), 1)
}

func TestQueryRotatedBox(t *testing.T) {
	w := New()
	spec := block("a", mgl64.Vec3{}, 0)
	spec.Pose.Rotation = geom.Yaw(45)
	_, err := w.Instantiate(spec)
	require.NoError(t, err)
	w.Step()

	// A unit box turned 45° reaches sqrt(0.5) along x.
	assert.Len(t, w.Query(mgl64.Vec3{0.69, 0, 0}, 0.01), 1)
	assert.Empty(t, w.Query(mgl64.Vec3{0.75, 0, 0}, 0.01))
}

func TestQueryAcrossCellsIsSortedAndUnique(t *testing.T) {
	w := New(WithCellSize(0.5))
	for x := 3; x >= 0; x-- {
		_, err := w.Instantiate(block("a", mgl64.Vec3{float64(x), 0, 0}, 0))
		require.NoError(t, err)
	}
	w.Step()

	got := w.Query(mgl64.Vec3{1.5, 0, 0}, 1.2)
	assert.Equal(t, []building.Handle{1, 2, 3, 4}, got)

	assert.Nil(t, w.Query(mgl64.Vec3{}, -1))
}

func TestLinkAndActivate(t *testing.T) {
	w := New()
	a, _ := w.Instantiate(block("a", mgl64.Vec3{0, 0, 0}, 0))
	b, _ := w.Instantiate(block("b", mgl64.Vec3{1, 0, 0}, 0))

	limits := building.BreakLimits{Force: 10, Torque: 20}
	require.NoError(t, w.Link(a, b, limits))
	assert.Equal(t, []Joint{{A: a, B: b, Limits: limits}}, w.Joints())

	err := w.Link(a, a, limits)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	err = w.Link(a, 99, limits)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))

	require.NoError(t, w.Activate(b))
	body, _ := w.Body(b)
	assert.False(t, body.Kinematic)
	body, _ = w.Body(a)
	assert.True(t, body.Kinematic)

	assert.True(t, errors.Is(w.Activate(42), errors.ErrCodeNotFound))
}

func TestInstantiateValidation(t *testing.T) {
	w := New()
	_, err := w.Instantiate(block("", mgl64.Vec3{}, 0))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	h, err := w.Instantiate(block("thin", mgl64.Vec3{}, 0.7))
	require.NoError(t, err)
	b, _ := w.Body(h)
	assert.Positive(t, b.HalfExtent[0])
}

func TestBodiesInCreationOrder(t *testing.T) {
	w := New()
	for _, id := range []string{"a", "b", "c"} {
		_, err := w.Instantiate(block(id, mgl64.Vec3{}, 0))
		require.NoError(t, err)
	}
	var ids []string
	for _, b := range w.Bodies() {
		ids = append(ids, b.BlockID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestQueryLargeRadiusScansBodies(t *testing.T) {
	w := New()
	a, err := w.Instantiate(block("a", mgl64.Vec3{0, 0, 0}, 0))
	require.NoError(t, err)
	b, err := w.Instantiate(block("b", mgl64.Vec3{3, 0, 0}, 0))
	require.NoError(t, err)
	w.Step()
	_, err = w.Instantiate(block("c", mgl64.Vec3{1, 0, 0}, 0))
	require.NoError(t, err)

	start := time.Now()
	for _, radius := range []float64{400, 4000, 1e12, math.Inf(1)} {
		assert.Equal(t, []building.Handle{a, b}, w.Query(mgl64.Vec3{}, radius), "radius %v", radius)
	}
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, []building.Handle{a}, w.Query(mgl64.Vec3{}, 1))
	assert.Empty(t, w.Query(mgl64.Vec3{}, math.NaN()))
	assert.Empty(t, w.Query(mgl64.Vec3{math.NaN(), 0, 0}, 5000))
}

func TestQueryHashMatchesScan(t *testing.T) {
	w := New()
	for x := range 10 {
		for z := range 10 {
			_, err := w.Instantiate(block("b", mgl64.Vec3{float64(x), 0, float64(z)}, 0.05))
			require.NoError(t, err)
		}
	}
	w.Step()

	center := mgl64.Vec3{4.6, 0.2, 5.1}
	require.Less(t, w.spanCells(center.Sub(mgl64.Vec3{1.5, 1.5, 1.5}), center.Add(mgl64.Vec3{1.5, 1.5, 1.5})), 100.0)

	var want []building.Handle
	for _, b := range w.Bodies() {
		if overlaps(&b, center, 1.5) {
			want = append(want, b.Handle)
		}
	}
	require.NotEmpty(t, want)
	assert.Equal(t, want, w.Query(center, 1.5))
}
