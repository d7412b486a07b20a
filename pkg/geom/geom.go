// Package geom holds the small amount of 3D math shared by layout and
// assembly: engine axis constants, Euler rotations in engine order, and
// rigid poses.
//
// Coordinates use the engine convention: Y is up, Z is forward. Euler
// angles are in degrees and applied Z first, then X, then Y.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Engine axes.
var (
	Right   = mgl64.Vec3{1, 0, 0}
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
)

// Euler returns the rotation for angles in degrees about X, Y and Z.
func Euler(x, y, z float64) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(x), Right)
	qy := mgl64.QuatRotate(mgl64.DegToRad(y), Up)
	qz := mgl64.QuatRotate(mgl64.DegToRad(z), Forward)
	return qy.Mul(qx).Mul(qz)
}

// Yaw returns a rotation of angle degrees about the vertical axis.
func Yaw(angle float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(angle), Up)
}

// SwapYZ maps a configuration vector (Z up) to engine space (Y up).
func SwapYZ(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[2], v[1]}
}

// DistSq returns the squared distance between a and b.
func DistSq(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

// Pose is a rigid transform.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Identity returns the pose at the origin with no rotation.
func Identity() Pose {
	return Pose{Rotation: mgl64.QuatIdent()}
}

// Point transforms a local point into the pose's parent space.
func (p Pose) Point(local mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.Rotation.Rotate(local))
}

// Compose returns local expressed in the pose's parent space.
func (p Pose) Compose(local Pose) Pose {
	return Pose{
		Position: p.Point(local.Position),
		Rotation: p.Rotation.Mul(local.Rotation),
	}
}

// InversePoint maps a parent-space point into the pose's local space.
func (p Pose) InversePoint(world mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Inverse().Rotate(world.Sub(p.Position))
}

// Round snaps v to a grid of step, removing floating point noise from
// rotated coordinates before they are printed or hashed.
func Round(v mgl64.Vec3, step float64) mgl64.Vec3 {
	var out mgl64.Vec3
	for i, c := range v {
		if r := math.Round(c/step) * step; r != 0 {
			out[i] = r
		}
	}
	return out
}
