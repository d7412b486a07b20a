package building

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/NyankoNyan/buildgen/pkg/geom"
)

// Handle identifies a block instance owned by an [Engine].
type Handle uint64

// BlockSpec is a request to place one block in the world.
type BlockSpec struct {
	BlockID       string
	Pose          geom.Pose
	Mass          float64
	HitboxPadding float64
	// Kinematic blocks ignore gravity and impacts until activated.
	Kinematic bool
}

// BreakLimits are the force and torque a joint survives. +Inf means the
// joint never breaks.
type BreakLimits struct {
	Force  float64
	Torque float64
}

// Engine is the physics world that receives generated blocks.
//
// Blocks created by Instantiate may stay invisible to Query until the
// engine has run its broad phase; see [LinkQueue].
type Engine interface {
	// Instantiate creates a block and returns its handle.
	Instantiate(spec BlockSpec) (Handle, error)

	// Link joins two blocks with a fixed joint.
	Link(a, b Handle, limits BreakLimits) error

	// Query returns the blocks whose colliders overlap the sphere at
	// center. The order of the result is unspecified.
	Query(center mgl64.Vec3, radius float64) []Handle

	// Activate hands a kinematic block over to the physics simulation.
	Activate(h Handle) error
}
