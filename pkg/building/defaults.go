package building

import (
	"maps"

	"github.com/NyankoNyan/buildgen/pkg/param"
)

// Names of the parameters the assembler and linker read. They resolve
// through the normal scope chain, so a section can override a value set
// by its building or by the config file.
const (
	ParamGenerationAlgorithm = "generationAlgorithm"
	ParamBlockMass           = "blockMass"
	ParamBreakForce          = "breakForce"
	ParamBreakTorque         = "breakTorque"
	ParamLinkSearchRadius    = "linkSearchRadius"
	ParamHitboxPadding       = "hitboxPadding"
	ParamIsStatic            = "isStatic"
)

// AlgorithmGrid is the name of the built-in grid layout algorithm.
const AlgorithmGrid = "Grid"

// Defaults returns the outermost scope every building is evaluated in.
// The returned map is a fresh copy.
func Defaults() map[string]param.Parameter {
	return maps.Clone(defaults)
}

var defaults = map[string]param.Parameter{
	ParamGenerationAlgorithm: param.StringLiteral(AlgorithmGrid),
	ParamBlockMass:           param.FloatLiteral(100),
	ParamBreakForce:          param.FloatLiteral(20000),
	ParamBreakTorque:         param.FloatLiteral(20000),
	ParamLinkSearchRadius:    param.FloatLiteral(0.3),
	ParamHitboxPadding:       param.FloatLiteral(0.05),
	ParamIsStatic:            param.BoolLiteral(false),
}
