package building

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/NyankoNyan/buildgen/pkg/config"
	"github.com/NyankoNyan/buildgen/pkg/grid"
	"github.com/NyankoNyan/buildgen/pkg/param"
)

// Algorithm lays out the cells of one section. The section's
// generationAlgorithm parameter selects the algorithm by name.
type Algorithm interface {
	Layout(s *config.Section, eval *param.Evaluator, scope *param.Scope) (*grid.Layout, error)
}

// AlgorithmFunc adapts a function to [Algorithm].
type AlgorithmFunc func(s *config.Section, eval *param.Evaluator, scope *param.Scope) (*grid.Layout, error)

// Layout calls f.
func (f AlgorithmFunc) Layout(s *config.Section, eval *param.Evaluator, scope *param.Scope) (*grid.Layout, error) {
	return f(s, eval, scope)
}

// GridAlgorithm evaluates the section's grid settings and runs
// [grid.Generate].
var GridAlgorithm Algorithm = AlgorithmFunc(layoutGrid)

func layoutGrid(s *config.Section, eval *param.Evaluator, scope *param.Scope) (*grid.Layout, error) {
	size, err := eval.Vec3i(s.Grid.Size, scope)
	if err != nil {
		return nil, err
	}
	spacing, err := eval.Vec3(s.Grid.Spacing, scope)
	if err != nil {
		return nil, err
	}
	return grid.Generate(grid.Size(size), mgl64.Vec3(spacing))
}
