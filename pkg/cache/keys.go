package cache

import (
	"strconv"
	"time"
)

// Keyer builds cache keys.
type Keyer interface {
	// PlanKey identifies a generated plan: the same configuration, building
	// and options always yield the same key.
	PlanKey(configHash, buildingID string, opts PlanKeyOpts) string

	// GraphKey identifies a rendered link graph of a stored plan.
	GraphKey(planID string, opts GraphKeyOpts) string
}

// PlanKeyOpts are the generation options that change a plan.
type PlanKeyOpts struct {
	Seed uint64 `json:"seed"`
	// Defaults is a hash of the default parameter scope, empty when the
	// built-in defaults are used.
	Defaults string `json:"defaults,omitempty"`
}

// GraphKeyOpts are the rendering options that change a graph.
type GraphKeyOpts struct {
	Format string `json:"format"`
	Blocks bool   `json:"blocks"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

func (DefaultKeyer) PlanKey(configHash, buildingID string, opts PlanKeyOpts) string {
	return hashKey("plan", configHash, buildingID, strconv.FormatUint(opts.Seed, 10), opts.Defaults)
}

func (DefaultKeyer) GraphKey(planID string, opts GraphKeyOpts) string {
	return hashKey("graph", planID, opts)
}

// Cache lifetimes.
const (
	// TTLPlan bounds how long a generated plan is reused.
	TTLPlan = 7 * 24 * time.Hour

	// TTLGraph bounds how long a rendered link graph is reused.
	TTLGraph = 24 * time.Hour
)
