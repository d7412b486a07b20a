package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NyankoNyan/buildgen/pkg/cache"
	"github.com/NyankoNyan/buildgen/pkg/config"
	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/param"
)

const towersDoc = `
version: "0.3"
parameters:
  floors: 2
blockGroups:
  - id: stone
    blocks:
      - {id: slab, pointType: Inside}
      - {id: wall, pointType: Boundary}
      - {id: pillar, pointType: Corner}
buildings:
  - id: gate
    sections:
      - id: left
        blockGroupId: stone
        generationSettingsGrid: {size: [2, 1, $floors]}
      - id: right
        blockGroupId: stone
        position: [2, 0, 0]
        generationSettingsGrid: {size: [2, 1, $floors]}
  - id: hut
    sections:
      - id: room
        blockGroupId: stone
        generationSettingsGrid: {size: [3, 3, 1]}
`

// memCache is a map-backed cache.Cache that counts hits.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	if ok {
		c.hits++
	}
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func source() *Source {
	return NewSource("towers.yaml", config.FormatYAML, []byte(towersDoc))
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"msgpack", false},
		{"dot", false},
		{"svg", false},
		{"SVG", false},
		{"png", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"json", "svg"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"json", "pdf"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	formats := []string{"JSON", "mp"}
	opts := Options{Formats: formats}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error: %v", err)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed = %d, want %d", opts.Seed, DefaultSeed)
	}
	if opts.MaxTicks != DefaultMaxTicks || opts.Workers != DefaultWorkers {
		t.Errorf("MaxTicks, Workers = %d, %d", opts.MaxTicks, opts.Workers)
	}
	if opts.Formats[0] != "json" || opts.Formats[1] != "msgpack" {
		t.Errorf("Formats = %v, want normalized names", opts.Formats)
	}
	if formats[0] != "JSON" {
		t.Error("caller's format slice should not be modified")
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent
	opts.Seed = 7
	if err := opts.ValidateAndSetDefaults(); err != nil || opts.Seed != 7 {
		t.Errorf("second call changed options: seed %d, err %v", opts.Seed, err)
	}

	empty := Options{}
	_ = empty.ValidateAndSetDefaults()
	if len(empty.Formats) != 1 || empty.Formats[0] != "json" {
		t.Errorf("default Formats = %v", empty.Formats)
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"building and all", Options{Building: "gate", All: true}},
		{"negative cell size", Options{CellSize: -1}},
		{"bad format", Options{Formats: []string{"gif"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	file, err := source().Decode()
	if err != nil {
		t.Fatal(err)
	}

	p, stats, err := Generate(context.Background(), file, "gate", Options{})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if p.BuildingID != "gate" || p.Seed != DefaultSeed {
		t.Errorf("plan = %s seed %d", p.BuildingID, p.Seed)
	}
	if stats.Sections != 2 || stats.Blocks != 8 {
		t.Errorf("sections, blocks = %d, %d; want 2, 8", stats.Sections, stats.Blocks)
	}
	// 2x1x2 grid: x links 2, z links 2, per section
	if stats.InnerLinks != 8 {
		t.Errorf("InnerLinks = %d, want 8", stats.InnerLinks)
	}
	// Facing columns of both floors link in each direction.
	if stats.CrossLinks != 4 {
		t.Errorf("CrossLinks = %d, want 4", stats.CrossLinks)
	}
	if stats.Ticks != 2 {
		t.Errorf("Ticks = %d, want 2", stats.Ticks)
	}
}

func TestGenerateTickLimit(t *testing.T) {
	file, _ := source().Decode()
	_, _, err := Generate(context.Background(), file, "gate", Options{MaxTicks: 1})
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Generate with one tick = %v, want INTERNAL", err)
	}
}

func TestGenerateCanceled(t *testing.T) {
	file, _ := source().Decode()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := Generate(ctx, file, "gate", Options{}); err != context.Canceled {
		t.Errorf("Generate on canceled context = %v", err)
	}
}

func TestExecuteCaches(t *testing.T) {
	ctx := context.Background()
	c := newMemCache()
	r := NewRunner(c, nil, nil)

	first, err := r.Execute(ctx, source(), Options{Building: "gate"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(first.Buildings) != 1 || first.Buildings[0].CacheHit {
		t.Fatalf("first run should generate one building without cache hit")
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d, want 1", c.sets)
	}
	if len(first.Buildings[0].Artifacts["json"]) == 0 {
		t.Error("json artifact missing")
	}

	second, err := r.Execute(ctx, source(), Options{Building: "gate"})
	if err != nil {
		t.Fatal(err)
	}
	got := second.Buildings[0]
	if !got.CacheHit {
		t.Error("second run should hit the cache")
	}
	if got.Plan.ID != first.Buildings[0].Plan.ID {
		t.Error("cached plan should keep its id")
	}
	if got.Stats.Blocks != 8 {
		t.Errorf("cached stats blocks = %d, want 8", got.Stats.Blocks)
	}

	// Different seed is a different key
	third, _ := r.Execute(ctx, source(), Options{Building: "gate", Seed: 9})
	if third.Buildings[0].CacheHit {
		t.Error("different seed should miss")
	}

	// Refresh skips the read
	fourth, _ := r.Execute(ctx, source(), Options{Building: "gate", Refresh: true})
	if fourth.Buildings[0].CacheHit {
		t.Error("refresh should not read the cache")
	}

	if first.ConfigHash != second.ConfigHash {
		t.Error("same source should hash the same")
	}
}

func TestExecuteAll(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), source(), Options{
		All:     true,
		Formats: []string{"dot"},
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(res.Buildings) != 2 {
		t.Fatalf("buildings = %d, want 2", len(res.Buildings))
	}
	if res.Buildings[0].Plan.BuildingID != "gate" || res.Buildings[1].Plan.BuildingID != "hut" {
		t.Error("results should keep document order")
	}
	dot := string(res.Buildings[1].Artifacts["dot"])
	if !strings.HasPrefix(dot, `digraph "hut"`) {
		t.Errorf("unexpected dot output: %s", dot)
	}
}

func TestExecuteSameAloneAndConcurrent(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)

	alone, err := r.Execute(ctx, source(), Options{Building: "hut"})
	if err != nil {
		t.Fatal(err)
	}
	all, err := r.Execute(ctx, source(), Options{All: true})
	if err != nil {
		t.Fatal(err)
	}
	a, b := alone.Buildings[0].Plan, all.Buildings[1].Plan
	if len(a.Sections[0].Blocks) != len(b.Sections[0].Blocks) {
		t.Fatal("block counts differ")
	}
	for i := range a.Sections[0].Blocks {
		if a.Sections[0].Blocks[i] != b.Sections[0].Blocks[i] {
			t.Errorf("block %d differs: %+v vs %+v", i, a.Sections[0].Blocks[i], b.Sections[0].Blocks[i])
		}
	}
}

func TestExecuteErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)

	_, err := r.Execute(ctx, source(), Options{Building: "castle"})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown building = %v, want NOT_FOUND", err)
	}

	_, err = r.Execute(ctx, NewSource("bad.yaml", config.FormatYAML, []byte("buildings: {")), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("bad document = %v, want INVALID_CONFIG", err)
	}

	_, err = r.Execute(ctx, source(), Options{All: true, Building: "gate"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad options = %v, want INVALID_INPUT", err)
	}
}

func TestPlanKeyOpts(t *testing.T) {
	plain := (&Options{Seed: 1}).PlanKeyOpts()
	if plain.Defaults != "" {
		t.Error("no extra defaults should leave the hash empty")
	}

	a := (&Options{Defaults: map[string]param.Parameter{
		"blockMass": param.FloatLiteral(5),
		"floors":    param.IntLiteral(3),
	}}).PlanKeyOpts()
	b := (&Options{Defaults: map[string]param.Parameter{
		"floors":    param.IntLiteral(3),
		"blockMass": param.FloatLiteral(5),
	}}).PlanKeyOpts()
	if a.Defaults != b.Defaults || a.Defaults == "" {
		t.Error("defaults hash should be order independent")
	}

	k := cache.NewDefaultKeyer()
	if k.PlanKey("h", "gate", a) == k.PlanKey("h", "gate", plain) {
		t.Error("defaults should change the plan key")
	}
}

func TestSourceHash(t *testing.T) {
	yaml := NewSource("a", config.FormatYAML, []byte("x"))
	json := NewSource("a", config.FormatJSON, []byte("x"))
	if yaml.Hash() == json.Hash() {
		t.Error("format should be part of the hash")
	}
	if yaml.Hash() != NewSource("b", config.FormatYAML, []byte("x")).Hash() {
		t.Error("name should not be part of the hash")
	}
}

func TestLoadSource(t *testing.T) {
	src, err := LoadSource("../config/testdata/towers.yaml")
	if err != nil {
		t.Fatalf("LoadSource error: %v", err)
	}
	if src.Format != config.FormatYAML || src.Name != "towers.yaml" {
		t.Errorf("source = %s %s", src.Name, src.Format)
	}

	if _, err := LoadSource("missing.yaml"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("missing file = %v, want NOT_FOUND", err)
	}
}

func TestExampleCastle(t *testing.T) {
	src, err := LoadSource("../../examples/castle.yaml")
	if err != nil {
		t.Fatalf("LoadSource error: %v", err)
	}
	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), src, Options{All: true})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(result.Buildings) != 1 {
		t.Fatalf("got %d buildings, want 1", len(result.Buildings))
	}

	p := result.Buildings[0].Plan
	if len(p.Sections) != 4 {
		t.Fatalf("got %d sections, want 4", len(p.Sections))
	}
	if !p.Sections[0].Static || p.Sections[1].Static {
		t.Error("only the foundation should be static")
	}
	for _, s := range p.Sections[2:] {
		if h := s.Size[2]; h < 4 || h > 7 {
			t.Errorf("tower %s height = %d, want 4..7", s.ID, h)
		}
	}
	if want := 8*8 + 6*6*3 + 2*4; p.BlockCount() < want {
		t.Errorf("BlockCount = %d, want at least %d", p.BlockCount(), want)
	}
	if len(p.CrossLinks) == 0 {
		t.Error("sections should be linked")
	}
}
