// Package pkg provides the libraries of buildgen, a generator of destructible
// buildings for physics engines.
//
// # Overview
//
// A building is described by a configuration document: named parameters,
// block groups and buildings made of sections. Each section is laid out on a
// grid, every cell is classified (inside, boundary, corner) and filled with a
// block of its group, and neighboring blocks are joined by breakable links.
// Blocks of different sections are linked once the physics engine has seen
// them, two fixed steps after placement.
//
// # Architecture
//
// The data flow through buildgen:
//
//	YAML / JSON / TOML document
//	         ↓
//	    [config] package (decode into the model and parameter trees)
//	         ↓
//	    [param] package (evaluate expressions in nested scopes)
//	         ↓
//	    [grid] package (cell ids, point types, inner and potential links)
//	         ↓
//	    [building] package (assemble sections, flush cross-section links)
//	         ↓
//	    [plan] package (JSON, msgpack, DOT and SVG output; plan stores)
//
// # Quick Start
//
// Generate one building against the in-memory reference engine:
//
//	import (
//	    "context"
//	    "github.com/NyankoNyan/buildgen/pkg/building"
//	    "github.com/NyankoNyan/buildgen/pkg/config"
//	    "github.com/NyankoNyan/buildgen/pkg/engine/memory"
//	)
//
//	f, _ := config.Load("towers.yaml")
//	world := memory.New()
//	asm := building.NewAssembler(building.NewLibrary(f), world)
//
//	// 1. Place every section and its inner links
//	pending, _ := asm.Assemble(ctx, "twin")
//
//	// 2. Step the engine twice so the new blocks are visible to queries
//	queue := &building.LinkQueue{}
//	queue.Push(pending)
//	for queue.Len() > 0 {
//	    for _, p := range queue.Tick() {
//	        report, _ := asm.FlushLinks(ctx, p)
//	        _ = report
//	    }
//	    world.Step()
//	}
//
// [pipeline] wraps these steps with caching, output encoding and concurrent
// generation of every building of a document.
//
// # Main Packages
//
// ## Generation
//
// [param] - Parameter expressions: literals, references, operations, vectors
// and random ranges, evaluated with type coercion in a chain of scopes.
//
// [config] - Document decoding. The three syntaxes share one generic tree,
// so every surface form of a parameter works in all of them.
//
// [grid] - Grid geometry: cell ids, point types and depths, inner links and
// the potential links on the outer faces of a section.
//
// [geom] - Poses and the Euler convention of the target engines.
//
// [building] - The assembler, the library of documents, the cross-section
// linker and the two-tick link queue.
//
// [engine/memory] - Reference engine with a broad-phase spatial hash. Used by
// the CLI, the API and tests.
//
// ## Output and Infrastructure
//
// [plan] - Serializable generation result with JSON and msgpack encodings,
// Graphviz rendering, and file and MongoDB stores.
//
// [pipeline] - Decode → assemble → link → encode, used by the CLI and the API.
//
// [cache] - Plan and graph caching: file, Redis and null backends with key
// derivation and retries.
//
// [errors] - Coded errors shared by every package, mapped to HTTP statuses.
//
// [observability] - Hooks for generation, cache and HTTP events.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/building/...           # Specific package
//
// [config]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/config
// [param]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/param
// [grid]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/grid
// [geom]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/geom
// [building]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/building
// [engine/memory]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/engine/memory
// [plan]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/plan
// [pipeline]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/cache
// [errors]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/errors
// [observability]: https://pkg.go.dev/github.com/NyankoNyan/buildgen/pkg/observability
package pkg
