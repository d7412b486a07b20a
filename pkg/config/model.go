// Package config reads building generator configuration documents.
//
// A document is a tree of mappings, sequences and scalars. YAML, JSON and
// TOML are accepted; each is decoded into the same generic tree and then
// mapped onto the model below, so the three syntaxes are interchangeable:
//
//	version: "0.3"
//	parameters:
//	  xsize: 5
//	blockGroups:
//	  - id: layer1
//	    blocks:
//	      - { id: b2_f, pointType: Inside }
//	buildings:
//	  - id: b1
//	    sections:
//	      - id: sc1
//	        blockGroupId: layer1
//	        generationSettingsGrid:
//	          size: [$xsize, 5, 1]
//
// Parameter values accept several equivalent surface forms; see
// [ParseParameter].
package config

import (
	"github.com/NyankoNyan/buildgen/pkg/grid"
	"github.com/NyankoNyan/buildgen/pkg/param"
)

// DefaultVersion is assumed when a document has no version field.
const DefaultVersion = "0.2"

// File is one configuration document.
type File struct {
	Version     string
	Parameters  map[string]param.Parameter
	BlockGroups []BlockGroup
	Buildings   []Building
}

// Building is a set of sections generated and linked together.
type Building struct {
	ID          string
	Name        string
	Description string
	Parameters  map[string]param.Parameter
	Sections    []Section
}

// Section is one grid-generated region of a building.
type Section struct {
	ID           string
	Description  string
	Position     param.Parameter
	Rotation     param.Parameter
	BlockGroupID string
	Parameters   map[string]param.Parameter
	Grid         GridSettings
}

// GridSettings holds the size (integer vector) and spacing (float vector)
// expressions of a grid section.
type GridSettings struct {
	Size    param.Parameter
	Spacing param.Parameter
}

// BlockGroup is a catalog of blocks a section can place.
type BlockGroup struct {
	ID     string
	Blocks []Block
}

// Block is a placeable block id and the cell classification it fills.
type Block struct {
	ID        string
	PointType grid.PointType
}

// DefaultGridSettings returns a single cell with unit spacing.
func DefaultGridSettings() GridSettings {
	return GridSettings{
		Size:    param.IntVector(1, 1, 1),
		Spacing: param.FloatVector(1, 1, 1),
	}
}

// Building returns the building with the given id.
func (f *File) Building(id string) (*Building, bool) {
	for i := range f.Buildings {
		if f.Buildings[i].ID == id {
			return &f.Buildings[i], true
		}
	}
	return nil, false
}

// BlockGroup returns the block group with the given id.
func (f *File) BlockGroup(id string) (*BlockGroup, bool) {
	for i := range f.BlockGroups {
		if f.BlockGroups[i].ID == id {
			return &f.BlockGroups[i], true
		}
	}
	return nil, false
}

// Match returns the first block whose point type is pt.
func (g *BlockGroup) Match(pt grid.PointType) (Block, bool) {
	for _, b := range g.Blocks {
		if b.PointType == pt {
			return b, true
		}
	}
	return Block{}, false
}

// Label returns "[id] name", or just the id for unnamed buildings.
func (b *Building) Label() string {
	if b.Name == "" {
		return "[" + b.ID + "]"
	}
	return "[" + b.ID + "] " + b.Name
}
