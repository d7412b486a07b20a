package config

import (
	"github.com/NyankoNyan/buildgen/pkg/errors"
	"github.com/NyankoNyan/buildgen/pkg/grid"
	"github.com/NyankoNyan/buildgen/pkg/param"
)

// Build maps a decoded document tree onto a [File]. Unknown fields are
// ignored; malformed parameters fail with INVALID_CONFIG.
func Build(tree any) (*File, error) {
	root, ok := asMap(tree)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "document root must be a mapping")
	}

	f := &File{Version: DefaultVersion}
	if v, ok := root["version"]; ok && v != nil {
		s, ok := scalarText(v)
		if !ok {
			return nil, path("version").errorf("must be a scalar")
		}
		f.Version = s
	}

	var err error
	if f.Parameters, err = parseParameters("parameters", root["parameters"]); err != nil {
		return nil, err
	}

	groups, err := list("blockGroups", root["blockGroups"])
	if err != nil {
		return nil, err
	}
	for i, node := range groups {
		g, err := buildBlockGroup(path("blockGroups").index(i), node)
		if err != nil {
			return nil, err
		}
		f.BlockGroups = append(f.BlockGroups, g)
	}

	buildings, err := list("buildings", root["buildings"])
	if err != nil {
		return nil, err
	}
	for i, node := range buildings {
		b, err := buildBuilding(path("buildings").index(i), node)
		if err != nil {
			return nil, err
		}
		f.Buildings = append(f.Buildings, b)
	}
	return f, nil
}

func buildBlockGroup(p path, node any) (BlockGroup, error) {
	m, ok := asMap(node)
	if !ok {
		return BlockGroup{}, p.errorf("block group must be a mapping")
	}
	id, err := identifier(p, "block group", m)
	if err != nil {
		return BlockGroup{}, err
	}
	g := BlockGroup{ID: id}

	blocks, err := list(p.key("blocks"), m["blocks"])
	if err != nil {
		return BlockGroup{}, err
	}
	for i, bn := range blocks {
		bp := p.key("blocks").index(i)
		bm, ok := asMap(bn)
		if !ok {
			return BlockGroup{}, bp.errorf("block must be a mapping")
		}
		bid, err := identifier(bp, "block", bm)
		if err != nil {
			return BlockGroup{}, err
		}
		b := Block{ID: bid, PointType: grid.Inside}
		if raw, ok := bm["pointType"]; ok && raw != nil {
			s, _ := scalarText(raw)
			if b.PointType, err = grid.ParsePointType(s); err != nil {
				return BlockGroup{}, bp.key("pointType").wrap(err)
			}
		}
		g.Blocks = append(g.Blocks, b)
	}
	return g, nil
}

func buildBuilding(p path, node any) (Building, error) {
	m, ok := asMap(node)
	if !ok {
		return Building{}, p.errorf("building must be a mapping")
	}
	id, err := identifier(p, "building", m)
	if err != nil {
		return Building{}, err
	}
	b := Building{
		ID:          id,
		Name:        text(m["name"]),
		Description: text(m["description"]),
	}
	if b.Parameters, err = parseParameters(p.key("parameters"), m["parameters"]); err != nil {
		return Building{}, err
	}

	sections, err := list(p.key("sections"), m["sections"])
	if err != nil {
		return Building{}, err
	}
	for i, sn := range sections {
		s, err := buildSection(p.key("sections").index(i), sn)
		if err != nil {
			return Building{}, err
		}
		b.Sections = append(b.Sections, s)
	}
	return b, nil
}

func buildSection(p path, node any) (Section, error) {
	m, ok := asMap(node)
	if !ok {
		return Section{}, p.errorf("section must be a mapping")
	}
	id, err := identifier(p, "section", m)
	if err != nil {
		return Section{}, err
	}
	s := Section{
		ID:           id,
		Description:  text(m["description"]),
		BlockGroupID: text(m["blockGroupId"]),
		Position:     param.IntVector(0, 0, 0),
		Rotation:     param.IntVector(0, 0, 0),
		Grid:         DefaultGridSettings(),
	}

	if raw, ok := m["position"]; ok && raw != nil {
		if s.Position, err = parseParameter(p.key("position"), raw); err != nil {
			return Section{}, err
		}
	}
	if raw, ok := m["rotation"]; ok && raw != nil {
		if s.Rotation, err = parseParameter(p.key("rotation"), raw); err != nil {
			return Section{}, err
		}
	}
	if s.Parameters, err = parseParameters(p.key("parameters"), m["parameters"]); err != nil {
		return Section{}, err
	}

	if raw, ok := m["generationSettingsGrid"]; ok && raw != nil {
		gp := p.key("generationSettingsGrid")
		gm, ok := asMap(raw)
		if !ok {
			return Section{}, gp.errorf("grid settings must be a mapping")
		}
		if v, ok := gm["size"]; ok && v != nil {
			if s.Grid.Size, err = parseParameter(gp.key("size"), v); err != nil {
				return Section{}, err
			}
		}
		if v, ok := gm["spacing"]; ok && v != nil {
			if s.Grid.Spacing, err = parseParameter(gp.key("spacing"), v); err != nil {
				return Section{}, err
			}
		}
	}
	return s, nil
}

func identifier(p path, kind string, m map[string]any) (string, error) {
	id, _ := scalarText(m["id"])
	if err := errors.ValidateIdentifier(kind, id); err != nil {
		return "", p.wrap(err)
	}
	return id, nil
}

func list(p path, node any) ([]any, error) {
	if node == nil {
		return nil, nil
	}
	l, ok := asList(node)
	if !ok {
		return nil, p.errorf("must be a sequence")
	}
	return l, nil
}

func text(node any) string {
	s, _ := scalarText(node)
	return s
}
