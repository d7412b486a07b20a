package plan

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures link graph output.
type DOTOptions struct {
	// Blocks draws one node per block with every joint. When false, each
	// section is a single node and cross links are counted per direction.
	Blocks bool
}

// ToDOT converts the link structure of p to Graphviz DOT. The result can
// be rendered with [RenderSVG].
func ToDOT(p *Plan, opts DOTOptions) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", p.BuildingID)
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	if opts.Blocks {
		writeBlocks(&buf, p)
	} else {
		writeSections(&buf, p)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeSections(buf *bytes.Buffer, p *Plan) {
	for _, s := range p.Sections {
		label := fmt.Sprintf("%s\n%d blocks", s.ID, len(s.Blocks))
		attrs := fmt.Sprintf("label=%q", label)
		if s.Static {
			attrs += ", fillcolor=lightgrey"
		}
		fmt.Fprintf(buf, "  %q [%s];\n", sectionNode(s.Index), attrs)
	}

	type pair struct{ from, to int }
	counts := make(map[pair]int)
	var order []pair
	for _, l := range p.CrossLinks {
		k := pair{l.FromSection, l.ToSection}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	if len(order) > 0 {
		buf.WriteString("\n")
	}
	for _, k := range order {
		fmt.Fprintf(buf, "  %q -> %q [label=\"%d\"];\n", sectionNode(k.from), sectionNode(k.to), counts[k])
	}
}

func writeBlocks(buf *bytes.Buffer, p *Plan) {
	for _, s := range p.Sections {
		fmt.Fprintf(buf, "  subgraph \"cluster_%d\" {\n", s.Index)
		fmt.Fprintf(buf, "    label=%q;\n", s.ID)
		for _, b := range s.Blocks {
			label := fmt.Sprintf("%s #%d\n%s", b.BlockID, b.Cell, b.PointType)
			fmt.Fprintf(buf, "    %q [label=%q];\n", blockNode(s.Index, b.Cell), label)
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("\n")
	for _, l := range p.InnerLinks {
		fmt.Fprintf(buf, "  %q -> %q [arrowhead=none];\n",
			blockNode(l.FromSection, l.FromCell), blockNode(l.ToSection, l.ToCell))
	}
	for _, l := range p.CrossLinks {
		fmt.Fprintf(buf, "  %q -> %q [color=red, penwidth=2];\n",
			blockNode(l.FromSection, l.FromCell), blockNode(l.ToSection, l.ToCell))
	}
}

func sectionNode(i int) string { return "s" + strconv.Itoa(i) }

func blockNode(section, cell int) string { return fmt.Sprintf("s%d_c%d", section, cell) }

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox drops Graphviz's pt units so the SVG scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
