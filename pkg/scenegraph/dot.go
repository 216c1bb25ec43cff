package scenegraph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mockup/pkg/scene"
)

// Options configures scene graph generation.
type Options struct {
	// Detailed adds position, rotation, scale and size to element labels.
	Detailed bool

	// Title labels the graph. Empty means no title.
	Title string
}

var kindFill = map[scene.ObjectKind]string{
	scene.KindBackdrop: "lightgrey",
	scene.KindGarment:  "lightblue",
	scene.KindText:     "lightyellow",
	scene.KindImage:    "palegreen",
}

// ToDOT converts the objects of s to Graphviz DOT, bottom object first.
func ToDOT(s *scene.Surface, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph scene {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.3;\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", opts.Title)
	}
	buf.WriteString("\n")

	handles := s.Handles()
	ids := make([]string, 0, len(handles))
	for _, h := range handles {
		obj, ok := s.Get(h)
		if !ok {
			continue
		}
		tag, _ := s.Tag(h)
		id := fmt.Sprintf("o%d", h)
		ids = append(ids, id)
		fmt.Fprintf(&buf, "  %s [%s];\n", id, strings.Join(fmtAttrs(obj, tag, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for i := 1; i < len(ids); i++ {
		fmt.Fprintf(&buf, "  %s -> %s;\n", ids[i-1], ids[i])
	}
	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(obj *scene.Object, tag scene.Tag, detailed bool) string {
	parts := []string{string(obj.Kind)}
	switch {
	case obj.IsBase():
		if obj.Kind == scene.KindBackdrop && obj.Fill != "" {
			parts = append(parts, obj.Fill)
		}
	case tag.LayerID != "":
		parts = append(parts, "layer: "+tag.LayerID)
		if tag.PresetID != "" {
			parts = append(parts, "preset: "+tag.PresetID)
		}
	}
	if obj.Text != nil {
		parts = append(parts, strconv.Quote(truncate(obj.Text.Content, 24)))
	}
	if !detailed {
		return strings.Join(parts, "\n")
	}
	w, h := obj.ScaledSize()
	parts = append(parts,
		fmt.Sprintf("at: %.0f,%.0f", obj.X, obj.Y),
		fmt.Sprintf("size: %.0fx%.0f", w, h),
	)
	if obj.Angle != 0 {
		parts = append(parts, fmt.Sprintf("angle: %.1f", obj.Angle))
	}
	if !obj.IsBase() {
		parts = append(parts, fmt.Sprintf("scale: %.3f", obj.ScaleX))
	}
	if obj.DPI > 0 {
		parts = append(parts, fmt.Sprintf("dpi: %.0f", obj.DPI))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(obj *scene.Object, tag scene.Tag, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(obj, tag, detailed))}
	if fill, ok := kindFill[obj.Kind]; ok {
		attrs = append(attrs, "fillcolor="+fill)
	}
	if !obj.IsBase() && tag.LayerID == "" {
		// untracked element, not backed by any layer
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
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

// normalizeViewBox replaces the Graphviz svg header with one whose
// viewBox starts at the origin.
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
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
