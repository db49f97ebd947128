package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/tentview/internal/render"
	"github.com/san-kum/tentview/internal/view"
)

type face struct {
	pts   [][2]float64
	depth float64
	fill  string
	alpha float64
}

// SVG draws s as seen through cam. Faces are painted back to front and
// edges and points follow the scene style.
func SVG(s *render.Scene, width, height int, cam Camera) string {
	p := newProjection(cam, s.Bounds, width, height)
	bg := colorful.Color{R: s.Palette.Background[0], G: s.Palette.Background[1], B: s.Palette.Background[2]}.Clamped()
	fg := colorful.Color{R: s.Palette.Text[0], G: s.Palette.Text[1], B: s.Palette.Text[2]}.Clamped()

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, bg.Hex())

	for _, l := range []*render.Layer{s.Base, s.Layer} {
		if l == nil || !l.Visible {
			continue
		}
		writeLayer(&sb, l, s.Style, p, fg.Hex())
	}

	fmt.Fprintf(&sb, `<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s [%g, %g] %d elements</text>
`, height-8, fg.Hex(), escape(s.Field.Name), s.Lower, s.Upper, s.Elements())
	sb.WriteString("</svg>\n")
	return sb.String()
}

func writeLayer(sb *strings.Builder, l *render.Layer, style view.Style, p projection, edge string) {
	screen := make([][2]float64, len(l.Points))
	depth := make([]float64, len(l.Points))
	for i, pt := range l.Points {
		x, y, d := p.project(pt)
		screen[i] = [2]float64{x, y}
		depth[i] = d
	}

	switch style.Mode {
	case "points":
		fmt.Fprintf(sb, `<g fill-opacity="%.2f">`+"\n", l.Opacity)
		for i, pt := range screen {
			fmt.Fprintf(sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
				pt[0], pt[1], style.PointSize/2, hexAt(l.PointColors, i))
		}
		sb.WriteString("</g>\n")
		return
	case "wireframe":
		writeEdges(sb, l, screen, hexAt(l.PointColors, 0), l.Opacity)
		return
	}

	faces := make([]face, 0, len(l.Faces))
	for i, ids := range l.Faces {
		f := face{pts: make([][2]float64, len(ids)), fill: hexAt(l.FaceColors, i), alpha: l.Opacity}
		for j, id := range ids {
			f.pts[j] = screen[id]
			f.depth += depth[id]
		}
		if len(ids) > 0 {
			f.depth /= float64(len(ids))
		}
		faces = append(faces, f)
	}
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].depth < faces[j].depth })

	sb.WriteString("<g>\n")
	for _, f := range faces {
		sb.WriteString(`<polygon points="`)
		for j, pt := range f.pts {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(sb, "%.1f,%.1f", pt[0], pt[1])
		}
		fmt.Fprintf(sb, `" fill="%s" fill-opacity="%.2f"/>`+"\n", f.fill, f.alpha)
	}
	sb.WriteString("</g>\n")

	if style.Edges {
		writeEdges(sb, l, screen, edge, 1)
	}
}

func writeEdges(sb *strings.Builder, l *render.Layer, screen [][2]float64, stroke string, opacity float64) {
	if len(l.Edges) == 0 {
		return
	}
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-opacity="%.2f" stroke-width="1" d="`, stroke, opacity)
	for i, e := range l.Edges {
		if i > 0 {
			sb.WriteByte(' ')
		}
		a, b := screen[e[0]], screen[e[1]]
		fmt.Fprintf(sb, "M%.1f,%.1f L%.1f,%.1f", a[0], a[1], b[0], b[1])
	}
	sb.WriteString(`"/>` + "\n")
}

func hexAt(colors []render.RGB, i int) string {
	if i >= len(colors) {
		return "#cccccc"
	}
	c := colors[i]
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

// WriteSVG writes the drawing of s to w.
func WriteSVG(w io.Writer, s *render.Scene, width, height int, cam Camera) error {
	_, err := io.WriteString(w, SVG(s, width, height, cam))
	return err
}

// SVGFile writes the drawing of s to path.
func SVGFile(path string, s *render.Scene, width, height int, cam Camera) error {
	return os.WriteFile(path, []byte(SVG(s, width, height, cam)), 0644)
}
