package chart

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/template"
)

// SVGMeta is the text decoration written around a frame.
type SVGMeta struct {
	ID    string
	Title string
	Price float64
}

var svgTemplate = template.Must(template.New("svg").Funcs(template.FuncMap{
	"rgb":     rgb,
	"opacity": opacity,
	"num":     num,
	"height":  bodyHeight,
	"points":  points,
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{num .F.Surface.Width}}" height="{{num .F.Surface.Height}}" viewBox="{{num .F.Surface.Min.X}} {{num .F.Surface.Min.Y}} {{num .F.Surface.Width}} {{num .F.Surface.Height}}" data-session="{{.M.ID}}">
  <rect x="{{num .F.Surface.Min.X}}" y="{{num .F.Surface.Min.Y}}" width="{{num .F.Surface.Width}}" height="{{num .F.Surface.Height}}" fill="{{rgb .Background}}"/>
  <text x="{{num .TitleX}}" y="{{num .TitleY}}" fill="#ffffff" font-family="monospace" font-size="12">{{html .M.Title}} {{printf "%.2f" .M.Price}}{{if not .F.Following}} [scrolled {{.F.Offset}}]{{end}}</text>
  <line x1="{{num .F.PriceLine.From.X}}" y1="{{num .F.PriceLine.From.Y}}" x2="{{num .F.PriceLine.To.X}}" y2="{{num .F.PriceLine.To.Y}}" stroke="{{rgb .F.PriceLine.Color}}" stroke-opacity="{{opacity .F.PriceLine.Color}}" stroke-width="{{num .F.PriceLine.Width}}"/>
{{- range .F.Wicks}}
  <line x1="{{num .From.X}}" y1="{{num .From.Y}}" x2="{{num .To.X}}" y2="{{num .To.Y}}" stroke="{{rgb .Color}}" stroke-width="{{num .Width}}"/>
{{- end}}
{{- range .F.Bodies}}
  <rect x="{{num .Rect.Min.X}}" y="{{num .Rect.Min.Y}}" width="{{num .Rect.Width}}" height="{{height .Rect}}" fill="{{rgb .Color}}"/>
{{- end}}
{{- range .F.Overlays}}
  <polyline points="{{points .Points}}" fill="none" stroke="{{rgb .Color}}" stroke-width="{{num .Width}}"><title>{{html .Name}}</title></polyline>
{{- end}}
</svg>
`))

// WriteSVG renders f as a standalone SVG document.
func WriteSVG(w io.Writer, f Frame, meta SVGMeta) error {
	data := struct {
		F              Frame
		M              SVGMeta
		Background     Color
		TitleX, TitleY float64
	}{
		F:          f,
		M:          meta,
		Background: Background,
		TitleX:     f.Surface.Min.X + f.Padding,
		TitleY:     f.Surface.Min.Y + math.Max(f.Padding-6, 12),
	}
	if err := svgTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	return nil
}

func rgb(c Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func opacity(c Color) string {
	return num(float64(c.A) / 255)
}

func num(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// bodyHeight keeps doji bodies visible.
func bodyHeight(r Rect) string {
	return num(math.Max(r.Height(), 1))
}

func points(ps []Point) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = num(p.X) + "," + num(p.Y)
	}
	return strings.Join(parts, " ")
}
