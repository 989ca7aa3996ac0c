package chart

// Point is a surface-local pixel position.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	Min, Max Point
}

// NewRect builds a rectangle from its top-left corner and size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{Min: Point{X: x, Y: y}, Max: Point{X: x + w, Y: y + h}}
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Color is an RGBA colour.
type Color struct {
	R, G, B, A uint8
}

var (
	Green      = Color{R: 0, G: 255, B: 0, A: 255}
	Red        = Color{R: 255, G: 0, B: 0, A: 255}
	Guide      = Color{R: 255, G: 255, B: 255, A: 100}
	Background = Color{R: 20, G: 20, B: 20, A: 255}
	Overlay    = Color{R: 80, G: 160, B: 255, A: 255}
)

// FilledRect is a solid rectangle, used for candle bodies.
type FilledRect struct {
	Rect  Rect
	Color Color
}

// Line is a straight segment with a stroke width.
type Line struct {
	From, To Point
	Width    float64
	Color    Color
}

// Polyline is a connected series of points, used for indicator overlays.
type Polyline struct {
	Name   string
	Points []Point
	Width  float64
	Color  Color
}
