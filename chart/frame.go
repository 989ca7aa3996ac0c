package chart

import (
	"math"

	"github.com/rustyeddy/tickchart/market"
)

// Bounds is the data range mapped onto the plot area.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// PriceBounds returns the padded price range of candles. The range is
// widened by 10% on both sides; a flat range gets a small synthetic pad so
// YMax > YMin always holds. With no candles the fallback candle is used.
func PriceBounds(candles []market.Candle, fallback market.Candle) Bounds {
	if len(candles) == 0 {
		candles = []market.Candle{fallback}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range candles {
		lo = math.Min(lo, c.Low)
		hi = math.Max(hi, c.High)
	}

	pad := (hi - lo) * rangePad
	if pad <= 0 {
		pad = math.Abs((hi+lo)/2) * flatPad
		if pad == 0 {
			pad = 1
		}
	}
	return Bounds{YMin: lo - pad, YMax: hi + pad}
}

// Slot is a visible candle and the x coordinate of its centre.
type Slot struct {
	Candle market.Candle
	X      float64
}

// Frame is everything needed to draw one chart.
type Frame struct {
	Surface   Rect
	Padding   float64
	Bounds    Bounds
	Offset    int
	Following bool
	Live      bool

	Slots     []Slot
	Bodies    []FilledRect
	Wicks     []Line
	PriceLine Line
	Overlays  []Polyline
}

// Y maps a price to a surface y coordinate. Higher prices map to smaller y.
func (f Frame) Y(price float64) float64 {
	norm := (price - f.Bounds.YMin) / (f.Bounds.YMax - f.Bounds.YMin)
	plot := f.Surface.Height() - 2*f.Padding
	return f.Surface.Max.Y - f.Padding - norm*plot
}

// AddOverlay draws values (keyed by candle index) as a polyline across the
// visible slots. Slots without a value are skipped.
func (f *Frame) AddOverlay(name string, values map[int]float64) {
	line := Polyline{Name: name, Width: 1.5, Color: Overlay}
	for _, s := range f.Slots {
		v, ok := values[s.Candle.Index]
		if !ok {
			continue
		}
		line.Points = append(line.Points, Point{X: s.X, Y: f.Y(v)})
	}
	if len(line.Points) > 0 {
		f.Overlays = append(f.Overlays, line)
	}
}

// Latest returns the newest visible candle.
func (f Frame) Latest() (market.Candle, bool) {
	if len(f.Slots) == 0 {
		return market.Candle{}, false
	}
	return f.Slots[len(f.Slots)-1].Candle, true
}
