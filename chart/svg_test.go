package chart

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSVG(t *testing.T) {
	h := history(8)
	v := NewViewport(Options{Padding: DefaultPadding})
	f := v.Render(h, currentAfter(h, 101), surface)
	f.AddOverlay("MA(3)", map[int]float64{6: 101, 7: 102, 8: 101.5})

	var buf bytes.Buffer
	err := WriteSVG(&buf, f, SVGMeta{ID: "01HXYZ", Title: "1m <demo>", Price: 101.234})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" width="640.00" height="300.00"`))
	assert.Contains(t, out, `data-session="01HXYZ"`)
	assert.Contains(t, out, "1m &lt;demo&gt; 101.23")
	assert.NotContains(t, out, "scrolled")

	// background plus one body per candle
	assert.Equal(t, 1+9, strings.Count(out, "<rect "))
	// price guide plus one wick per candle
	assert.Equal(t, 1+9, strings.Count(out, "<line "))
	assert.Equal(t, 1, strings.Count(out, "<polyline "))
	assert.Contains(t, out, "<title>MA(3)</title>")
	assert.Contains(t, out, `fill="#00ff00"`)
	assert.Contains(t, out, `stroke-opacity="0.39"`)
}

func TestWriteSVGEscapesOverlayName(t *testing.T) {
	h := history(5)
	v := NewViewport(Options{Padding: DefaultPadding})
	f := v.Render(h, currentAfter(h, 101), surface)
	f.AddOverlay(`EMA<5> & "fast"`, map[int]float64{3: 101, 4: 102})

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, f, SVGMeta{Title: "1m"}))
	out := buf.String()
	assert.Contains(t, out, "<title>EMA&lt;5&gt; &amp; &#34;fast&#34;</title>")
	assert.NotContains(t, out, "<5>")
}

func TestWriteSVGScrolled(t *testing.T) {
	h := history(50)
	v := NewViewport(Options{Padding: DefaultPadding})
	v.Render(h, currentAfter(h, 101), surface)
	v.Drag(surface, len(h), -100)

	f := v.Render(h, currentAfter(h, 101), surface)
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, f, SVGMeta{Title: "5m"}))
	assert.Contains(t, buf.String(), "[scrolled 5]")
}

func TestRGB(t *testing.T) {
	assert.Equal(t, "#ff0000", rgb(Red))
	assert.Equal(t, "#141414", rgb(Background))
	assert.Equal(t, "1.00", opacity(Green))
	assert.Equal(t, "1.00,2.50 3.00,4.00", points([]Point{{1, 2.5}, {3, 4}}))
}
