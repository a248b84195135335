package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/roman-kulish/wireless-surveillance/internal/geo"
	"github.com/roman-kulish/wireless-surveillance/internal/mapdata"
)

const (
	defaultWidth = 1280
	fontSize     = 12.0

	// Web Mercator is undefined at the poles.
	mercatorLatLimit = 85.05112878

	// minSpan widens a degenerate bounding box so a capture with a
	// single fix still renders a sensible window (a few hundred
	// meters at the equator).
	minSpan = 1e-5

	minPlotHeight = 320

	markerRadius  = 4
	snooperRadius = 5
	alertRadius   = 7

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultSideBorder   = 24
	defaultBottomBorder = 110
)

var frameColor = color.RGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}

// BorderConfig defines the sizes of white space around the map area
type BorderConfig struct {
	Top    int // Space for the title
	Left   int
	Bottom int // Space for the legend and summary
	Right  int
}

// RenderConfig holds the configuration options for map rendering
type RenderConfig struct {
	Width         int     // Output image width in pixels
	FontSize      float64 // Font size in points
	NoAnnotations bool    // Skip the title, legend and summary
	Borders       BorderConfig
}

// MapRenderer draws a feature collection onto a static image.
type MapRenderer struct {
	config    RenderConfig
	annotator *annotator
}

// NewMapRenderer creates a map renderer with the given configuration
func NewMapRenderer(config RenderConfig) (*MapRenderer, error) {
	// Set defaults for zero values
	if config.Width == 0 {
		config.Width = defaultWidth
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.Borders.Top == 0 {
		config.Borders.Top = defaultTopBorder
	}
	if config.Borders.Left == 0 {
		config.Borders.Left = defaultSideBorder
	}
	if config.Borders.Bottom == 0 {
		config.Borders.Bottom = defaultBottomBorder
	}
	if config.Borders.Right == 0 {
		config.Borders.Right = defaultSideBorder
	}
	if config.NoAnnotations {
		config.Borders.Top = defaultSideBorder
		config.Borders.Bottom = defaultSideBorder
	}

	r := &MapRenderer{config: config}
	if !config.NoAnnotations {
		ann, err := newAnnotator(config.FontSize)
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		r.annotator = ann
	}
	return r, nil
}

func (r *MapRenderer) Close() error {
	if r.annotator != nil {
		return r.annotator.Close()
	}
	return nil
}

// Render projects the document into Web Mercator, fits it to the
// configured width and draws tracks under markers. The image height
// follows the shape of the surveyed area.
func (r *MapRenderer) Render(doc *mapdata.FeatureCollection) (*image.RGBA, error) {
	points := documentPoints(doc)
	if len(points) == 0 && len(doc.Metadata.Center) == 2 {
		points = append(points, [2]float64{doc.Metadata.Center[1], doc.Metadata.Center[0]})
	}

	b := r.config.Borders
	plotWidth := r.config.Width - b.Left - b.Right
	plotHeight := fitHeight(points, plotWidth)

	img := image.NewRGBA(image.Rect(0, 0, r.config.Width, plotHeight+b.Top+b.Bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	plotArea := image.Rect(b.Left, b.Top, b.Left+plotWidth, b.Top+plotHeight)
	drawFrame(img, plotArea, frameColor)

	proj := newProjector(points, plotArea)

	r.renderTracks(img, proj, doc)
	r.renderMarkers(img, proj, doc)

	if r.annotator != nil {
		if err := r.annotator.annotate(img, doc, geoSpan(points), plotArea); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}
	return img, nil
}

func (r *MapRenderer) renderTracks(img *image.RGBA, proj *projector, doc *mapdata.FeatureCollection) {
	for _, f := range doc.Features {
		if f.Properties.Kind != mapdata.KindTrack {
			continue
		}
		coords, ok := f.Geometry.Coordinates.([][]float64)
		if !ok {
			continue
		}

		c := trackColor(f.Properties.MAC)
		for i := 1; i < len(coords); i++ {
			x0, y0 := proj.toPixel(coords[i-1][1], coords[i-1][0])
			x1, y1 := proj.toPixel(coords[i][1], coords[i][0])
			drawLine(img, x0, y0, x1, y1, c)
			drawLine(img, x0, y0+1, x1, y1+1, c)
		}
	}
}

func (r *MapRenderer) renderMarkers(img *image.RGBA, proj *projector, doc *mapdata.FeatureCollection) {
	for _, f := range doc.Features {
		pt, ok := f.Geometry.Coordinates.([]float64)
		if !ok || len(pt) != 2 {
			continue
		}

		x, y := proj.toPixel(pt[1], pt[0])
		c := markerColor(f.Properties.Color)

		switch f.Properties.Kind {
		case mapdata.KindSnooper:
			drawDisc(img, x, y, snooperRadius, c)
		case mapdata.KindAlert:
			drawTriangle(img, x, y, alertRadius, c)
		default:
			drawDisc(img, x, y, markerRadius, c)
		}
	}
}

// documentPoints collects every coordinate in the document as
// (lat, lon) pairs.
func documentPoints(doc *mapdata.FeatureCollection) [][2]float64 {
	var pts [][2]float64
	for _, f := range doc.Features {
		switch c := f.Geometry.Coordinates.(type) {
		case []float64:
			if len(c) == 2 {
				pts = append(pts, [2]float64{c[1], c[0]})
			}
		case [][]float64:
			for _, p := range c {
				if len(p) == 2 {
					pts = append(pts, [2]float64{p[1], p[0]})
				}
			}
		}
	}
	return pts
}

// mercator maps a coordinate onto the Web Mercator unit square.
func mercator(lat, lon float64) (x, y float64) {
	lat = math.Max(-mercatorLatLimit, math.Min(mercatorLatLimit, lat))
	x = (lon + 180) / 360

	rad := lat * math.Pi / 180
	y = (1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2
	return x, y
}

func mercatorBounds(points [][2]float64) (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		x, y := mercator(p[0], p[1])
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	return minX, minY, maxX, maxY
}

// fitHeight derives the plot height from the shape of the mapped
// area, clamped so extreme tracks still produce a usable image.
func fitHeight(points [][2]float64, width int) int {
	minX, minY, maxX, maxY := mercatorBounds(points)

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX < minSpan && spanY < minSpan {
		return width * 5 / 8
	}

	spanX = math.Max(spanX, minSpan)
	spanY = math.Max(spanY, minSpan)

	height := int(float64(width) * spanY / spanX)
	if height < minPlotHeight {
		return minPlotHeight
	}
	if height > 2*width {
		return 2 * width
	}
	return height
}

type projector struct {
	minX, minY   float64
	spanX, spanY float64
	scale        float64
	area         image.Rectangle
}

func newProjector(points [][2]float64, area image.Rectangle) *projector {
	minX, minY, maxX, maxY := mercatorBounds(points)

	spanX := maxX - minX
	spanY := maxY - minY
	if spanX < minSpan {
		mid := (minX + maxX) / 2
		minX, spanX = mid-minSpan/2, minSpan
	}
	if spanY < minSpan {
		mid := (minY + maxY) / 2
		minY, spanY = mid-minSpan/2, minSpan
	}

	// Dx-1/Dy-1 keeps the outermost fix inside the half-open plot
	// rectangle.
	return &projector{
		minX:  minX,
		minY:  minY,
		spanX: spanX,
		spanY: spanY,
		scale: math.Min(float64(area.Dx()-1)/spanX, float64(area.Dy()-1)/spanY),
		area:  area,
	}
}

// toPixel places a coordinate inside the plot area, centered along
// the axis the scale does not fill.
func (p *projector) toPixel(lat, lon float64) (int, int) {
	x, y := mercator(lat, lon)
	px := p.area.Min.X + (p.area.Dx()-int(p.spanX*p.scale))/2 + int((x-p.minX)*p.scale)
	py := p.area.Min.Y + (p.area.Dy()-int(p.spanY*p.scale))/2 + int((y-p.minY)*p.scale)
	return px, py
}

type geoBounds struct {
	minLat, minLon float64
	maxLat, maxLon float64
}

func geoSpan(points [][2]float64) geoBounds {
	b := geoBounds{
		minLat: math.Inf(1), minLon: math.Inf(1),
		maxLat: math.Inf(-1), maxLon: math.Inf(-1),
	}
	for _, p := range points {
		b.minLat = math.Min(b.minLat, p[0])
		b.minLon = math.Min(b.minLon, p[1])
		b.maxLat = math.Max(b.maxLat, p[0])
		b.maxLon = math.Max(b.maxLon, p[1])
	}
	return b
}

// widthMeters measures the window across its mid latitude.
func (b geoBounds) widthMeters() float64 {
	if math.IsInf(b.minLat, 1) {
		return 0
	}
	mid := (b.minLat + b.maxLat) / 2
	return geo.Distance(mid, b.minLon, mid, b.maxLon)
}

func drawDisc(img *image.RGBA, cx, cy, r int, c color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

func drawTriangle(img *image.RGBA, cx, cy, r int, c color.Color) {
	for dy := -r; dy <= r; dy++ {
		half := (dy + r) / 2
		for dx := -half; dx <= half; dx++ {
			img.Set(cx+dx, cy+dy, c)
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)

	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	e := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func drawFrame(img *image.RGBA, area image.Rectangle, c color.Color) {
	for x := area.Min.X; x < area.Max.X; x++ {
		img.Set(x, area.Min.Y, c)
		img.Set(x, area.Max.Y-1, c)
	}
	for y := area.Min.Y; y < area.Max.Y; y++ {
		img.Set(area.Min.X, y, c)
		img.Set(area.Max.X-1, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
