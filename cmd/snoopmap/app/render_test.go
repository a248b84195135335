package app

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/roman-kulish/wireless-surveillance/internal/mapdata"
)

func TestMercator(t *testing.T) {
	x, y := mercator(0, 0)
	if math.Abs(x-0.5) > 1e-12 || math.Abs(y-0.5) > 1e-12 {
		t.Errorf("mercator(0,0) = (%v, %v), want (0.5, 0.5)", x, y)
	}

	x, _ = mercator(0, 180)
	if math.Abs(x-1) > 1e-12 {
		t.Errorf("mercator(0,180) x = %v, want 1", x)
	}

	// Latitudes beyond the projection limit clamp instead of blowing
	// up at the poles.
	_, y = mercator(90, 0)
	if math.IsInf(y, 0) || math.IsNaN(y) {
		t.Errorf("mercator(90,0) y = %v", y)
	}
}

func TestProjectorFit(t *testing.T) {
	points := [][2]float64{{10, 10}, {10.1, 10.1}}
	area := image.Rect(24, 40, 24+1232, 40+800)
	proj := newProjector(points, area)

	x0, y0 := proj.toPixel(10, 10)
	x1, y1 := proj.toPixel(10.1, 10.1)

	for _, p := range []image.Point{{X: x0, Y: y0}, {X: x1, Y: y1}} {
		if !p.In(area) {
			t.Errorf("projected point %v outside plot area %v", p, area)
		}
	}

	// North is up, east is right.
	if y1 >= y0 {
		t.Errorf("y for lat 10.1 (%d) not above y for lat 10 (%d)", y1, y0)
	}
	if x1 <= x0 {
		t.Errorf("x for lon 10.1 (%d) not right of x for lon 10 (%d)", x1, x0)
	}
}

func TestFitHeight(t *testing.T) {
	// A single fix gets the default canvas shape.
	if got := fitHeight([][2]float64{{10, 10}}, 1000); got != 625 {
		t.Errorf("degenerate fitHeight = %d, want 625", got)
	}

	// A wide flat track clamps to the minimum height.
	wide := [][2]float64{{10, 10}, {10.0001, 12}}
	if got := fitHeight(wide, 1000); got != minPlotHeight {
		t.Errorf("wide fitHeight = %d, want %d", got, minPlotHeight)
	}

	// A tall narrow track clamps to twice the width.
	tall := [][2]float64{{10, 10}, {15, 10.0001}}
	if got := fitHeight(tall, 1000); got != 2000 {
		t.Errorf("tall fitHeight = %d, want 2000", got)
	}
}

func TestTrackColor(t *testing.T) {
	c1 := trackColor("aa:bb:cc:dd:ee:ff")
	c2 := trackColor("aa:bb:cc:dd:ee:ff")
	if c1 != c2 {
		t.Error("track color not stable for the same MAC")
	}

	_, _, _, a := c1.RGBA()
	if a != 0xffff {
		t.Errorf("track color alpha = %#x, want opaque", a)
	}
}

func TestMarkerColorFallback(t *testing.T) {
	if got := markerColor("chartreuse"); got != markerColors["gray"] {
		t.Errorf("unknown palette name mapped to %v, want gray", got)
	}
}

func renderDoc() *mapdata.FeatureCollection {
	return &mapdata.FeatureCollection{
		Type: "FeatureCollection",
		Features: []mapdata.Feature{
			{
				Type:       "Feature",
				Geometry:   mapdata.Geometry{Type: "Point", Coordinates: []float64{10, 40}},
				Properties: mapdata.Properties{Kind: mapdata.KindDevice, Color: "blue"},
			},
			{
				Type:       "Feature",
				Geometry:   mapdata.Geometry{Type: "Point", Coordinates: []float64{10.01, 40.01}},
				Properties: mapdata.Properties{Kind: mapdata.KindSnooper, Color: "orange", MAC: "aa:bb:cc:dd:ee:ff"},
			},
			{
				Type:       "Feature",
				Geometry:   mapdata.Geometry{Type: "LineString", Coordinates: [][]float64{{10, 40}, {10.01, 40.01}}},
				Properties: mapdata.Properties{Kind: mapdata.KindTrack, Color: "orange", MAC: "aa:bb:cc:dd:ee:ff"},
			},
			{
				Type:       "Feature",
				Geometry:   mapdata.Geometry{Type: "Point", Coordinates: []float64{10.005, 40.005}},
				Properties: mapdata.Properties{Kind: mapdata.KindAlert, Color: "black"},
			},
		},
		Metadata: mapdata.Metadata{
			GeneratedAt: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC),
			Capture:     "survey.kismet",
			Center:      []float64{10, 40},
			Zoom:        mapdata.DefaultZoom,
			Devices:     2,
			Snoopers:    1,
			Alerts:      1,
			Legend: mapdata.Legend{
				Entries: []mapdata.LegendEntry{
					{Label: "Wi-Fi AP", Icon: "wifi", Color: "blue"},
					{Label: "Snooper", Icon: "circle", Color: "orange"},
				},
			},
		},
	}
}

func TestRenderSmoke(t *testing.T) {
	for _, noAnnotations := range []bool{false, true} {
		renderer, err := NewMapRenderer(RenderConfig{Width: 640, NoAnnotations: noAnnotations})
		if err != nil {
			t.Fatalf("NewMapRenderer() error: %v", err)
		}

		img, err := renderer.Render(renderDoc())
		if cerr := renderer.Close(); cerr != nil {
			t.Errorf("Close() error: %v", cerr)
		}
		if err != nil {
			t.Fatalf("Render() error: %v", err)
		}

		if got := img.Bounds().Dx(); got != 640 {
			t.Errorf("image width = %d, want 640", got)
		}

		var colored int
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := img.At(x, y).RGBA()
				if r != 0xffff || g != 0xffff || bl != 0xffff {
					colored++
				}
			}
		}

		// The frame alone accounts for the plot perimeter; markers,
		// the track and any annotations must add to it.
		plotW := 640 - renderer.config.Borders.Left - renderer.config.Borders.Right
		plotH := img.Bounds().Dy() - renderer.config.Borders.Top - renderer.config.Borders.Bottom
		frame := 2*plotW + 2*plotH
		if colored <= frame {
			t.Errorf("noAnnotations=%v: %d colored pixels, want more than the %d frame pixels", noAnnotations, colored, frame)
		}
	}
}
