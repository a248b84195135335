package app

import (
	"fmt"
	"image"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roman-kulish/wireless-surveillance/internal/mapdata"
)

const (
	dpi     = 72.0
	spacing = 1.4

	swatchRadius  = 5
	legendPadding = 18
	legendOffset  = 12
)

type annotator struct {
	context  *freetype.Context
	fontFace font.Face
	fontSize float64
}

func newAnnotator(fontSize float64) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingFull)
	ctx.SetSrc(image.Black)

	return &annotator{
		context:  ctx,
		fontSize: fontSize,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, doc *mapdata.FeatureCollection, bounds geoBounds, plot image.Rectangle) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *mapdata.FeatureCollection, geoBounds, image.Rectangle) error
	}{
		{"drawing title", a.drawTitle},
		{"drawing legend", a.drawLegend},
		{"drawing summary", a.drawSummary},
	}
	for _, op := range ops {
		if err := op.fn(img, doc, bounds, plot); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}

	return nil
}

func (a *annotator) drawTitle(_ *image.RGBA, doc *mapdata.FeatureCollection, _ geoBounds, plot image.Rectangle) error {
	title := "Wireless survey"
	if doc.Metadata.Capture != "" {
		title = fmt.Sprintf("%s: %s", title, doc.Metadata.Capture)
	}

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	pt := freetype.Pt(plot.Min.X, plot.Min.Y-fontHeight/2)
	_, err := a.context.DrawString(title, pt)
	return err
}

func (a *annotator) drawLegend(img *image.RGBA, doc *mapdata.FeatureCollection, _ geoBounds, plot image.Rectangle) error {
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	rowTop := plot.Max.Y + legendOffset
	baseline := rowTop + metrics.Ascent.Round()
	discY := rowTop + fontHeight/2

	x := plot.Min.X
	for _, entry := range doc.Metadata.Legend.Entries {
		drawDisc(img, x+swatchRadius, discY, swatchRadius, markerColor(entry.Color))

		labelX := x + swatchRadius*2 + 6
		if _, err := a.context.DrawString(entry.Label, freetype.Pt(labelX, baseline)); err != nil {
			return err
		}
		x = labelX + font.MeasureString(a.fontFace, entry.Label).Round() + legendPadding
	}
	return nil
}

func (a *annotator) drawSummary(_ *image.RGBA, doc *mapdata.FeatureCollection, bounds geoBounds, plot image.Rectangle) error {
	m := doc.Metadata

	lines := []string{
		fmt.Sprintf("Devices: %d; Drones: %d; Snoopers: %d; Alerts: %d", m.Devices, m.Drones, m.Snoopers, m.Alerts),
	}
	if width := bounds.widthMeters(); width > 0 {
		perPixel := width / float64(plot.Dx())
		lines = append(lines, fmt.Sprintf("Window: %s across; 1 px = %s",
			mapdata.FormatDistance(width), mapdata.FormatDistance(perPixel)))
	}
	if !m.GeneratedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Generated: %s UTC", m.GeneratedAt.Format(time.DateTime)))
	}

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	// Below the legend row.
	top := plot.Max.Y + legendOffset + fontHeight + 14 + metrics.Ascent.Round()

	pt := freetype.Pt(plot.Min.X, top)
	for _, s := range lines {
		if _, err := a.context.DrawString(s, pt); err != nil {
			return err
		}
		pt.Y += a.context.PointToFixed(a.fontSize * spacing)
	}

	return nil
}
