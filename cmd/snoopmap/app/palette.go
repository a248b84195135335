package app

import (
	"hash/fnv"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// markerColors maps the palette names carried in feature properties
// (the Leaflet marker scheme) to drawable colors.
var markerColors = map[string]color.RGBA{
	"blue":      {R: 0x38, G: 0xaa, B: 0xdd, A: 0xff},
	"lightblue": {R: 0x8a, G: 0xda, B: 0xff, A: 0xff},
	"green":     {R: 0x72, G: 0xb0, B: 0x26, A: 0xff},
	"darkgreen": {R: 0x72, G: 0x82, B: 0x24, A: 0xff},
	"orange":    {R: 0xf6, G: 0x97, B: 0x30, A: 0xff},
	"cadetblue": {R: 0x43, G: 0x69, B: 0x78, A: 0xff},
	"purple":    {R: 0xd2, G: 0x52, B: 0xb9, A: 0xff},
	"red":       {R: 0xd6, G: 0x3e, B: 0x2a, A: 0xff},
	"gray":      {R: 0x57, G: 0x57, B: 0x57, A: 0xff},
	"darkgray":  {R: 0xa3, G: 0xa3, B: 0xa3, A: 0xff},
	"black":     {R: 0x30, G: 0x30, B: 0x30, A: 0xff},
}

func markerColor(name string) color.Color {
	if c, ok := markerColors[name]; ok {
		return c
	}
	return markerColors["gray"]
}

// trackColor derives a stable per-device hue so overlapping snooper
// trails stay distinguishable.
func trackColor(mac string) color.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(mac))

	hue := float64(h.Sum32() % 360)
	return colorful.Hsv(hue, 0.8, 0.9)
}
