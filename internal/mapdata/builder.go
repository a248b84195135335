package mapdata

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/wireless-surveillance/internal/capture"
	"github.com/roman-kulish/wireless-surveillance/internal/detection"
	"github.com/roman-kulish/wireless-surveillance/internal/signature"
	"github.com/roman-kulish/wireless-surveillance/internal/tracking"
)

// Fallback map center, used when a capture carries no usable fix at
// all: a spot in Antarctica far from any real survey.
const (
	fallbackCenterLat = -80.56899
	fallbackCenterLon = -30.08869
)

// alertPlacementOffset nudges an anchored alert away from the device
// sighting it borrows coordinates from, so the two markers do not
// overlap.
const alertPlacementOffset = 0.0005

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRunID stamps the document metadata with a run identifier.
func WithRunID(id string) BuilderOption {
	return func(b *Builder) {
		b.runID = id
	}
}

// WithCapture records the source capture name in the document
// metadata.
func WithCapture(name string) BuilderOption {
	return func(b *Builder) {
		b.capture = name
	}
}

// Builder assembles the geospatial document for one analysis run.
type Builder struct {
	sets      *signature.Sets
	sanitizer *detection.Sanitizer
	runID     string
	capture   string
}

// NewBuilder returns a builder carrying the signature sets the run
// classified with; the sets feed the legend and the sanitizer for
// alert text.
func NewBuilder(sets *signature.Sets, opts ...BuilderOption) *Builder {
	b := &Builder{
		sets:      sets,
		sanitizer: detection.NewSanitizer(sets.ReservedCharacters()),
	}

	for _, opt := range opts {
		opt(b)
	}
	return b
}

// fix pairs a geotagged sighting with its device for feature
// assembly.
type fix struct {
	device   *tracking.Device
	sighting detection.Detection
}

// Build converts aggregated devices and alerts into a feature
// collection: one marker per geotagged device sighting, circle markers
// and a track line per snooper, and one marker per alert. Feature
// order is chronological and stable across runs.
func (b *Builder) Build(devices tracking.Devices, alerts []capture.Alert) *FeatureCollection {
	all := devices.All()

	var fixes []fix
	for _, dev := range all {
		for _, s := range dev.Sightings {
			if s.HasFix() {
				fixes = append(fixes, fix{device: dev, sighting: s})
			}
		}
	}
	slices.SortFunc(fixes, func(a, b fix) int {
		if c := a.sighting.Time.Compare(b.sighting.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.sighting.Seq, b.sighting.Seq)
	})

	centerLat, centerLon := mapCenter(fixes, alerts)

	snoopers := devices.Snoopers()

	features := make([]Feature, 0, len(fixes)+len(alerts)+len(snoopers))
	for _, f := range fixes {
		features = append(features, b.deviceFeature(f))
	}
	for _, dev := range snoopers {
		features = append(features, b.snooperFeatures(dev)...)
	}
	for _, a := range alerts {
		features = append(features, b.alertFeature(a, fixes, centerLat, centerLon))
	}

	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Metadata: Metadata{
			RunID:       b.runID,
			GeneratedAt: time.Now().UTC(),
			Capture:     b.capture,
			Center:      []float64{centerLon, centerLat},
			Zoom:        DefaultZoom,
			Devices:     len(all),
			Drones:      len(devices.Drones()),
			Snoopers:    len(snoopers),
			Alerts:      len(alerts),
			Legend: Legend{
				Entries:      legendEntries(),
				MACPrefixes:  b.sets.Prefixes(),
				NameKeywords: b.sets.Keywords(),
			},
		},
	}
}

// mapCenter picks the earliest usable fix among device sightings and
// alerts, falling back to the stock center when nothing is geotagged.
func mapCenter(fixes []fix, alerts []capture.Alert) (lat, lon float64) {
	type candidate struct {
		lat, lon float64
		t        time.Time
	}

	candidates := make([]candidate, 0, len(fixes)+len(alerts))
	for _, f := range fixes {
		candidates = append(candidates, candidate{lat: *f.sighting.Lat, lon: *f.sighting.Lon, t: f.sighting.Time})
	}
	for _, a := range alerts {
		if a.HasFix() {
			candidates = append(candidates, candidate{lat: *a.Lat, lon: *a.Lon, t: a.Time})
		}
	}
	if len(candidates) == 0 {
		return fallbackCenterLat, fallbackCenterLon
	}

	earliest := slices.MinFunc(candidates, func(a, b candidate) int {
		return a.t.Compare(b.t)
	})
	return earliest.lat, earliest.lon
}

func (b *Builder) deviceFeature(f fix) Feature {
	s := f.sighting
	style := styleFor(s.Type, s.Drone)
	name := orUnknown(s.Name)

	popup := fmt.Sprintf("<b>%s</b><br>MAC: %s<br>Name/SSID: %s<br>Encryption: %s<br>Device Type: %s<br>Location: %.6f, %.6f<br>Last Seen: %s",
		style.Title, s.MAC, name, orUnknown(s.Crypt), s.Type, *s.Lat, *s.Lon, s.Time.Format(time.DateTime))

	return Feature{
		Type:     "Feature",
		Geometry: point(*s.Lat, *s.Lon),
		Properties: Properties{
			Kind:    KindDevice,
			MAC:     s.MAC,
			Name:    name,
			Title:   style.Title,
			Type:    s.Type,
			Icon:    style.Icon,
			Color:   style.Color,
			Drone:   s.Drone,
			Popup:   popup,
			Tooltip: fmt.Sprintf("%s (%s)", name, s.Type),
		},
	}
}

func (b *Builder) snooperFeatures(dev *tracking.Device) []Feature {
	fixes := dev.Fixes()
	if len(fixes) < 2 {
		return nil
	}

	movement := FormatDistance(dev.PathMeters)
	tooltip := fmt.Sprintf("Snooper: %s", dev.MAC)

	features := make([]Feature, 0, len(fixes)+1)
	coords := make([][]float64, 0, len(fixes))

	for _, s := range fixes {
		coords = append(coords, []float64{*s.Lon, *s.Lat})

		popup := fmt.Sprintf("<b>%s</b><br>MAC: %s<br>Last Seen: %s<br>Total Movement: %s",
			snooperStyle.Title, dev.MAC, s.Time.Format(time.DateTime), movement)

		features = append(features, Feature{
			Type:     "Feature",
			Geometry: point(*s.Lat, *s.Lon),
			Properties: Properties{
				Kind:    KindSnooper,
				MAC:     dev.MAC,
				Title:   snooperStyle.Title,
				Icon:    snooperStyle.Icon,
				Color:   snooperStyle.Color,
				Drone:   dev.Drone,
				Popup:   popup,
				Tooltip: tooltip,
			},
		})
	}

	features = append(features, Feature{
		Type:     "Feature",
		Geometry: lineString(coords),
		Properties: Properties{
			Kind:    KindTrack,
			MAC:     dev.MAC,
			Color:   snooperStyle.Color,
			Tooltip: tooltip,
		},
	})
	return features
}

func (b *Builder) alertFeature(a capture.Alert, fixes []fix, centerLat, centerLon float64) Feature {
	class := orUnknown(b.sanitizer.Clean(a.Class))
	message := b.sanitizer.Clean(a.Message)
	if message == "" {
		message = "No message"
	}

	timeStr := "Unknown"
	if !a.Time.IsZero() {
		timeStr = a.Time.Format(time.DateTime)
	}

	lat, lon, approximate := alertPlacement(a, fixes, centerLat, centerLon)

	title := fmt.Sprintf("Alert: %s", class)
	popup := fmt.Sprintf("<b>%s</b><br>MAC: %s<br>Message: %s<br>Time: %s",
		title, orUnknown(b.sanitizer.Clean(a.MAC)), message, timeStr)

	return Feature{
		Type:     "Feature",
		Geometry: point(lat, lon),
		Properties: Properties{
			Kind:        KindAlert,
			MAC:         a.MAC,
			Title:       title,
			Icon:        alertStyle.Icon,
			Color:       alertStyle.Color,
			Popup:       popup,
			Tooltip:     title,
			Approximate: approximate,
		},
	}
}

// alertPlacement returns where to draw an alert. Alerts without a
// usable fix are anchored next to the last device sighting at or
// before the alert time, next to the earliest sighting when the alert
// predates them all, or at the map center when nothing is mapped.
func alertPlacement(a capture.Alert, fixes []fix, centerLat, centerLon float64) (lat, lon float64, approximate bool) {
	if a.HasFix() {
		return *a.Lat, *a.Lon, false
	}
	if a.Time.IsZero() || len(fixes) == 0 {
		return centerLat, centerLon, true
	}

	ref := fixes[0]
	for _, f := range fixes {
		if f.sighting.Time.After(a.Time) {
			break
		}
		ref = f
	}
	return *ref.sighting.Lat + alertPlacementOffset, *ref.sighting.Lon + alertPlacementOffset, true
}

// FormatDistance renders a path length for humans: meters up to a
// kilometer, kilometers beyond.
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%s km", humanize.CommafWithDigits(meters/1000, 2))
	}
	return fmt.Sprintf("%s m", humanize.CommafWithDigits(meters, 1))
}

// orUnknown supplies the display placeholder for empty capture
// fields.
func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
