package tracking

import (
	"cmp"
	"io"
	"log/slog"
	"slices"

	"github.com/roman-kulish/wireless-surveillance/internal/detection"
	"github.com/roman-kulish/wireless-surveillance/internal/geo"
)

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithMovementThreshold sets the distance in meters between two
// consecutive fixes above which a device is flagged as a snooper.
// A threshold of 0 disables snooper flagging.
func WithMovementThreshold(meters float64) AggregatorOption {
	return func(a *Aggregator) {
		if meters >= 0 {
			a.threshold = meters
		}
	}
}

// WithLogger sets the logger used to report contract violations in the
// input. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Aggregator groups detections by device identity and derives the
// per-device summary.
type Aggregator struct {
	threshold float64
	logger    *slog.Logger
}

// NewAggregator returns an aggregator with the stock movement
// threshold.
func NewAggregator(opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		threshold: 80,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate groups detections by MAC address into devices. Within each
// device, sightings are ordered by time with ties broken by source row
// position, so repeated runs over the same capture produce identical
// output regardless of extraction order.
func (a *Aggregator) Aggregate(detections []detection.Detection) Devices {
	byMAC := make(map[string][]detection.Detection)
	for _, d := range detections {
		byMAC[d.MAC] = append(byMAC[d.MAC], d)
	}

	devices := make(Devices, len(byMAC))
	for mac, group := range byMAC {
		devices[mac] = a.build(mac, group)
	}
	return devices
}

func (a *Aggregator) build(mac string, group []detection.Detection) *Device {
	slices.SortStableFunc(group, func(x, y detection.Detection) int {
		if c := x.Time.Compare(y.Time); c != 0 {
			return c
		}
		return cmp.Compare(x.Seq, y.Seq)
	})

	dev := &Device{
		MAC:       mac,
		FirstSeen: group[0].Time,
		LastSeen:  group[len(group)-1].Time,
		Sightings: group,
	}

	var (
		seen             map[string]struct{}
		haveSignal       bool
		havePrev         bool
		prevLat, prevLon float64
		longestLeg       float64
	)

	for _, d := range group {
		if d.Drone {
			dev.Drone = true
		}
		if d.Signal != 0 && (!haveSignal || d.Signal > dev.BestSignal) {
			dev.BestSignal = d.Signal
			haveSignal = true
		}
		if d.Name != "" {
			if seen == nil {
				seen = make(map[string]struct{})
			}
			if _, ok := seen[d.Name]; !ok {
				seen[d.Name] = struct{}{}
				dev.Names = append(dev.Names, d.Name)
			}
		}
		dev.Type = d.Type
		if d.Crypt != "" {
			dev.Crypt = d.Crypt
		}

		if !d.HasFix() {
			continue
		}
		if !geo.ValidCoordinate(*d.Lat, *d.Lon) {
			// Extraction should not have let this through. Leave the
			// pair out of the path sum but keep the sighting.
			a.logger.Warn("unusable coordinates on aggregated sighting",
				slog.String("mac", mac),
				slog.Float64("lat", *d.Lat),
				slog.Float64("lon", *d.Lon))
			continue
		}

		if havePrev {
			leg := geo.Distance(prevLat, prevLon, *d.Lat, *d.Lon)
			dev.PathMeters += leg
			if leg > longestLeg {
				longestLeg = leg
			}
		}
		prevLat, prevLon = *d.Lat, *d.Lon
		havePrev = true
	}

	if a.threshold > 0 && longestLeg >= a.threshold {
		dev.Snooper = true
	}
	return dev
}
