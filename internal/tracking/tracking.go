// Package tracking aggregates normalized detections into per-device
// sighting histories with summary statistics: first and last
// appearance, best signal, distinct names, movement path and drone and
// snooper flags.
package tracking

import (
	"cmp"
	"slices"
	"time"

	"github.com/roman-kulish/wireless-surveillance/internal/detection"
)

// Device is the aggregate of every detection sharing one normalized
// MAC address.
type Device struct {
	// MAC is the normalized device hardware address.
	MAC string

	// Names holds the distinct sanitized names the device announced,
	// in order of first appearance. Empty names are not collected.
	Names []string

	// Type is the device type from the most recent sighting.
	Type string

	// Crypt is the most recent non-empty encryption summary.
	Crypt string

	// FirstSeen and LastSeen are the timestamps of the earliest and
	// latest sightings.
	FirstSeen, LastSeen time.Time

	// BestSignal is the strongest signal in dBm across sightings that
	// carried a reading, 0 when none did.
	BestSignal int

	// Drone reports whether any sighting of the device matched a drone
	// signature.
	Drone bool

	// Snooper reports whether the device moved farther than the
	// movement threshold between two consecutive fixes.
	Snooper bool

	// PathMeters is the total great-circle distance over consecutive
	// sightings that carried coordinates.
	PathMeters float64

	// Sightings holds every detection of the device, ordered by time
	// with ties broken by source row position.
	Sightings []detection.Detection
}

// Fixes returns the device's geotagged sightings, in path order.
func (d *Device) Fixes() []detection.Detection {
	out := make([]detection.Detection, 0, len(d.Sightings))
	for _, s := range d.Sightings {
		if s.HasFix() {
			out = append(out, s)
		}
	}
	return out
}

// DisplayName returns the first announced name, or empty when the
// device never announced one.
func (d *Device) DisplayName() string {
	if len(d.Names) == 0 {
		return ""
	}
	return d.Names[0]
}

// Devices maps normalized MAC addresses to aggregated devices. The
// drone and non-drone views are derived from this one mapping, so a
// device appears in exactly one of them.
type Devices map[string]*Device

// All returns every device ordered by first appearance, ties broken by
// MAC address.
func (d Devices) All() []*Device {
	return d.filter(func(*Device) bool { return true })
}

// Drones returns the devices flagged as drones, ordered by first
// appearance.
func (d Devices) Drones() []*Device {
	return d.filter(func(dev *Device) bool { return dev.Drone })
}

// Others returns the devices not flagged as drones, ordered by first
// appearance.
func (d Devices) Others() []*Device {
	return d.filter(func(dev *Device) bool { return !dev.Drone })
}

// Snoopers returns the devices whose movement crossed the threshold,
// ordered by first appearance.
func (d Devices) Snoopers() []*Device {
	return d.filter(func(dev *Device) bool { return dev.Snooper })
}

func (d Devices) filter(keep func(*Device) bool) []*Device {
	out := make([]*Device, 0, len(d))
	for _, dev := range d {
		if keep(dev) {
			out = append(out, dev)
		}
	}
	slices.SortFunc(out, func(a, b *Device) int {
		if c := a.FirstSeen.Compare(b.FirstSeen); c != 0 {
			return c
		}
		return cmp.Compare(a.MAC, b.MAC)
	})
	return out
}
