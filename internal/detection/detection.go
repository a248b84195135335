// Package detection implements the core of the capture analysis
// pipeline: sanitizing free-text fields, classifying drone devices and
// extracting normalized detections from raw capture rows.
package detection

import "time"

// RawRow is one device row as read from a capture store, before any
// normalization. Field values are passed through exactly as stored;
// cleaning, classification and timestamp normalization all happen in
// the extractor so each runs exactly once per row.
type RawRow struct {
	// MAC is the device hardware address as stored.
	MAC string

	// Name is the free-text device name or network name, possibly
	// empty.
	Name string

	// Type is the device type label reported by the scanner.
	Type string

	// Crypt is the encryption summary, possibly empty.
	Crypt string

	// Signal is the strongest observed signal in dBm, 0 when the store
	// has no reading.
	Signal int

	// Lat and Lon are the recorded coordinates in decimal degrees, nil
	// when the store has no value.
	Lat, Lon *float64

	// Time is the sighting timestamp in whichever representation the
	// store used: numeric epoch seconds (int64 or float64) or a
	// formatted date-time string ([]byte or string). A nil value means
	// the store recorded none.
	Time any
}

// Detection is one normalized, classified sighting of a device. All
// later pipeline stages consume this form only.
type Detection struct {
	// MAC is the sanitized, lower case device hardware address.
	MAC string

	// Name is the sanitized device name, empty when the capture had
	// none. Display layers supply their own placeholder for empty
	// names.
	Name string

	// RawName is the device name exactly as stored, before
	// sanitization. Display and matching always use Name; the raw
	// value is kept for consumers that need the original text.
	RawName string

	// Type is the sanitized, lower case device type, "unknown" when
	// the capture had none.
	Type string

	// Crypt is the sanitized encryption summary.
	Crypt string

	// Drone reports whether the sighting matched a drone signature.
	Drone bool

	// Signal is the signal strength in dBm, 0 when the capture had no
	// reading.
	Signal int

	// Lat and Lon are validated coordinates in decimal degrees, nil
	// when the row had none or carried an unusable pair.
	Lat, Lon *float64

	// Time is the sighting timestamp in UTC. Every detection carries a
	// usable value; rows without one never become detections.
	Time time.Time

	// Seq is the zero-based position of the source row in the capture,
	// used to break ordering ties between equal timestamps.
	Seq int
}

// HasFix reports whether the detection carries usable coordinates.
func (d *Detection) HasFix() bool {
	return d.Lat != nil && d.Lon != nil
}
