package capture

import (
	"database/sql"
	"time"
)

// Alert is one scanner alert, with its location when the scanner
// recorded a usable one.
type Alert struct {
	// MAC is the triggering device address, lower cased.
	MAC string

	// Class is the scanner's alert class, empty when absent.
	Class string

	// Message is the alert text, empty when absent. The value is raw
	// capture text; display layers are expected to sanitize it.
	Message string

	// Lat and Lon are the alert coordinates in decimal degrees, nil
	// when the scanner recorded none or an unusable pair.
	Lat, Lon *float64

	// Time is the alert timestamp in UTC, zero when the scanner
	// recorded none.
	Time time.Time
}

// HasFix reports whether the alert carries usable coordinates.
func (a *Alert) HasFix() bool {
	return a.Lat != nil && a.Lon != nil
}

// deviceData mirrors one row of the devices table.
type deviceData struct {
	MAC    sql.NullString
	Type   sql.NullString
	Record []byte
	Signal sql.NullInt64
	Lat    sql.NullFloat64
	Lon    sql.NullFloat64

	// LastTime keeps whichever representation the scanner stored:
	// epoch seconds as INTEGER or REAL, or a formatted TEXT value in
	// older captures. Normalization happens downstream.
	LastTime any
}

// deviceRecord is the subset of the scanner's JSON device record the
// pipeline uses.
type deviceRecord struct {
	CommonName string `json:"kismet.device.base.commonname"`
	Crypt      string `json:"kismet.device.base.crypt"`
}

// alertData mirrors one row of the alerts table.
type alertData struct {
	MAC    sql.NullString
	Record []byte
	TsSec  sql.NullInt64
}

// alertRecord is the subset of the scanner's JSON alert record the
// pipeline uses. Newer scanner builds store a geopoint, longitude
// first; older builds store separate lat and lon keys.
type alertRecord struct {
	Text     string `json:"kismet.alert.text"`
	Class    string `json:"kismet.alert.class"`
	Location struct {
		Geopoint []float64 `json:"kismet.common.location.geopoint"`
		Lat      *float64  `json:"kismet.common.location.lat"`
		Lon      *float64  `json:"kismet.common.location.lon"`
	} `json:"kismet.common.location"`
}
