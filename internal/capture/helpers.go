package capture

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/roman-kulish/wireless-surveillance/internal/detection"
	"github.com/roman-kulish/wireless-surveillance/internal/geo"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// toRawRow converts a scanned device row into the pipeline's raw form.
// A false result means the JSON device record was unparseable; the row
// itself is still usable, with the record-derived fields empty.
func toRawRow(data deviceData) (detection.RawRow, bool) {
	row := detection.RawRow{
		MAC:    data.MAC.String,
		Type:   data.Type.String,
		Signal: int(data.Signal.Int64),
		Lat:    nullableFloat(data.Lat),
		Lon:    nullableFloat(data.Lon),
		Time:   data.LastTime,
	}

	if len(data.Record) == 0 {
		return row, true
	}

	var record deviceRecord
	if err := json.Unmarshal(data.Record, &record); err != nil {
		return row, false
	}

	row.Name = record.CommonName
	row.Crypt = record.Crypt
	return row, true
}

// toAlert converts a scanned alert row. A false result means the JSON
// alert record was unparseable and the row carries nothing useful.
func toAlert(data alertData) (Alert, bool) {
	var record alertRecord
	if len(data.Record) > 0 {
		if err := json.Unmarshal(data.Record, &record); err != nil {
			return Alert{}, false
		}
	}

	alert := Alert{
		MAC:     strings.ToLower(strings.TrimSpace(data.MAC.String)),
		Class:   record.Class,
		Message: record.Text,
	}

	if data.TsSec.Valid && data.TsSec.Int64 > 0 {
		alert.Time = time.Unix(data.TsSec.Int64, 0).UTC()
	}

	// The scanner stores the geopoint longitude first. Captures from
	// older builds carry separate lat and lon keys instead.
	if gp := record.Location.Geopoint; len(gp) == 2 {
		lon, lat := gp[0], gp[1]
		if geo.ValidCoordinate(lat, lon) {
			alert.Lat = &lat
			alert.Lon = &lon
		}
	} else if loc := record.Location; loc.Lat != nil && loc.Lon != nil {
		if geo.ValidCoordinate(*loc.Lat, *loc.Lon) {
			alert.Lat = loc.Lat
			alert.Lon = loc.Lon
		}
	}
	return alert, true
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
