package detection

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/roman-kulish/wireless-surveillance/internal/signature"
)

func ptr(v float64) *float64 { return &v }

func newTestExtractor(t *testing.T, opts ...ExtractorOption) *Extractor {
	t.Helper()
	return NewExtractor(signature.Default(), opts...)
}

func TestExtract(t *testing.T) {
	e := newTestExtractor(t)

	rows := []RawRow{
		{
			MAC:    "90:3A:E6:11:22:33",
			Name:   "",
			Type:   "Wi-Fi AP",
			Signal: -62,
			Lat:    ptr(40.7306),
			Lon:    ptr(-73.9352),
			Time:   int64(1704067260),
		},
		{
			MAC:    "AA:BB:CC:DD:EE:FF",
			Name:   `<DJI-Mavic>`,
			Type:   "Wi-Fi AP",
			Crypt:  "WPA2",
			Signal: -80,
			Time:   "2024-01-01T00:00:00",
		},
		{
			MAC:  "11:22:33:44:55:66",
			Name: "HomeNetwork",
			Type: "",
			Lat:  ptr(0),
			Lon:  ptr(0),
			Time: 1704067320.0,
		},
	}

	got, stats, err := e.Extract(context.Background(), rows)
	if err != nil {
		t.Fatalf("Extract() error: %s", err)
	}
	if len(got) != 3 {
		t.Fatalf("Extract() produced %d detections, want 3", len(got))
	}
	if stats.Skipped() != 0 {
		t.Errorf("Skipped() = %d, want 0", stats.Skipped())
	}

	first := got[0]
	if first.MAC != "90:3a:e6:11:22:33" {
		t.Errorf("MAC = %q, want lower case normalized form", first.MAC)
	}
	if !first.Drone {
		t.Error("sighting with a known manufacturer prefix not flagged as drone")
	}
	if first.Type != "wi-fi ap" {
		t.Errorf("Type = %q, want %q", first.Type, "wi-fi ap")
	}
	if !first.HasFix() {
		t.Error("valid coordinates dropped")
	}
	if want := time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC); !first.Time.Equal(want) {
		t.Errorf("Time = %s, want %s", first.Time, want)
	}

	second := got[1]
	if second.Name != "DJI-Mavic" {
		t.Errorf("Name = %q, want sanitized %q", second.Name, "DJI-Mavic")
	}
	if second.RawName != `<DJI-Mavic>` {
		t.Errorf("RawName = %q, want the stored value untouched", second.RawName)
	}
	if !second.Drone {
		t.Error("sighting with a drone name keyword not flagged as drone")
	}
	if second.Crypt != "WPA2" {
		t.Errorf("Crypt = %q, want %q", second.Crypt, "WPA2")
	}
	if second.HasFix() {
		t.Error("HasFix() = true for a row with no coordinates")
	}

	third := got[2]
	if third.Drone {
		t.Error("ordinary device flagged as drone")
	}
	if third.Type != "unknown" {
		t.Errorf("Type = %q, want %q for an empty type", third.Type, "unknown")
	}
	if third.HasFix() {
		t.Error("zero-zero placeholder coordinates were kept")
	}
	if third.Seq != 2 {
		t.Errorf("Seq = %d, want 2", third.Seq)
	}
}

func TestExtractClassifiesSanitizedName(t *testing.T) {
	e := newTestExtractor(t)

	// The keyword only appears once the reserved characters are
	// stripped, proving classification runs on the cleaned value.
	rows := []RawRow{{
		MAC:  "aa:bb:cc:dd:ee:ff",
		Name: `D{J}I`,
		Time: int64(1704067260),
	}}

	got, _, err := e.Extract(context.Background(), rows)
	if err != nil {
		t.Fatalf("Extract() error: %s", err)
	}
	if len(got) != 1 {
		t.Fatalf("Extract() produced %d detections, want 1", len(got))
	}
	if got[0].Name != "DJI" {
		t.Errorf("Name = %q, want %q", got[0].Name, "DJI")
	}
	if !got[0].Drone {
		t.Error("keyword hidden behind reserved characters did not classify")
	}
}

func TestExtractSkipsBadRows(t *testing.T) {
	e := newTestExtractor(t)

	rows := []RawRow{
		{MAC: "aa:bb:cc:dd:ee:ff", Time: int64(1704067260)},
		{MAC: "", Time: int64(1704067260)},           // no address
		{MAC: `{}`, Time: int64(1704067260)},         // nothing left after cleaning
		{MAC: "bb:cc:dd:ee:ff:00", Time: nil},        // no timestamp
		{MAC: "cc:dd:ee:ff:00:11", Time: "garbage"},  // unparseable timestamp
		{MAC: "dd:ee:ff:00:11:22", Time: int64(0)},   // placeholder timestamp
		{MAC: "ee:ff:00:11:22:33", Time: int64(120)}, // fine
	}

	got, stats, err := e.Extract(context.Background(), rows)
	if err != nil {
		t.Fatalf("Extract() error: %s", err)
	}

	if len(got) != 2 {
		t.Fatalf("Extract() produced %d detections, want 2", len(got))
	}
	if stats.Rows != 7 {
		t.Errorf("Rows = %d, want 7", stats.Rows)
	}
	if stats.Extracted != 2 {
		t.Errorf("Extracted = %d, want 2", stats.Extracted)
	}
	if stats.MissingMAC != 2 {
		t.Errorf("MissingMAC = %d, want 2", stats.MissingMAC)
	}
	if stats.BadTime != 3 {
		t.Errorf("BadTime = %d, want 3", stats.BadTime)
	}
	if stats.Skipped() != 5 {
		t.Errorf("Skipped() = %d, want 5", stats.Skipped())
	}

	// Skipped rows still advance the sequence, keeping Seq equal to the
	// source row position.
	if got[1].Seq != 6 {
		t.Errorf("Seq = %d, want 6", got[1].Seq)
	}
}

func TestExtractDropsInvalidCoordinates(t *testing.T) {
	e := newTestExtractor(t)

	rows := []RawRow{
		{MAC: "aa:bb:cc:dd:ee:01", Lat: ptr(91), Lon: ptr(10), Time: int64(60)},
		{MAC: "aa:bb:cc:dd:ee:02", Lat: ptr(10), Lon: nil, Time: int64(60)},
		{MAC: "aa:bb:cc:dd:ee:03", Lat: ptr(10), Lon: ptr(181), Time: int64(60)},
	}

	got, _, err := e.Extract(context.Background(), rows)
	if err != nil {
		t.Fatalf("Extract() error: %s", err)
	}
	for i, d := range got {
		if d.HasFix() {
			t.Errorf("detection %d kept invalid coordinates", i)
		}
	}
}

func TestExtractParallelMatchesSerial(t *testing.T) {
	rows := make([]RawRow, 3000)
	for i := range rows {
		row := RawRow{
			MAC:    fmt.Sprintf("aa:bb:cc:%02x:%02x:%02x", i>>16&0xff, i>>8&0xff, i&0xff),
			Name:   fmt.Sprintf("net-%d", i),
			Type:   "Wi-Fi AP",
			Signal: -30 - i%60,
			Time:   int64(1704067200 + i),
		}
		switch {
		case i%7 == 0:
			row.MAC = "" // skipped
		case i%11 == 0:
			row.Time = "garbage" // skipped
		case i%3 == 0:
			row.MAC = fmt.Sprintf("60:60:1f:%02x:%02x:%02x", i>>16&0xff, i>>8&0xff, i&0xff)
		}
		if i%5 == 0 {
			row.Lat = ptr(40 + float64(i)/1e4)
			row.Lon = ptr(-73 - float64(i)/1e4)
		}
		rows[i] = row
	}

	serial := newTestExtractor(t)
	parallel := newTestExtractor(t, WithWorkers(4))

	wantDetections, wantStats, err := serial.Extract(context.Background(), rows)
	if err != nil {
		t.Fatalf("serial Extract() error: %s", err)
	}

	gotDetections, gotStats, err := parallel.Extract(context.Background(), rows)
	if err != nil {
		t.Fatalf("parallel Extract() error: %s", err)
	}

	slices.SortFunc(gotDetections, func(a, b Detection) int { return a.Seq - b.Seq })

	if gotStats != wantStats {
		t.Errorf("parallel stats = %+v, want %+v", gotStats, wantStats)
	}
	if !slices.Equal(gotDetections, wantDetections) {
		t.Error("parallel extraction does not match serial extraction after reordering")
	}
}

func TestExtractCancelled(t *testing.T) {
	e := newTestExtractor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := e.Extract(ctx, []RawRow{{MAC: "aa:bb:cc:dd:ee:ff", Time: int64(60)}})
	if err == nil {
		t.Error("Extract() with a cancelled context succeeded, want error")
	}
}
