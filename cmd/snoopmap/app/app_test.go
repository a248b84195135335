package app

import (
	"testing"
	"time"

	"github.com/roman-kulish/wireless-surveillance/internal/capture"
)

func TestParseTimeFlag(t *testing.T) {
	got, err := parseTimeFlag("2024-03-01T10:00:00Z")
	if err != nil {
		t.Fatalf("parseTimeFlag(RFC3339) error: %v", err)
	}
	want := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parseTimeFlag(RFC3339) = %v, want %v", got, want)
	}

	got, err = parseTimeFlag("1709287200")
	if err != nil {
		t.Fatalf("parseTimeFlag(epoch) error: %v", err)
	}
	if !got.Equal(time.Unix(1709287200, 0)) {
		t.Errorf("parseTimeFlag(epoch) = %v", got)
	}

	if _, err = parseTimeFlag("yesterday"); err == nil {
		t.Error("parseTimeFlag(garbage) did not fail")
	}
}

func TestFilterAlerts(t *testing.T) {
	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	alerts := []capture.Alert{
		{Class: "EARLY", Time: base.Add(-time.Hour)},
		{Class: "IN", Time: base.Add(time.Minute)},
		{Class: "LATE", Time: base.Add(time.Hour)},
		{Class: "NOTIME"},
	}

	from := base
	to := base.Add(30 * time.Minute)

	got := filterAlerts(alerts, &from, &to)
	if len(got) != 1 || got[0].Class != "IN" {
		t.Errorf("filterAlerts(window) = %v, want the single in-window alert", got)
	}

	// Without a window everything passes through, untimed alerts
	// included.
	if got := filterAlerts(alerts, nil, nil); len(got) != len(alerts) {
		t.Errorf("filterAlerts(no window) kept %d of %d", len(got), len(alerts))
	}

	if got := filterAlerts(alerts, &from, nil); len(got) != 2 {
		t.Errorf("filterAlerts(from only) kept %d, want 2", len(got))
	}
}
