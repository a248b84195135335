package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/roman-kulish/wireless-surveillance/internal/capture"
	"github.com/roman-kulish/wireless-surveillance/internal/detection"
	"github.com/roman-kulish/wireless-surveillance/internal/mapdata"
	"github.com/roman-kulish/wireless-surveillance/internal/signature"
	"github.com/roman-kulish/wireless-surveillance/internal/tracking"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	runID := uuid.NewString()
	logger = logger.With(slog.String("run", runID))

	sets, err := loadSignatures(config.SignaturesPath, logger)
	if err != nil {
		return err
	}

	dbPath := config.DBPath
	if dbPath == "" {
		if dbPath, err = capture.LatestCapture(config.CaptureDir); err != nil {
			return err
		}
		logger.Info("using newest capture", slog.String("path", dbPath))
	}
	if _, err = os.Stat(dbPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("capture file '%s' does not exist: %w", dbPath, err)
	}

	store := capture.NewStore(dbPath)
	defer store.Close()

	rows, badRecords, err := readCapture(ctx, store)
	if err != nil {
		return fmt.Errorf("reading capture: %w", err)
	}

	extractor := detection.NewExtractor(sets,
		detection.WithLogger(logger),
		detection.WithWorkers(config.Workers))

	detections, stats, err := extractor.Extract(ctx, rows)
	if err != nil {
		return err
	}

	logger.Info("extracted detections",
		slog.Group("rows",
			slog.String("scanned", humanize.Comma(int64(stats.Rows))),
			slog.String("extracted", humanize.Comma(int64(stats.Extracted))),
			slog.Int("missingMac", stats.MissingMAC),
			slog.Int("badTime", stats.BadTime),
			slog.Int("badRecords", badRecords),
		))

	threshold := sets.MovementThreshold()
	if config.Movement > 0 {
		threshold = config.Movement
	}

	devices := tracking.NewAggregator(
		tracking.WithMovementThreshold(threshold),
		tracking.WithLogger(logger),
	).Aggregate(detections)

	alerts, skippedAlerts, err := store.Alerts(ctx)
	if err != nil {
		// Captures from older Kismet builds have no alerts table; the
		// report is still useful without them.
		logger.Warn("reading alerts", slog.Any("error", err))
	}
	if skippedAlerts > 0 {
		logger.Debug("skipped unparsable alerts", slog.Int("count", skippedAlerts))
	}

	report(devices, logger)

	doc := mapdata.NewBuilder(sets,
		mapdata.WithRunID(runID),
		mapdata.WithCapture(filepath.Base(store.Path())),
	).Build(devices, alerts)

	if err = writeReport(config.OutputFile, doc); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	types, pathMeters := tally(devices)
	logger.Info("analysis complete",
		slog.String("report", config.OutputFile),
		slog.String("movementThreshold", mapdata.FormatDistance(threshold)),
		slog.String("totalMovement", mapdata.FormatDistance(pathMeters)),
		slog.Any("types", types),
		slog.Group("devices",
			slog.Int("total", doc.Metadata.Devices),
			slog.Int("drones", doc.Metadata.Drones),
			slog.Int("snoopers", doc.Metadata.Snoopers),
			slog.Int("alerts", doc.Metadata.Alerts),
		))

	return nil
}

// tally counts devices per type and sums their movement paths.
func tally(devices tracking.Devices) (types map[string]int, pathMeters float64) {
	types = make(map[string]int, len(devices))
	for _, dev := range devices {
		types[dev.Type]++
		pathMeters += dev.PathMeters
	}
	return types, pathMeters
}

func loadSignatures(path string, logger *slog.Logger) (*signature.Sets, error) {
	var sets *signature.Sets
	var err error
	if path == "" {
		sets = signature.Default()
	} else if sets, err = signature.Load(path); err != nil {
		return nil, fmt.Errorf("loading signatures: %w", err)
	}

	for _, kw := range sets.DroppedKeywords() {
		logger.Warn("ignoring redundant name keyword", slog.String("keyword", kw))
	}

	logger.Debug("signatures loaded",
		slog.Int("macPrefixes", len(sets.Prefixes())),
		slog.Int("nameKeywords", len(sets.Keywords())))
	return sets, nil
}

func readCapture(ctx context.Context, store *capture.Store) ([]detection.RawRow, int, error) {
	reader, err := store.Devices(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer reader.Close()

	var rows []detection.RawRow
	for reader.Next(ctx) {
		rows = append(rows, reader.Current())
	}
	if err = reader.Error(); err != nil {
		return nil, 0, err
	}
	return rows, reader.BadRecords(), nil
}

// report calls out every drone and snooper on the log so a headless
// run is useful without opening the map.
func report(devices tracking.Devices, logger *slog.Logger) {
	for _, dev := range devices.Drones() {
		logger.Warn("drone detected",
			slog.String("mac", dev.MAC),
			slog.String("name", dev.DisplayName()),
			slog.String("lastSeen", dev.LastSeen.Format(time.DateTime)),
			slog.Bool("snooper", dev.Snooper))
	}
	for _, dev := range devices.Snoopers() {
		if dev.Drone {
			continue // reported above
		}
		logger.Warn("snooper detected",
			slog.String("mac", dev.MAC),
			slog.String("type", dev.Type),
			slog.String("lastSeen", dev.LastSeen.Format(time.DateTime)),
			slog.String("movement", mapdata.FormatDistance(dev.PathMeters)))
	}
}

func writeReport(path string, doc *mapdata.FeatureCollection) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeWithError(out, &err)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func closeWithError(cl io.Closer, err *error) {
	if cerr := cl.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
