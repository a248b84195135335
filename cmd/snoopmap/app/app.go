package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/wireless-surveillance/internal/capture"
	"github.com/roman-kulish/wireless-surveillance/internal/detection"
	"github.com/roman-kulish/wireless-surveillance/internal/mapdata"
	"github.com/roman-kulish/wireless-surveillance/internal/signature"
	"github.com/roman-kulish/wireless-surveillance/internal/tracking"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("capture file '%s' does not exist: %w", config.DBPath, err)
	}

	sets, err := loadSignatures(config.SignaturesPath, logger)
	if err != nil {
		return err
	}

	store := capture.NewStore(config.DBPath)
	defer store.Close()

	return buildMap(ctx, store, sets, config, logger)
}

func buildMap(ctx context.Context, store *capture.Store, sets *signature.Sets, config *Config, logger *slog.Logger) error {
	var opts []capture.ReaderOption
	var filters []any
	switch {
	case config.From != nil && config.To != nil:
		opts = append(opts, capture.WithTimeRange(config.From.UTC(), config.To.UTC()))

		filters = append(filters,
			slog.String("from", config.From.UTC().Format(time.DateTime)),
			slog.String("to", config.To.UTC().Format(time.DateTime)))

	case config.From != nil:
		opts = append(opts, capture.WithStartTime(config.From.UTC()))
		filters = append(filters, slog.String("from", config.From.UTC().Format(time.DateTime)))

	case config.To != nil:
		opts = append(opts, capture.WithEndTime(config.To.UTC()))
		filters = append(filters, slog.String("to", config.To.UTC().Format(time.DateTime)))
	}

	if len(filters) > 0 {
		logger.Info("reader configuration", filters...)
	}

	reader, err := store.Devices(ctx, opts...)
	if err != nil {
		return err
	}
	defer reader.Close()

	var rows []detection.RawRow
	for reader.Next(ctx) {
		rows = append(rows, reader.Current())
	}
	if err = reader.Error(); err != nil {
		return err
	}

	detections, stats, err := detection.NewExtractor(sets, detection.WithLogger(logger)).Extract(ctx, rows)
	if err != nil {
		return err
	}

	logger.Debug("extracted detections",
		slog.Int("scanned", stats.Rows),
		slog.Int("extracted", stats.Extracted),
		slog.Int("skipped", stats.Skipped()))

	threshold := sets.MovementThreshold()
	if config.Movement > 0 {
		threshold = config.Movement
	}

	devices := tracking.NewAggregator(
		tracking.WithMovementThreshold(threshold),
		tracking.WithLogger(logger),
	).Aggregate(detections)

	alerts, _, err := store.Alerts(ctx)
	if err != nil {
		logger.Warn("reading alerts", slog.Any("error", err))
	}
	alerts = filterAlerts(alerts, config.From, config.To)

	doc := mapdata.NewBuilder(sets,
		mapdata.WithCapture(filepath.Base(store.Path())),
	).Build(devices, alerts)

	logger.Info("rendering map",
		slog.Group("map",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("devices", doc.Metadata.Devices),
			slog.Int("drones", doc.Metadata.Drones),
			slog.Int("snoopers", doc.Metadata.Snoopers),
			slog.Int("alerts", doc.Metadata.Alerts),
		))

	if config.Format == FormatHTML {
		return writeHTML(config.OutputFile, doc)
	}
	return writeImage(config, doc)
}

// filterAlerts trims alerts to the requested window. Alerts without a
// timestamp cannot be placed in a window and are dropped when one is
// set.
func filterAlerts(alerts []capture.Alert, from, to *time.Time) []capture.Alert {
	if from == nil && to == nil {
		return alerts
	}

	var out []capture.Alert
	for _, a := range alerts {
		if a.Time.IsZero() {
			continue
		}
		if from != nil && a.Time.Before(*from) {
			continue
		}
		if to != nil && a.Time.After(*to) {
			continue
		}
		out = append(out, a)
	}
	return out
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
	return sets, nil
}

func writeImage(config *Config, doc *mapdata.FeatureCollection) (err error) {
	renderer, err := NewMapRenderer(RenderConfig{
		Width:         config.Width,
		NoAnnotations: config.NoAnnotations,
	})
	if err != nil {
		return fmt.Errorf("creating map renderer: %w", err)
	}
	defer renderer.Close()

	img, err := renderer.Render(doc)
	if err != nil {
		return fmt.Errorf("rendering map: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer closeWithError(out, &err)

	switch config.Format {
	case FormatPNG:
		err = png.Encode(out, img)

	case FormatJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}

func closeWithError(cl io.Closer, err *error) {
	if cerr := cl.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
