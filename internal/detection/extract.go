package detection

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/roman-kulish/wireless-surveillance/internal/geo"
	"github.com/roman-kulish/wireless-surveillance/internal/signature"
)

// parallelChunkSize is the number of rows handed to a worker at a time
// when parallel extraction is enabled. Rows are independent, so the
// split is arbitrary; chunks keep channel traffic low while leaving
// enough pieces for the pool to balance.
const parallelChunkSize = 1024

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the logger used to report skipped rows. Defaults to
// a no-op logger.
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWorkers enables parallel extraction over n workers. Values below
// 2 keep extraction sequential. Output order is not preserved across
// workers; every detection carries its source row position in Seq, and
// aggregation re-establishes a deterministic order from it.
func WithWorkers(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 1 {
			e.workers = n
		}
	}
}

// Stats counts per-run soft failures. Individual bad rows are skipped
// and counted, never fatal; a capture with a handful of mangled rows
// still produces a report.
type Stats struct {
	// Rows is the number of raw rows consumed.
	Rows int

	// Extracted is the number of detections produced.
	Extracted int

	// MissingMAC counts rows skipped because no device address
	// remained after sanitization.
	MissingMAC int

	// BadTime counts rows skipped because the timestamp was absent or
	// unparseable.
	BadTime int
}

// Skipped returns the total number of rows that produced no detection.
func (s Stats) Skipped() int { return s.MissingMAC + s.BadTime }

func (s *Stats) add(other Stats) {
	s.Rows += other.Rows
	s.Extracted += other.Extracted
	s.MissingMAC += other.MissingMAC
	s.BadTime += other.BadTime
}

// Extractor turns raw capture rows into normalized detections: fields
// sanitized, MAC addresses lower cased, timestamps normalized to UTC
// time.Time, coordinates validated and each row classified against the
// drone signature sets.
type Extractor struct {
	sanitizer  *Sanitizer
	classifier *Classifier
	workers    int
	logger     *slog.Logger
}

// NewExtractor returns an extractor over the given signature sets.
func NewExtractor(sets *signature.Sets, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		sanitizer:  NewSanitizer(sets.ReservedCharacters()),
		classifier: NewClassifier(sets),
		workers:    1,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sanitizer returns the extractor's field sanitizer, shared so other
// stages can clean text coming from outside the device row pipeline.
func (e *Extractor) Sanitizer() *Sanitizer { return e.sanitizer }

// Extract converts rows into detections. Rows that cannot be used are
// skipped and counted in the returned stats. The only error condition
// is context cancellation, in which case the detections produced so
// far are returned along with ctx.Err().
func (e *Extractor) Extract(ctx context.Context, rows []RawRow) ([]Detection, Stats, error) {
	if e.workers > 1 && len(rows) > parallelChunkSize {
		return e.extractParallel(ctx, rows)
	}
	return e.extractSerial(ctx, rows)
}

func (e *Extractor) extractSerial(ctx context.Context, rows []RawRow) ([]Detection, Stats, error) {
	var stats Stats
	out := make([]Detection, 0, len(rows))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return out, stats, err
		}
		if d, ok := e.extractRow(i, row, &stats); ok {
			out = append(out, d)
		}
	}
	return out, stats, nil
}

func (e *Extractor) extractParallel(ctx context.Context, rows []RawRow) ([]Detection, Stats, error) {
	type job struct {
		base int
		rows []RawRow
	}
	type result struct {
		detections []Detection
		stats      Stats
	}

	jobs := make(chan job)
	results := make(chan result, e.workers)

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var res result
			for j := range jobs {
				if ctx.Err() != nil {
					break
				}
				for k, row := range j.rows {
					if d, ok := e.extractRow(j.base+k, row, &res.stats); ok {
						res.detections = append(res.detections, d)
					}
				}
			}
			results <- res
		}()
	}

	go func() {
		defer close(jobs)

		base := 0
		for chunk := range slices.Chunk(rows, parallelChunkSize) {
			select {
			case jobs <- job{base: base, rows: chunk}:
			case <-ctx.Done():
				return
			}
			base += len(chunk)
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var stats Stats
	out := make([]Detection, 0, len(rows))
	for res := range results {
		out = append(out, res.detections...)
		stats.add(res.stats)
	}

	return out, stats, ctx.Err()
}

// extractRow normalizes a single row. It returns false, updating
// stats, when the row cannot produce a detection.
func (e *Extractor) extractRow(seq int, row RawRow, stats *Stats) (Detection, bool) {
	stats.Rows++

	mac := e.sanitizer.Clean(strings.TrimSpace(row.MAC))
	if mac == "" {
		stats.MissingMAC++
		return Detection{}, false
	}
	mac = strings.ToLower(mac)

	ts, err := NormalizeTime(row.Time)
	if err != nil {
		stats.BadTime++
		e.logger.Debug("skipping row with unusable timestamp",
			slog.Int("row", seq),
			slog.String("mac", mac),
			slog.String("error", err.Error()))
		return Detection{}, false
	}

	// Clean the name once; the same value feeds both the stored
	// detection and the keyword classifier.
	name := e.sanitizer.Clean(row.Name)

	devType := strings.ToLower(e.sanitizer.Clean(row.Type))
	if devType == "" {
		devType = "unknown"
	}

	var lat, lon *float64
	if row.Lat != nil && row.Lon != nil && geo.ValidCoordinate(*row.Lat, *row.Lon) {
		lat, lon = row.Lat, row.Lon
	}

	stats.Extracted++
	return Detection{
		MAC:     mac,
		Name:    name,
		RawName: row.Name,
		Type:    devType,
		Crypt:   e.sanitizer.Clean(row.Crypt),
		Drone:   e.classifier.Matches(mac, name),
		Signal:  row.Signal,
		Lat:     lat,
		Lon:     lon,
		Time:    ts,
		Seq:     seq,
	}, true
}
