package capture

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roman-kulish/wireless-surveillance/internal/detection"
)

// ReaderOption configures a DeviceReader with filtering criteria.
type ReaderOption func(*DeviceReader)

// WithStartTime limits the reader to rows last seen at or after t.
// Time filters compare against stored epoch seconds, so they only
// select rows with numeric timestamps.
func WithStartTime(t time.Time) ReaderOption {
	return func(r *DeviceReader) {
		r.startTime = &t
	}
}

// WithEndTime limits the reader to rows last seen at or before t.
func WithEndTime(t time.Time) ReaderOption {
	return func(r *DeviceReader) {
		r.endTime = &t
	}
}

// WithTimeRange sets both start and end time filters. This is a
// convenience function equivalent to applying both WithStartTime and
// WithEndTime.
func WithTimeRange(startTime, endTime time.Time) ReaderOption {
	return func(r *DeviceReader) {
		r.startTime = &startTime
		r.endTime = &endTime
	}
}

// DeviceReader provides an iterator over the device rows of a capture
// database. Each reader instance must be used from a single goroutine
// and closed after use.
type DeviceReader struct {
	startTime *time.Time // Optional start of time range filter
	endTime   *time.Time // Optional end of time range filter

	rows       *sql.Rows
	current    detection.RawRow
	badRecords int
	err        error
}

func newDeviceReader(ctx context.Context, db *sql.DB, opts ...ReaderOption) (*DeviceReader, error) {
	r := &DeviceReader{}
	for _, opt := range opts {
		opt(r)
	}

	if r.startTime != nil && r.endTime != nil && r.startTime.After(*r.endTime) {
		return nil, fmt.Errorf("start time %s is after end time %s", r.startTime, r.endTime)
	}

	query := selectDevicesSQL
	args := make([]any, 0, 2)
	switch {
	case r.startTime != nil && r.endTime != nil:
		query = selectDevicesByTimeSQL
		args = append(args, r.startTime.Unix(), r.endTime.Unix())
	case r.startTime != nil:
		query = selectDevicesFromTimeSQL
		args = append(args, r.startTime.Unix())
	case r.endTime != nil:
		query = selectDevicesToTimeSQL
		args = append(args, r.endTime.Unix())
	}

	var err error
	if r.rows, err = db.QueryContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	return r, nil
}

// Next advances the iterator and returns true if there is another
// device row to read, false when the iteration is complete or an
// error occurred. Error distinguishes the two.
func (r *DeviceReader) Next(ctx context.Context) bool {
	if r.err != nil || r.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		r.err = ctx.Err()
		return false
	default:
	}

	if !r.rows.Next() {
		return false
	}

	var data deviceData
	if err := r.rows.Scan(&data.MAC, &data.Type, &data.Record, &data.Signal, &data.Lat, &data.Lon, &data.LastTime); err != nil {
		r.err = fmt.Errorf("scanning device: %w", err)
		return false
	}

	row, ok := toRawRow(data)
	if !ok {
		r.badRecords++
	}
	r.current = row
	return true
}

// Current returns the row read by the last successful call to Next.
// If called after Next() returns false, the behavior is undefined.
func (r *DeviceReader) Current() detection.RawRow {
	return r.current
}

// BadRecords returns the number of rows whose JSON device record could
// not be parsed. Such rows are still returned, with the record-derived
// fields left empty.
func (r *DeviceReader) BadRecords() int {
	return r.badRecords
}

// Error returns any error that occurred during iteration.
func (r *DeviceReader) Error() error {
	if r.err != nil {
		return r.err
	}
	if r.rows != nil {
		return r.rows.Err()
	}
	return nil
}

// Close releases any resources associated with the reader. After
// Close is called, the reader should not be used.
func (r *DeviceReader) Close() error {
	if r.rows != nil {
		err := r.rows.Close()
		r.rows = nil
		return err
	}
	return nil
}
