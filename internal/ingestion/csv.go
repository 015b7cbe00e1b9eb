// Package ingestion reads time-and-sales data into tick streams: historic
// session files in the exchange export format, and a live websocket
// recorder for capturing new sessions.
package ingestion

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"volume-reversion-lab/internal/domain"
)

// Reader errors.
var (
	ErrMissingHeader = errors.New("tick file has no header row")
	ErrBadHeader     = errors.New("tick file header is missing required columns")
	ErrBadRow        = errors.New("malformed tick row")
)

// The export format: semicolon-separated, comma as the decimal mark.
// Fractional seconds in timestamps are accepted but not required.
const (
	fieldSep = ";"
	tickTime = "2006-01-02 15:04:05"
)

var requiredColumns = []string{"timestamp", "price", "volume", "side"}

// ReadTicks parses an exported time-and-sales file. Rows must be in
// non-decreasing timestamp order; parsing is strict and the first bad row
// fails the whole read with its line number.
func ReadTicks(r io.Reader) ([]domain.Tick, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, ErrMissingHeader
	}
	cols, err := parseHeader(sc.Text())
	if err != nil {
		return nil, err
	}

	var ticks []domain.Tick
	line := 1
	for sc.Scan() {
		line++
		raw := strings.TrimRight(sc.Text(), "\r")
		if raw == "" {
			continue
		}

		tick, err := parseRow(raw, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRow, line, err)
		}
		if len(ticks) > 0 && tick.Timestamp.Before(ticks[len(ticks)-1].Timestamp) {
			return nil, fmt.Errorf("%w: line %d: timestamp moves backwards", ErrBadRow, line)
		}
		ticks = append(ticks, tick)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ticks, nil
}

// columnIndex maps the required columns to their positions in the file.
type columnIndex struct {
	timestamp int
	price     int
	volume    int
	side      int
	width     int
}

func parseHeader(header string) (columnIndex, error) {
	fields := strings.Split(strings.TrimRight(header, "\r"), fieldSep)
	pos := make(map[string]int, len(fields))
	for i, f := range fields {
		pos[strings.ToLower(strings.TrimSpace(f))] = i
	}

	for _, want := range requiredColumns {
		if _, ok := pos[want]; !ok {
			return columnIndex{}, fmt.Errorf("%w: %q", ErrBadHeader, want)
		}
	}
	return columnIndex{
		timestamp: pos["timestamp"],
		price:     pos["price"],
		volume:    pos["volume"],
		side:      pos["side"],
		width:     len(fields),
	}, nil
}

func parseRow(raw string, cols columnIndex) (domain.Tick, error) {
	fields := strings.Split(raw, fieldSep)
	if len(fields) != cols.width {
		return domain.Tick{}, fmt.Errorf("%d fields, want %d", len(fields), cols.width)
	}

	ts, err := parseTimestamp(strings.TrimSpace(fields[cols.timestamp]))
	if err != nil {
		return domain.Tick{}, err
	}
	price, err := parseDecimal(strings.TrimSpace(fields[cols.price]))
	if err != nil {
		return domain.Tick{}, fmt.Errorf("price: %v", err)
	}
	volume, err := parseDecimal(strings.TrimSpace(fields[cols.volume]))
	if err != nil {
		return domain.Tick{}, fmt.Errorf("volume: %v", err)
	}
	if volume < 0 {
		return domain.Tick{}, fmt.Errorf("volume: negative value %v", volume)
	}

	return domain.Tick{
		Timestamp: ts,
		Price:     price,
		Side:      domain.NormalizeSide(strings.TrimSpace(fields[cols.side])),
		Volume:    volume,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(tickTime, s)
}

// parseDecimal accepts the export's comma decimal mark alongside the plain
// dot form.
func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}
