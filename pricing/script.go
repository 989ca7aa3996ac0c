package pricing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Script replays a fixed sequence of ticks, then returns io.EOF.
//
// CSV format, header optional:
//
//	time,price
//
// time is RFC3339 or unix seconds (fractions allowed). Rows must be in
// time order.
type Script struct {
	ticks []Tick
	pos   int
}

func NewScript(ticks []Tick) *Script {
	return &Script{ticks: ticks}
}

// LoadScript reads a tick script from a CSV file.
func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ticks, err := ReadScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewScript(ticks), nil
}

// ReadScript parses tick rows from r.
func ReadScript(r io.Reader) ([]Tick, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	var ticks []Tick
	line := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return ticks, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}

		tick, err := parseScriptRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if n := len(ticks); n > 0 && tick.Time.Before(ticks[n-1].Time) {
			return nil, fmt.Errorf("row %d: time %s goes backwards", line, tick.Time.Format(time.RFC3339))
		}
		ticks = append(ticks, tick)
	}
}

func parseScriptRow(row []string) (Tick, error) {
	if len(row) < 2 {
		return Tick{}, fmt.Errorf("bad row (need time,price): %v", row)
	}

	t, err := parseScriptTime(strings.TrimSpace(row[0]))
	if err != nil {
		return Tick{}, fmt.Errorf("bad time %q: %w", row[0], err)
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	if err != nil {
		return Tick{}, fmt.Errorf("bad price %q: %w", row[1], err)
	}
	return Tick{Time: t, Price: price}, nil
}

func parseScriptTime(s string) (time.Time, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		whole := int64(secs)
		frac := int64((secs - float64(whole)) * float64(time.Second))
		return time.Unix(whole, frac).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (s *Script) Next(ctx context.Context) (Tick, error) {
	if err := ctx.Err(); err != nil {
		return Tick{}, err
	}
	if s.pos >= len(s.ticks) {
		return Tick{}, io.EOF
	}
	t := s.ticks[s.pos]
	s.pos++
	return t, nil
}

// Len returns the number of ticks in the script.
func (s *Script) Len() int {
	return len(s.ticks)
}

// Start returns the time of the first tick, or the zero time.
func (s *Script) Start() time.Time {
	if len(s.ticks) == 0 {
		return time.Time{}
	}
	return s.ticks[0].Time
}
