package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-anomaly/internal/common"
)

// Required input columns.
const (
	ColumnCity        = "city"
	ColumnTimestamp   = "timestamp"
	ColumnTemperature = "temperature"
	ColumnSeason      = "season"
)

var requiredColumns = []string{ColumnCity, ColumnTimestamp, ColumnTemperature, ColumnSeason}

// Layouts without a zone are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Load reads a CSV dataset and returns its per-city series.
func Load(r io.Reader) ([]Series, error) {
	rows, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	return Preprocess(rows)
}

// ParseCSV reads the header and every record of a CSV dataset. Columns are
// matched by name, case-insensitively; unknown columns are ignored.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MalformedInputError{Reason: "empty input, header row is missing"}
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &MalformedInputError{Line: perr.Line, Reason: "header: " + perr.Err.Error()}
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		key := common.NormalizeKey(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &MalformedInputError{Column: col, Reason: "required column is missing"}
		}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, &MalformedInputError{Line: perr.Line, Reason: perr.Err.Error()}
			}
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		line, _ := reader.FieldPos(0)

		field := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		rows = append(rows, Row{
			Line:        line,
			City:        field(ColumnCity),
			Timestamp:   field(ColumnTimestamp),
			Temperature: field(ColumnTemperature),
			Season:      field(ColumnSeason),
		})
	}

	return rows, nil
}

// Preprocess validates rows and groups them into one Series per city, in order
// of first appearance. Each series is stably sorted by timestamp. The first
// invalid row aborts the whole call; rows are never dropped.
func Preprocess(rows []Row) ([]Series, error) {
	obs := make([]Observation, 0, len(rows))
	for _, row := range rows {
		o, err := parseRow(row)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return GroupByCity(obs), nil
}

// GroupByCity splits observations into one Series per city in order of first
// appearance, each stably sorted by timestamp. The input is not modified.
func GroupByCity(obs []Observation) []Series {
	var (
		order  []string
		byCity = make(map[string][]Observation)
	)
	for _, o := range obs {
		if _, seen := byCity[o.City]; !seen {
			order = append(order, o.City)
		}
		byCity[o.City] = append(byCity[o.City], o)
	}

	out := make([]Series, 0, len(order))
	for _, city := range order {
		group := byCity[city]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
		out = append(out, Series{City: city, Observations: group})
	}
	return out
}

func parseRow(row Row) (Observation, error) {
	malformed := func(col, value, reason string) error {
		return &MalformedInputError{Line: row.Line, Column: col, Value: value, Reason: reason}
	}

	if row.City == "" {
		return Observation{}, malformed(ColumnCity, row.City, "city is empty")
	}
	if row.Season == "" {
		return Observation{}, malformed(ColumnSeason, row.Season, "season is empty")
	}

	temp, err := strconv.ParseFloat(row.Temperature, 64)
	if err != nil {
		return Observation{}, malformed(ColumnTemperature, row.Temperature, "temperature is not numeric")
	}
	if math.IsNaN(temp) || math.IsInf(temp, 0) {
		return Observation{}, malformed(ColumnTemperature, row.Temperature, "temperature is not finite")
	}

	ts, err := ParseTimestamp(row.Timestamp)
	if err != nil {
		return Observation{}, malformed(ColumnTimestamp, row.Timestamp, err.Error())
	}

	return Observation{
		City:        row.City,
		Timestamp:   ts,
		Temperature: temp,
		Season:      row.Season,
	}, nil
}

// ParseTimestamp parses s using the supported dataset layouts and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unrecognized timestamp format; use RFC3339 or YYYY-MM-DD")
}
