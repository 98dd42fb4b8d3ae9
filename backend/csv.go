package backend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"git.sr.ht/~whereswaldon/guideplot/series"
)

// Column headings of a trace file. Matching is case-insensitive and columns
// may appear in any order.
const (
	ColumnSeries    = "series"
	ColumnTimestamp = "timestamp"
	ColumnValue     = "value"
	ColumnQuality   = "quality"
)

// columns records the index of each known column in a trace file.
type columns struct {
	series, timestamp, value, quality int
}

func parseHeadings(headings []string) (columns, error) {
	cols := columns{series: -1, timestamp: -1, value: -1, quality: -1}
	for i, h := range headings {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case ColumnSeries:
			cols.series = i
		case ColumnTimestamp:
			cols.timestamp = i
		case ColumnValue:
			cols.value = i
		case ColumnQuality:
			cols.quality = i
		}
	}
	var missing []string
	if cols.series < 0 {
		missing = append(missing, ColumnSeries)
	}
	if cols.timestamp < 0 {
		missing = append(missing, ColumnTimestamp)
	}
	if cols.value < 0 {
		missing = append(missing, ColumnValue)
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("trace headings %q lack column(s) %s", headings, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columns) width() int {
	return max(c.series, c.timestamp, c.value, c.quality) + 1
}

// parseRecord converts one CSV record into a point. Cells that cannot be
// parsed produce a point the engine will ignore rather than an error, so that
// one bad cell does not discard its row's neighbors.
func (c columns) parseRecord(rec []string) (series.Point, error) {
	if len(rec) < c.width() {
		return series.Point{}, fmt.Errorf("record %q has %d fields, expected %d", rec, len(rec), c.width())
	}
	p := series.Point{
		SeriesID: strings.TrimSpace(rec[c.series]),
		Quality:  series.GoodQuality,
	}
	if p.SeriesID == "" {
		return series.Point{}, fmt.Errorf("record %q has no series", rec)
	}
	ts, err := ParseTimestamp(rec[c.timestamp])
	if err != nil {
		log.Printf("failed parsing timestamp: %v", err)
	}
	p.Timestamp = ts
	if cell := strings.TrimSpace(rec[c.value]); cell == "" {
		p.Null = true
	} else if v, err := strconv.ParseFloat(cell, 64); err != nil {
		log.Printf("failed parsing value %q of %s: %v", cell, p.SeriesID, err)
		p.Null = true
	} else {
		p.Value = v
	}
	if c.quality >= 0 {
		p.Quality = parseQuality(rec[c.quality])
	}
	return p, nil
}

// ParseTimestamp parses an integer epoch millisecond or an RFC 3339
// timestamp. On failure it returns the zero time.
func ParseTimestamp(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if ms, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339Nano, cell)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is neither epoch milliseconds nor RFC 3339", cell)
	}
	return t, nil
}

func parseQuality(cell string) series.Quality {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return series.GoodQuality
	}
	if code, err := strconv.Atoi(cell); err == nil {
		return series.QualityFromCode(code)
	}
	switch strings.ToLower(cell) {
	case series.Good.String():
		return series.GoodQuality
	case series.Uncertain.String():
		return series.Quality{Status: series.Uncertain, Code: series.CodeUncertain}
	case series.Bad.String():
		return series.Quality{Status: series.Bad, Code: series.CodeBad}
	}
	return series.Quality{Status: series.Unknown, Code: -1}
}

// newCSVReader configures a csv.Reader for trace files.
func newCSVReader(r io.Reader) *csv.Reader {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	csvReader.ReuseRecord = true
	return csvReader
}

// ParseCSV reads a complete trace file.
func ParseCSV(r io.Reader) (series.Map, error) {
	csvReader := newCSVReader(r)
	headings, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed reading trace headings: %w", err)
	}
	cols, err := parseHeadings(headings)
	if err != nil {
		return nil, err
	}
	m := series.Map{}
	for {
		rec, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			return m, nil
		} else if err != nil {
			return m, fmt.Errorf("failed reading trace: %w", err)
		}
		p, err := cols.parseRecord(rec)
		if err != nil {
			log.Printf("skipping record: %v", err)
			continue
		}
		m[p.SeriesID] = append(m[p.SeriesID], p)
	}
}
