package domain

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	statsCommentPrefix  = "#"
	statsHeaderSentinel = "agency_cd"
	statsDateColumn     = "datetime"

	// USGS statistic columns: <ts_id>_<parameter>_<statistic code>.
	// 00021 is the daily maximum gage height, 00022 the daily minimum of
	// the daily highs.
	statsHighColumn    = "239251_72279_00021"
	statsLowHighColumn = "239252_72279_00022"
)

// The export carries dates only, so events get fixed within-day instants:
// the daily high at noon, the low-of-highs at 06:00. Any time component in
// the source is untrusted and ignored.
const (
	statsHighHour    = 12
	statsLowHighHour = 6
)

// statsDateRe is the strict date format required of data rows; anything else
// (including the RDB field-size row under the header) is skipped.
var statsDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDailyStats parses a USGS daily-statistics RDB export into flood
// events classified against thresholds, sorted newest-first.
//
// A missing header line or missing required column fails the parse with
// ErrMalformedStats. Individual rows are tolerated: blank lines, comments,
// short rows, rows with malformed dates, and non-numeric statistic values
// are skipped. A row with one parseable and one unparseable statistic emits
// exactly one event.
func ParseDailyStats(data []byte, thresholds Thresholds, loc *time.Location) ([]FloodEvent, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	header, err := statsHeader(scanner)
	if err != nil {
		return nil, err
	}

	dateIdx, err := statsColumn(header, statsDateColumn)
	if err != nil {
		return nil, err
	}
	highIdx, err := statsColumn(header, statsHighColumn)
	if err != nil {
		return nil, err
	}
	lowHighIdx, err := statsColumn(header, statsLowHighColumn)
	if err != nil {
		return nil, err
	}

	var events []FloodEvent
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, statsCommentPrefix) {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < len(header) {
			continue
		}

		dateStr := strings.TrimSpace(fields[dateIdx])
		if !statsDateRe.MatchString(dateStr) {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02", dateStr, loc)
		if err != nil {
			continue
		}

		if ev, ok := statsEvent(fields[highIdx], day, statsHighHour, thresholds); ok {
			events = append(events, ev)
		}
		if ev, ok := statsEvent(fields[lowHighIdx], day, statsLowHighHour, thresholds); ok {
			events = append(events, ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan daily statistics: %w", err)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Time.After(events[j].Time)
	})
	return events, nil
}

// statsHeader advances the scanner to the header line and returns its
// tab-delimited column names.
func statsHeader(scanner *bufio.Scanner) ([]string, error) {
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, statsCommentPrefix) {
			continue
		}
		if strings.HasPrefix(line, statsHeaderSentinel) {
			return strings.Split(line, "\t"), nil
		}
		// A non-comment line before the header means the export is not in
		// the expected shape.
		break
	}
	return nil, fmt.Errorf("%w: header line not found", ErrMalformedStats)
}

func statsColumn(header []string, name string) (int, error) {
	for i, col := range header {
		if col == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: missing column %q", ErrMalformedStats, name)
}

// statsEvent builds one classified event from a statistic field, reporting
// ok=false when the value is not a finite number.
func statsEvent(field string, day time.Time, hour int, thresholds Thresholds) (FloodEvent, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return FloodEvent{}, false
	}
	at := day.Add(time.Duration(hour) * time.Hour)
	return FloodEvent{
		Datetime: at.Format("2006-01-02 15:04"),
		Peak:     v,
		Type:     thresholds.Classify(v),
		Time:     at,
	}, true
}
