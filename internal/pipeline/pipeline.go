// Package pipeline cleans the raw transit and weather snapshots and joins
// them into the processed table used for training.
package pipeline

import (
	"strconv"
	"time"

	"github.com/banshee-data/delay.report/internal/monitoring"
	"github.com/banshee-data/delay.report/internal/table"
)

// MergeBucket is the rounding granularity of the time join. Both sides'
// timestamps are rounded to the nearest bucket boundary before matching.
const MergeBucket = 10 * time.Minute

// MergedPrefix names processed merge artifacts.
const MergedPrefix = "merged_data"

// Column allow-lists. Columns absent from the source are silently omitted;
// there is no schema enforcement at this stage.
var (
	transitKeepCols = []string{"trip_id", "route_id", "latitude", "longitude", "timestamp"}
	weatherKeepCols = []string{"timestamp", "temp", "humidity", "pressure", "wind_speed", "weather_main"}
)

// ParseTimestamp interprets a raw timestamp cell: unix seconds from the
// collectors, or RFC3339 once a table has already been cleaned.
func ParseTimestamp(cell string) (time.Time, bool) {
	if cell == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	if ts, err := time.Parse(time.RFC3339, cell); err == nil {
		return ts.UTC(), true
	}
	return time.Time{}, false
}

// RoundTimestamp rounds to the nearest bucket boundary, halves up.
// Rounding an already-rounded timestamp yields the same value.
func RoundTimestamp(t time.Time) time.Time {
	return t.Round(MergeBucket)
}

// CleanTransit drops duplicate rows and rows without a parseable timestamp,
// normalizes timestamps to RFC3339 UTC, and projects onto the transit
// allow-list. Applying it twice yields the same table.
func CleanTransit(t *table.Table) *table.Table {
	return cleanWithTimestamp(t.DropDuplicates(), "timestamp", transitKeepCols)
}

// CleanWeather normalizes the weather snapshot. The raw snapshot carries the
// capture time in a `dt` column (unix seconds); an already-cleaned table
// carries `timestamp` instead.
func CleanWeather(t *table.Table) *table.Table {
	out := t.DropDuplicates()
	if !out.HasColumn("timestamp") && out.HasColumn("dt") {
		values := make([]string, out.NumRows())
		for i := range out.Rows {
			values[i] = out.Cell(i, "dt")
		}
		if err := out.AddColumn("timestamp", values); err != nil {
			monitoring.Warnf("weather table: %v", err)
		}
	}
	return cleanWithTimestamp(out, "timestamp", weatherKeepCols)
}

func cleanWithTimestamp(t *table.Table, tsCol string, keep []string) *table.Table {
	if !t.HasColumn(tsCol) {
		monitoring.Warnf("input table has no %q column, all rows dropped", tsCol)
		return table.New(keep...).Project(keep)
	}

	kept := t.Filter(func(row []string) bool {
		_, ok := ParseTimestamp(row[t.ColIndex(tsCol)])
		return ok
	})

	for i := range kept.Rows {
		ts, _ := ParseTimestamp(kept.Cell(i, tsCol))
		_ = kept.SetCell(i, tsCol, ts.Format(time.RFC3339))
	}

	return kept.Project(keep)
}

// Merge left-joins cleaned transit rows with the weather row whose rounded
// timestamp lands in the same bucket. All transit rows are kept; unmatched
// rows carry empty weather cells. Rows whose transit timestamp fails to
// parse are dropped. When several weather rows round to the same bucket the
// first one in original row order wins. Output is sorted ascending by the
// original transit timestamp.
func Merge(transit, weather *table.Table) *table.Table {
	weatherCols := weatherJoinCols(weather)

	outCols := make([]string, 0, len(transit.Cols)+len(weatherCols)+2)
	for _, c := range transit.Cols {
		if c == "timestamp" {
			outCols = append(outCols, "timestamp_transit")
			continue
		}
		outCols = append(outCols, c)
	}
	outCols = append(outCols, "timestamp_rounded")
	outCols = append(outCols, "timestamp_weather")
	outCols = append(outCols, weatherCols...)

	// First weather row per bucket wins.
	byBucket := make(map[int64]int)
	for i := range weather.Rows {
		ts, ok := ParseTimestamp(weather.Cell(i, "timestamp"))
		if !ok {
			continue
		}
		bucket := RoundTimestamp(ts).Unix()
		if _, exists := byBucket[bucket]; !exists {
			byBucket[bucket] = i
		}
	}

	out := table.New(outCols...)
	tsIdx := transit.ColIndex("timestamp")
	for _, row := range transit.Rows {
		var ts time.Time
		if tsIdx >= 0 {
			var ok bool
			if ts, ok = ParseTimestamp(row[tsIdx]); !ok {
				continue
			}
		} else {
			continue
		}

		rounded := RoundTimestamp(ts)
		cells := make([]string, 0, len(outCols))
		cells = append(cells, row...)
		cells = append(cells, rounded.Format(time.RFC3339))

		if wIdx, ok := byBucket[rounded.Unix()]; ok {
			cells = append(cells, weather.Cell(wIdx, "timestamp"))
			for _, c := range weatherCols {
				cells = append(cells, weather.Cell(wIdx, c))
			}
		} else {
			cells = append(cells, "")
			for range weatherCols {
				cells = append(cells, "")
			}
		}

		if err := out.AppendRow(cells); err != nil {
			monitoring.Warnf("merge: %v", err)
			continue
		}
	}

	sortIdx := out.ColIndex("timestamp_transit")
	out.SortRows(func(a, b []string) bool {
		ta, _ := ParseTimestamp(a[sortIdx])
		tb, _ := ParseTimestamp(b[sortIdx])
		return ta.Before(tb)
	})

	monitoring.Logf("merged dataset has %d rows", out.NumRows())
	return out
}

func weatherJoinCols(weather *table.Table) []string {
	var cols []string
	for _, c := range weather.Cols {
		if c == "timestamp" {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}
