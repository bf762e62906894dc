// Package collect fetches the upstream transit and weather feeds and turns
// them into raw tabular snapshots.
//
// The transit endpoint serves either a JSON entity array or a GTFS-realtime
// protobuf, depending on the agency; a single collector picks the decoder by
// response content type instead of maintaining parallel fetch scripts.
package collect

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/banshee-data/delay.report/internal/table"
)

// transitCols is the column layout every decoder produces, so downstream
// cleaning sees one schema no matter which wire format the agency spoke.
var transitCols = []string{"vehicle_id", "trip_id", "route_id", "latitude", "longitude", "status", "timestamp"}

// Decoder turns one payload shape into the unified transit table.
type Decoder interface {
	// CanDecode reports whether this decoder handles the content type.
	CanDecode(contentType string) bool

	// Decode parses the payload into the unified column layout.
	Decode(body []byte) (*table.Table, error)
}

// JSONEntityDecoder parses the JSON entity-array form of the feed.
type JSONEntityDecoder struct{}

// CanDecode accepts JSON content types.
func (JSONEntityDecoder) CanDecode(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}

type jsonFeed struct {
	Entity []struct {
		ID      string `json:"id"`
		Vehicle *struct {
			Trip *struct {
				TripID  string `json:"trip_id"`
				RouteID string `json:"route_id"`
			} `json:"trip"`
			Position *struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"position"`
			Vehicle *struct {
				ID string `json:"id"`
			} `json:"vehicle"`
			CurrentStatus json.RawMessage `json:"current_status"`
			Timestamp     int64           `json:"timestamp"`
		} `json:"vehicle"`
	} `json:"entity"`
}

// Decode flattens the entity array into one row per vehicle.
func (JSONEntityDecoder) Decode(body []byte) (*table.Table, error) {
	var feed jsonFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse JSON feed: %w", err)
	}

	t := table.New(transitCols...)
	for _, e := range feed.Entity {
		if e.Vehicle == nil {
			continue
		}
		v := e.Vehicle

		row := make([]string, len(transitCols))
		if v.Vehicle != nil {
			row[0] = v.Vehicle.ID
		}
		if row[0] == "" {
			row[0] = e.ID
		}
		if v.Trip != nil {
			row[1] = v.Trip.TripID
			row[2] = v.Trip.RouteID
		}
		if v.Position != nil {
			row[3] = strconv.FormatFloat(v.Position.Latitude, 'f', -1, 64)
			row[4] = strconv.FormatFloat(v.Position.Longitude, 'f', -1, 64)
		}
		row[5] = rawStatus(v.CurrentStatus)
		if v.Timestamp > 0 {
			row[6] = strconv.FormatInt(v.Timestamp, 10)
		}

		if err := t.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// rawStatus accepts the status either as a string or a bare number, since
// agencies differ on how they render the enum in JSON.
func rawStatus(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return ""
}

// GTFSRealtimeDecoder parses the length-delimited protobuf feed using the
// MobilityData bindings.
type GTFSRealtimeDecoder struct{}

// CanDecode accepts protobuf and unspecified binary content types.
func (GTFSRealtimeDecoder) CanDecode(contentType string) bool {
	return strings.Contains(contentType, "protobuf") ||
		strings.Contains(contentType, "application/octet-stream") ||
		contentType == ""
}

// Decode unmarshals a FeedMessage and flattens its vehicle entities.
func (GTFSRealtimeDecoder) Decode(body []byte) (*table.Table, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(body, &fm); err != nil {
		return nil, fmt.Errorf("parse GTFS-realtime feed: %w", err)
	}

	t := table.New(transitCols...)
	for _, e := range fm.Entity {
		if e.Vehicle == nil {
			continue
		}
		v := e.Vehicle

		row := make([]string, len(transitCols))
		if v.Vehicle != nil && v.Vehicle.Id != nil {
			row[0] = *v.Vehicle.Id
		}
		if row[0] == "" && e.Id != nil {
			row[0] = *e.Id
		}
		if v.Trip != nil {
			if v.Trip.TripId != nil {
				row[1] = *v.Trip.TripId
			}
			if v.Trip.RouteId != nil {
				row[2] = *v.Trip.RouteId
			}
		}
		if v.Position != nil {
			if v.Position.Latitude != nil {
				row[3] = strconv.FormatFloat(float64(*v.Position.Latitude), 'f', -1, 64)
			}
			if v.Position.Longitude != nil {
				row[4] = strconv.FormatFloat(float64(*v.Position.Longitude), 'f', -1, 64)
			}
		}
		if v.CurrentStatus != nil {
			row[5] = v.CurrentStatus.String()
		}
		if v.Timestamp != nil {
			row[6] = strconv.FormatUint(*v.Timestamp, 10)
		}

		if err := t.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return t, nil
}
