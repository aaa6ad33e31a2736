// Package xmlx parses the booking site's non-standard pulldown XML:
// records are encoded as repeated flat sibling tags (<id>, <name>, and
// optional flag tags) rather than nested <record> wrappers. A generic
// object-deserialization library would misalign id/name pairs, so this
// is a small streaming state machine instead (spec design note: keep
// the flat-repeated-tag parsing isolated from nested-schema libraries).
package xmlx

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/radityaharya/bus-tracker/internal/domain"
)

// rawRecord is the generic (id, name, flags) tuple the state machine
// assembles before a variant-specific mapper turns it into a typed
// domain value.
type rawRecord struct {
	ID    string
	Name  string
	Flags map[string]string
}

// extractRecords runs the flush-on-next-id state machine described in
// the spec: a pending current_id/current_name pair is flushed as soon
// as a new <id> start tag arrives while one is already pending, and
// again at end of stream. A tuple is complete iff both id and name are
// non-empty; incomplete tuples are discarded.
func extractRecords(r io.Reader, flagTags ...string) ([]rawRecord, error) {
	flagSet := make(map[string]bool, len(flagTags))
	for _, t := range flagTags {
		flagSet[t] = true
	}

	dec := xml.NewDecoder(r)

	var records []rawRecord
	var curID, curName string
	curFlags := map[string]string{}
	haveID := false

	flush := func() {
		if curID != "" && curName != "" {
			records = append(records, rawRecord{ID: curID, Name: curName, Flags: curFlags})
		}
		curID, curName = "", ""
		curFlags = map[string]string{}
		haveID = false
	}

	var activeTag string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "id":
				if haveID {
					flush()
				}
				haveID = true
				activeTag = "id"
			case name == "name":
				activeTag = "name"
			case flagSet[name]:
				activeTag = name
			default:
				activeTag = ""
			}
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" || activeTag == "" {
				continue
			}
			switch activeTag {
			case "id":
				curID += text
			case "name":
				curName += text
			default:
				curFlags[activeTag] += text
			}
		case xml.EndElement:
			activeTag = ""
		}
	}
	flush()

	return records, nil
}

// ExtractRoutes parses a line:full pulldown response.
func ExtractRoutes(r io.Reader, areaID string) ([]domain.Route, error) {
	records, err := extractRecords(r, "change")
	if err != nil {
		return nil, err
	}
	routes := make([]domain.Route, 0, len(records))
	for _, rec := range records {
		routes = append(routes, domain.Route{
			RouteID:     rec.ID,
			AreaID:      areaID,
			DisplayName: rec.Name,
			Changed:     rec.Flags["change"] == "1",
		})
	}
	return routes, nil
}

// ExtractStations parses a station_geton/station_getoff pulldown response.
func ExtractStations(r io.Reader, areaID, routeID string) ([]domain.Station, error) {
	records, err := extractRecords(r)
	if err != nil {
		return nil, err
	}
	stations := make([]domain.Station, 0, len(records))
	for _, rec := range records {
		stations = append(stations, domain.Station{
			Code:        rec.ID,
			DisplayName: rec.Name,
			AreaID:      areaID,
			RouteID:     routeID,
		})
	}
	return stations, nil
}

// ExtractDates parses a date pulldown response, whose records carry
// YYYYMMDD dates in the name slot.
func ExtractDates(r io.Reader) ([]domain.Date, error) {
	records, err := extractRecords(r)
	if err != nil {
		return nil, err
	}
	dates := make([]domain.Date, 0, len(records))
	for _, rec := range records {
		d, err := domain.ParseDate(rec.Name)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}
