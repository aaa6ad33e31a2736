package xmlx

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractRecordsFlushesOnNextID(t *testing.T) {
	// Scenario from the spec: a dangling leading <id> with no name
	// before the next <id> arrives is discarded.
	input := `<pulldown><id>2</id><id>110</id><name>Route A</name><id>120</id><name>Route B</name></pulldown>`

	records, err := extractRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("extractRecords: %v", err)
	}

	want := []rawRecord{
		{ID: "110", Name: "Route A", Flags: map[string]string{}},
		{ID: "120", Name: "Route B", Flags: map[string]string{}},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(records), len(want), records)
	}
	for i := range want {
		if records[i].ID != want[i].ID || records[i].Name != want[i].Name {
			t.Errorf("records[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestExtractRecordsIdempotent(t *testing.T) {
	input := `<r><id>1</id><name>A</name><id>2</id><name>B</name></r>`
	first, err := extractRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	second, err := extractRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("idempotence violated: %d vs %d records", len(first), len(second))
	}
	for i := range first {
		if !reflect.DeepEqual(first[i], second[i]) {
			t.Errorf("record %d differs between parses: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestExtractRecordsIncompleteTrailingDiscarded(t *testing.T) {
	input := `<r><id>1</id><name>A</name><id>2</id></r>`
	records, err := extractRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("extractRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (trailing incomplete tuple discarded)", len(records))
	}
}

func TestExtractRoutesMapsChangeFlag(t *testing.T) {
	input := `<r><id>110</id><name>Route A</name><change>1</change><id>120</id><name>Route B</name></r>`
	routes, err := ExtractRoutes(strings.NewReader(input), "1")
	if err != nil {
		t.Fatalf("ExtractRoutes: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("got %d routes, want 2", len(routes))
	}
	if !routes[0].Changed {
		t.Errorf("routes[0].Changed = false, want true")
	}
	if routes[1].Changed {
		t.Errorf("routes[1].Changed = true, want false")
	}
	if routes[0].AreaID != "1" {
		t.Errorf("routes[0].AreaID = %q, want %q", routes[0].AreaID, "1")
	}
}

func TestExtractDatesParsesYYYYMMDD(t *testing.T) {
	input := `<r><id>1</id><name>20251012</name><id>2</id><name>20251013</name></r>`
	dates, err := ExtractDates(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ExtractDates: %v", err)
	}
	if len(dates) != 2 {
		t.Fatalf("got %d dates, want 2", len(dates))
	}
	if dates[0].YYYYMMDD() != "20251012" {
		t.Errorf("dates[0] = %s, want 20251012", dates[0].YYYYMMDD())
	}
}
