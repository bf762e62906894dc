package table

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustAppend(t *testing.T, tbl *Table, rows ...[]string) {
	t.Helper()
	for _, row := range rows {
		if err := tbl.AppendRow(row); err != nil {
			t.Fatalf("AppendRow(%v): %v", row, err)
		}
	}
}

func TestAppendRowPadsShortRows(t *testing.T) {
	tbl := New("a", "b", "c")
	mustAppend(t, tbl, []string{"1"})

	want := []string{"1", "", ""}
	if diff := cmp.Diff(want, tbl.Rows[0]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendRowRejectsLongRows(t *testing.T) {
	tbl := New("a")
	if err := tbl.AppendRow([]string{"1", "2"}); err == nil {
		t.Error("expected error for over-long row")
	}
}

func TestProjectOmitsAbsentColumns(t *testing.T) {
	tbl := New("trip_id", "junk", "latitude")
	mustAppend(t, tbl, []string{"t1", "x", "37.3"})

	got := tbl.Project([]string{"trip_id", "latitude", "timestamp"})

	if diff := cmp.Diff([]string{"trip_id", "latitude"}, got.Cols); diff != "" {
		t.Errorf("cols mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"t1", "37.3"}, got.Rows[0]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestDropDuplicatesIdempotent(t *testing.T) {
	tbl := New("a", "b")
	mustAppend(t, tbl,
		[]string{"1", "x"},
		[]string{"1", "x"},
		[]string{"2", "y"},
		[]string{"1", "x"},
	)

	once := tbl.DropDuplicates()
	if once.NumRows() != 2 {
		t.Fatalf("got %d rows, want 2", once.NumRows())
	}

	twice := once.DropDuplicates()
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("DropDuplicates not idempotent (-once +twice):\n%s", diff)
	}
}

func TestDropDuplicatesKeepsFirstOccurrence(t *testing.T) {
	tbl := New("a")
	mustAppend(t, tbl, []string{"2"}, []string{"1"}, []string{"2"})

	got := tbl.DropDuplicates()
	want := [][]string{{"2"}, {"1"}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFloatColumnZeroFills(t *testing.T) {
	tbl := New("v")
	mustAppend(t, tbl, []string{"1.5"}, []string{""}, []string{"bogus"}, []string{"-2"})

	got := tbl.FloatColumn("v")
	want := []float64{1.5, 0, 0, -2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestNumericColumns(t *testing.T) {
	tbl := New("trip_id", "latitude", "empty", "mixed")
	mustAppend(t, tbl,
		[]string{"t1", "37.3", "", "1"},
		[]string{"t2", "37.4", "", "oops"},
	)

	got := tbl.NumericColumns()
	want := []string{"latitude"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("numeric columns mismatch (-want +got):\n%s", diff)
	}
}

func TestAddColumn(t *testing.T) {
	tbl := New("a")
	mustAppend(t, tbl, []string{"1"}, []string{"2"})

	if err := tbl.AddColumn("b", []string{"x", "y"}); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if got := tbl.Cell(1, "b"); got != "y" {
		t.Errorf("got %q, want %q", got, "y")
	}

	if err := tbl.AddColumn("b", []string{"x", "y"}); err == nil {
		t.Error("expected error for duplicate column")
	}
	if err := tbl.AddColumn("c", []string{"x"}); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestSortRowsStable(t *testing.T) {
	tbl := New("k", "tag")
	mustAppend(t, tbl,
		[]string{"2", "first"},
		[]string{"1", "a"},
		[]string{"2", "second"},
	)

	tbl.SortRows(func(a, b []string) bool { return a[0] < b[0] })

	want := [][]string{{"1", "a"}, {"2", "first"}, {"2", "second"}}
	if diff := cmp.Diff(want, tbl.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestHead(t *testing.T) {
	tbl := New("a")
	mustAppend(t, tbl, []string{"1"}, []string{"2"}, []string{"3"})

	if got := tbl.Head(2).NumRows(); got != 2 {
		t.Errorf("Head(2) rows = %d, want 2", got)
	}
	if got := tbl.Head(10).NumRows(); got != 3 {
		t.Errorf("Head(10) rows = %d, want 3", got)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	tbl := New("trip_id", "latitude")
	mustAppend(t, tbl, []string{"t1", "37.3"}, []string{"t2", ""})

	data, err := tbl.ToCSVBytes()
	if err != nil {
		t.Fatalf("ToCSVBytes: %v", err)
	}

	got, err := FromCSVBytes(data)
	if err != nil {
		t.Fatalf("FromCSVBytes: %v", err)
	}
	if diff := cmp.Diff(tbl, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVPadsRaggedRecords(t *testing.T) {
	in := "a,b,c\n1,2\n"
	got, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2", ""}, got.Rows[0]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVEmptyStream(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty stream")
	}
}
