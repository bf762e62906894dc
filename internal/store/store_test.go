package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/delay.report/internal/fsutil"
	"github.com/banshee-data/delay.report/internal/table"
	"github.com/banshee-data/delay.report/internal/timeutil"
)

func newTestStore(t *testing.T) (*Store, *fsutil.MemoryFileSystem, *timeutil.MockClock) {
	t.Helper()
	fs := fsutil.NewMemoryFileSystem()
	clock := timeutil.NewMockClock(time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC))
	return New(fs, clock), fs, clock
}

func TestTimestampedPath(t *testing.T) {
	s, _, _ := newTestStore(t)

	got := s.TimestampedPath("data/raw", "transit_data", ".csv")
	want := filepath.Join("data/raw", "transit_data_20260829_080000.csv")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSaveTableNeverOverwrites(t *testing.T) {
	s, _, clock := newTestStore(t)

	tbl := table.New("a")
	if err := tbl.AppendRow([]string{"1"}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.SaveTable("data/raw", "transit_data", tbl); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// Same second: filename collides and the save must refuse.
	if _, err := s.SaveTable("data/raw", "transit_data", tbl); err == nil {
		t.Error("expected collision error for save within the same second")
	}

	clock.Advance(time.Second)
	if _, err := s.SaveTable("data/raw", "transit_data", tbl); err != nil {
		t.Errorf("save after clock advance: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, _, _ := newTestStore(t)

	tbl := table.New("trip_id", "latitude")
	if err := tbl.AppendRow([]string{"t1", "37.3"}); err != nil {
		t.Fatal(err)
	}

	path, err := s.SaveTable("data/raw", "transit_data", tbl)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.NumRows() != 1 || got.Cell(0, "trip_id") != "t1" {
		t.Errorf("unexpected table %+v", got)
	}
}

func TestLatestFileEmptyDirectory(t *testing.T) {
	s, fs, _ := newTestStore(t)

	// Directory does not exist at all.
	_, err := s.LatestFile("data/raw", "transit")
	if !errors.Is(err, ErrNoArtifacts) {
		t.Errorf("got %v, want ErrNoArtifacts", err)
	}

	// Directory exists but has no matching file.
	if err := fs.MkdirAll("data/raw", 0755); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteFile("data/raw/weather_data_1.csv", []byte("a\n1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = s.LatestFile("data/raw", "transit")
	if !errors.Is(err, ErrNoArtifacts) {
		t.Errorf("got %v, want ErrNoArtifacts", err)
	}
}

func TestLatestFilePicksNewestMtime(t *testing.T) {
	s, fs, _ := newTestStore(t)

	if err := fs.WriteFile("data/raw/transit_data_1.csv", []byte("a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := fs.WriteFile("data/raw/transit_data_2.csv", []byte("a\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// Make the lexically-earlier file the newest to prove mtime wins.
	if err := fs.SetModTime("data/raw/transit_data_1.csv", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	got, err := s.LatestFile("data/raw", "transit", ".csv")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join("data/raw", "transit_data_1.csv") {
		t.Errorf("got %q", got)
	}
}

func TestLatestFileFiltersExtension(t *testing.T) {
	s, fs, _ := newTestStore(t)

	if err := fs.WriteFile("data/raw/transit_raw_1.pb", []byte{0x1}, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := s.LatestFile("data/raw", "transit", ".csv")
	if !errors.Is(err, ErrNoArtifacts) {
		t.Errorf("got %v, want ErrNoArtifacts for extension mismatch", err)
	}
}

func TestLoadLatestTable(t *testing.T) {
	s, fs, _ := newTestStore(t)

	if err := fs.WriteFile("data/raw/transit_data_1.csv", []byte("trip_id\nt1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	tbl, path, err := s.LoadLatestTable("data/raw", "transit")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.NumRows() != 1 {
		t.Errorf("got %d rows, want 1", tbl.NumRows())
	}
	if path != filepath.Join("data/raw", "transit_data_1.csv") {
		t.Errorf("got path %q", path)
	}
}
