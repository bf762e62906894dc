package fsutil

import (
	"errors"
	"io/fs"
	"testing"
	"time"
)

func TestMemoryFileSystem_WriteRead(t *testing.T) {
	m := NewMemoryFileSystem()

	if err := m.WriteFile("data/raw/a.csv", []byte("x,y\n1,2\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := m.ReadFile("data/raw/a.csv")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "x,y\n1,2\n" {
		t.Errorf("got %q", got)
	}
}

func TestMemoryFileSystem_ReadMissing(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.ReadFile("nope.csv")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want fs.ErrNotExist", err)
	}
}

func TestMemoryFileSystem_ReadDirMissing(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.ReadDir("absent")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("got %v, want fs.ErrNotExist", err)
	}
}

func TestMemoryFileSystem_ReadDirSorted(t *testing.T) {
	m := NewMemoryFileSystem()
	for _, name := range []string{"raw/b.csv", "raw/a.csv", "raw/c.csv"} {
		if err := m.WriteFile(name, []byte("data"), 0644); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
	}

	entries, err := m.ReadDir("raw")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"a.csv", "b.csv", "c.csv"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestMemoryFileSystem_ModTimesIncrease(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.WriteFile("d/first.csv", nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteFile("d/second.csv", nil, 0644); err != nil {
		t.Fatal(err)
	}

	fi1, err := m.Stat("d/first.csv")
	if err != nil {
		t.Fatal(err)
	}
	fi2, err := m.Stat("d/second.csv")
	if err != nil {
		t.Fatal(err)
	}
	if !fi2.ModTime().After(fi1.ModTime()) {
		t.Errorf("second write mod time %v not after first %v", fi2.ModTime(), fi1.ModTime())
	}
}

func TestMemoryFileSystem_SetModTime(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.WriteFile("d/a.csv", nil, 0644); err != nil {
		t.Fatal(err)
	}

	want := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := m.SetModTime("d/a.csv", want); err != nil {
		t.Fatal(err)
	}

	fi, err := m.Stat("d/a.csv")
	if err != nil {
		t.Fatal(err)
	}
	if !fi.ModTime().Equal(want) {
		t.Errorf("got %v, want %v", fi.ModTime(), want)
	}
}

func TestMemoryFileSystem_MkdirAllExists(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.MkdirAll("data/processed", 0755); err != nil {
		t.Fatal(err)
	}
	if !m.Exists("data/processed") {
		t.Error("directory should exist")
	}
	if !m.Exists("data") {
		t.Error("parent directory should exist")
	}
	if m.Exists("models") {
		t.Error("unrelated directory should not exist")
	}
}

func TestOSFileSystem_RoundTrip(t *testing.T) {
	osfs := OSFileSystem{}
	dir := t.TempDir()

	if err := osfs.MkdirAll(dir+"/sub", 0755); err != nil {
		t.Fatal(err)
	}
	if err := osfs.WriteFile(dir+"/sub/f.csv", []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := osfs.ReadFile(dir + "/sub/f.csv")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi" {
		t.Errorf("got %q", got)
	}

	entries, err := osfs.ReadDir(dir + "/sub")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "f.csv" {
		t.Errorf("unexpected entries %v", entries)
	}
}
