package models

import (
	"testing"
	"time"
)

func TestParseIndex(t *testing.T) {
	cases := map[string]Index{
		"TWII":     IndexTWII,
		"twii":     IndexTWII,
		"TW50":     IndexTW50,
		"tw50":     IndexTW50,
		"TWMIDCAP": IndexTWMIDCAP,
		"TwMidCap": IndexTWMIDCAP,
	}
	for in, want := range cases {
		got, err := ParseIndex(in)
		if err != nil {
			t.Fatalf("ParseIndex(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseIndex(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseIndexUnknown(t *testing.T) {
	if _, err := ParseIndex("SP500"); err == nil {
		t.Fatalf("expected error for unknown index")
	}
}

func TestBenchStartDate(t *testing.T) {
	cases := map[Index]time.Time{
		IndexTWII:     time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		IndexTW50:     time.Date(2003, 6, 30, 0, 0, 0, 0, time.UTC),
		IndexTWMIDCAP: time.Date(2006, 10, 31, 0, 0, 0, 0, time.UTC),
	}
	for idx, want := range cases {
		if got := idx.BenchStartDate(); !got.Equal(want) {
			t.Fatalf("%v start = %v, want %v", idx, got, want)
		}
	}
}

func TestDefaultEndDate(t *testing.T) {
	want := time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)
	if got := DefaultEndDate(); !got.Equal(want) {
		t.Fatalf("end = %v, want %v", got, want)
	}
}

func TestFileStem(t *testing.T) {
	if got := IndexTWMIDCAP.FileStem(); got != "twmidcap" {
		t.Fatalf("stem = %q", got)
	}
}
