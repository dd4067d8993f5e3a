package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}
func TestFormatTWSEDate(t *testing.T) {
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if got := FormatTWSEDate(d); got != "20240603" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestFormatParseDateRoundtrip(t *testing.T) {
	d := time.Date(2006, 10, 31, 0, 0, 0, 0, time.UTC)
	s := FormatDate(d)
	if s != "2006-10-31" {
		t.Fatalf("unexpected format %q", s)
	}
	got, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(d) {
		t.Fatalf("roundtrip %v != %v", got, d)
	}
}

func TestTaipeiMidnight(t *testing.T) {
	// 18:00 UTC on the 2nd is already the 3rd in Taipei
	in := time.Date(2024, 6, 2, 18, 0, 0, 0, time.UTC)
	got := TaipeiMidnight(in)
	if got.Year() != 2024 || got.Month() != 6 || got.Day() != 3 {
		t.Fatalf("unexpected day %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatalf("not midnight: %v", got)
	}
}
