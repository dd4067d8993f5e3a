package models

import "testing"

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"2330":     "TW2330",
		"TW2330":   "TW2330",
		` "2330" `: "TW2330",
		"0050":     "TW0050",
	}
	for in, want := range cases {
		got, err := NormalizeSymbol(in)
		if err != nil {
			t.Fatalf("NormalizeSymbol(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeSymbolInvalid(t *testing.T) {
	for _, in := range []string{"", "TW", "2330B", "加權指數"} {
		if _, err := NormalizeSymbol(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
