package models

import (
	"fmt"
	"strings"
	"time"
)

// Index identifies a supported Taiwan market index.
type Index string

const (
	IndexTWII     Index = "TWII"     // Taiwan Weighted Index: all TWSE listed companies
	IndexTW50     Index = "TW50"     // Taiwan 50 Index: top 50 large caps
	IndexTWMIDCAP Index = "TWMIDCAP" // Taiwan Mid-Cap 100 Index
)

// Indices lists all supported indices in a stable order.
func Indices() []Index {
	return []Index{IndexTWII, IndexTW50, IndexTWMIDCAP}
}

// ParseIndex resolves a case-insensitive index name.
func ParseIndex(name string) (Index, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TWII":
		return IndexTWII, nil
	case "TW50":
		return IndexTW50, nil
	case "TWMIDCAP":
		return IndexTWMIDCAP, nil
	default:
		return "", fmt.Errorf("unknown index name: %q (expected TWII, TW50 or TWMIDCAP)", name)
	}
}

// FileStem is the lower-case name used for instruments and cache files.
func (i Index) FileStem() string {
	return strings.ToLower(string(i))
}

// BenchStartDate is the inception date of the index benchmark.
func (i Index) BenchStartDate() time.Time {
	switch i {
	case IndexTW50:
		return time.Date(2003, 6, 30, 0, 0, 0, 0, time.UTC)
	case IndexTWMIDCAP:
		return time.Date(2006, 10, 31, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	}
}

// DefaultEndDate is the open-ended end date assigned to current constituents.
func DefaultEndDate() time.Time {
	return time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC)
}
