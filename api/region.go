package emucore

import "strings"

// Region represents a console video region.
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
)

// String returns the display name of the region.
func (r Region) String() string {
	switch r {
	case RegionNTSC:
		return "NTSC"
	case RegionPAL:
		return "PAL"
	default:
		return "Unknown"
	}
}

// DefaultRegion returns the region assumed when nothing better is known.
// ROM headers rarely distinguish PAL from NTSC, so hosts should offer an
// override.
func DefaultRegion() Region {
	return RegionNTSC
}

// ParseRegion maps user-supplied text ("ntsc", "pal", any case) to a
// Region. Unrecognized text, including "auto", returns the default region
// and false so the caller can fall back to detection.
func ParseRegion(s string) (Region, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ntsc":
		return RegionNTSC, true
	case "pal":
		return RegionPAL, true
	}
	return DefaultRegion(), false
}

// Timing holds the frame rate and scanline count for the current region.
// CPU clocks are core-internal and not exposed here.
type Timing struct {
	FPS       int
	Scanlines int
}
