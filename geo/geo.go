package geo

import (
	"math"
	"strings"
)

// earthRadiusKm is the mean sphere radius used by the haversine formula.
const earthRadiusKm = 6371

// Point is a geographic coordinate in decimal degrees (WGS 84).
type Point struct {
	Lat float64
	Lon float64
}

// Entry maps a known place name to its coordinates.
type Entry struct {
	Name string
	Lat  float64
	Lon  float64
}

// Index resolves place names to coordinates. It is immutable after
// construction and safe to share across concurrent callers.
type Index struct {
	entries []Entry
}

// NewIndex creates an index over the given entries. Substring matches
// are answered in entry order, so order the entries by priority.
func NewIndex(entries []Entry) *Index {
	idx := &Index{entries: make([]Entry, len(entries))}
	for i, e := range entries {
		e.Name = strings.ToLower(e.Name)
		idx.entries[i] = e
	}
	return idx
}

// Resolve returns the coordinates for a place name. Matching is
// case-insensitive: an exact name match wins, otherwise the first entry
// where either string contains the other.
func (i *Index) Resolve(name string) (Point, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Point{}, false
	}
	for _, e := range i.entries {
		if e.Name == needle {
			return Point{Lat: e.Lat, Lon: e.Lon}, true
		}
	}
	for _, e := range i.entries {
		if strings.Contains(e.Name, needle) || strings.Contains(needle, e.Name) {
			return Point{Lat: e.Lat, Lon: e.Lon}, true
		}
	}
	return Point{}, false
}

// Distance returns the great-circle distance between two points in
// kilometers, computed with the haversine formula.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// RoundKm rounds a distance to one decimal place for presentation.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DefaultNZ returns the built-in index of common New Zealand locations.
// A geocoding service would replace this in production.
func DefaultNZ() *Index {
	return NewIndex([]Entry{
		{"auckland", -36.8509, 174.7645},
		{"wellington", -41.2865, 174.7762},
		{"christchurch", -43.5321, 172.6362},
		{"queenstown", -45.0302, 168.6616},
		{"rotorua", -38.1368, 176.2497},
		{"taupo", -38.6857, 176.0702},
		{"wanaka", -44.7032, 169.1304},
		{"napier", -39.4928, 176.9120},
		{"coromandel", -36.8262, 175.7907},
		{"mt cook", -43.7362, 170.0964},
		{"dunedin", -45.8788, 170.5028},
		{"nelson", -41.2706, 173.2840},
		{"hamilton", -37.7870, 175.2793},
		{"tauranga", -37.6878, 176.1651},
		{"invercargill", -46.4132, 168.3538},
		{"lake tekapo", -44.0025, 170.4774},
	})
}
