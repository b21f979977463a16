package main

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/tkrajina/gpxgo/gpx"
	"gonum.org/v1/gonum/stat"
)

const (
	earthRadiusKm          = 6371.0
	defaultSmoothingWindow = 5
)

var ErrMalformedTrack = errors.New("malformed track")

// --- Structs ---

// Point is one track-log sample. A zero Time means the sample had no timestamp.
type Point struct {
	Lat, Lon, Ele float64
	Time          time.Time
}

func (p Point) HasTime() bool { return !p.Time.IsZero() }

// --- GPX Parsing ---

// parseGpx flattens every track and segment of a GPX document into one ordered
// point sequence. An empty track is not an error.
func parseGpx(data []byte) ([]Point, error) {
	gpxFile, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTrack, err)
	}

	var points []Point
	for _, track := range gpxFile.Tracks {
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				if !isFinite(p.Latitude) || !isFinite(p.Longitude) {
					log.Printf("Warning: skipping point with non-finite coordinates (%v, %v)", p.Latitude, p.Longitude)
					continue
				}
				var ele float64
				if p.Elevation.NotNull() && isFinite(p.Elevation.Value()) {
					ele = p.Elevation.Value()
				}
				points = append(points, Point{Lat: p.Latitude, Lon: p.Longitude, Ele: ele, Time: p.Timestamp})
			}
		}
	}
	return points, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// --- Geodesy ---

// haversine returns the great-circle distance between p1 and p2 in kilometers.
func haversine(p1, p2 Point) float64 {
	lat1 := p1.Lat * math.Pi / 180
	lon1 := p1.Lon * math.Pi / 180
	lat2 := p2.Lat * math.Pi / 180
	lon2 := p2.Lon * math.Pi / 180

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	a = math.Min(math.Max(a, 0), 1)
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusKm * c
}

// --- Smoothing ---

// smoothElevations runs a centered moving average over the elevation channel.
// Windows are truncated at both ends of the sequence.
func smoothElevations(points []Point, window int) []float64 {
	if window < 1 {
		window = 1
	}
	half := window / 2
	raw := make([]float64, len(points))
	for i, p := range points {
		raw[i] = p.Ele
	}

	smoothed := make([]float64, len(points))
	for i := range raw {
		start := max(0, i-half)
		end := min(len(raw), i+half+1)
		smoothed[i] = stat.Mean(raw[start:end], nil)
	}
	return smoothed
}
