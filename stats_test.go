package main

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kmPerDegreeAtEquator is the length of one degree of longitude on the equator.
const kmPerDegreeAtEquator = earthRadiusKm * math.Pi / 180

func profile(eles ...float64) []Point {
	points := make([]Point, len(eles))
	for i, e := range eles {
		points[i] = Point{Lat: 0, Lon: float64(i) * 0.001, Ele: e}
	}
	return points
}

func TestElevationAccumulator(t *testing.T) {
	t.Run("sub-threshold deltas stay pending", func(t *testing.T) {
		acc := newElevationAccumulator(2)
		acc.Add(1)
		acc.Add(0.5)
		acc.Add(-1.2)
		assert.Zero(t, acc.Gain())
		assert.Zero(t, acc.Loss())
	})

	t.Run("flush as gain", func(t *testing.T) {
		acc := newElevationAccumulator(2)
		acc.Add(1.5)
		acc.Add(1.5)
		assert.InDelta(t, 3, acc.Gain(), 1e-9)
		assert.Zero(t, acc.Loss())
		// The running delta restarts from zero after a flush.
		acc.Add(1.5)
		assert.InDelta(t, 3, acc.Gain(), 1e-9)
	})

	t.Run("flush as loss", func(t *testing.T) {
		acc := newElevationAccumulator(2)
		acc.Add(-2.5)
		assert.InDelta(t, 2.5, acc.Loss(), 1e-9)
		assert.Zero(t, acc.Gain())
	})

	t.Run("exactly at threshold does not flush", func(t *testing.T) {
		acc := newElevationAccumulator(2)
		acc.Add(2)
		acc.Add(-4)
		assert.Zero(t, acc.Gain())
		assert.Zero(t, acc.Loss())
		acc.Add(-0.5)
		assert.InDelta(t, 2.5, acc.Loss(), 1e-9)
	})

	t.Run("gain and loss are independent", func(t *testing.T) {
		acc := newElevationAccumulator(2)
		acc.Add(10)
		acc.Add(-10)
		assert.InDelta(t, 10, acc.Gain(), 1e-9)
		assert.InDelta(t, 10, acc.Loss(), 1e-9)
	})
}

func TestCalculateStats_NoPoints(t *testing.T) {
	_, err := calculateStats(nil)
	require.ErrorIs(t, err, ErrNoPoints)
}

func TestCalculateStats_SinglePoint(t *testing.T) {
	stats, err := calculateStats([]Point{{Lat: 46, Lon: 8, Ele: 1500.4, Time: t0}})
	require.NoError(t, err)
	assert.Equal(t, "0.00", stats.Distance)
	assert.Equal(t, 1500, stats.MaxEle)
	assert.Equal(t, 1500, stats.MinEle)
	assert.Equal(t, ShapeLoop, stats.Shape)
	assert.Zero(t, stats.TotalTime)
}

func TestCalculateStats_OscillationIsNoise(t *testing.T) {
	eles := make([]float64, 40)
	for i := range eles {
		if i%2 == 0 {
			eles[i] = 101
		} else {
			eles[i] = 99
		}
	}

	stats, err := calculateStats(profile(eles...))
	require.NoError(t, err)
	assert.Zero(t, stats.Gain)
	assert.Zero(t, stats.Loss)
	assert.Equal(t, 101, stats.MaxEle)
	assert.Equal(t, 99, stats.MinEle)
}

func TestCalculateStats_MonotonicClimb(t *testing.T) {
	// Flat lead-in and lead-out keep the smoothed end points at the raw values.
	stats, err := calculateStats(profile(0, 0, 0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 100, 100, 100))
	require.NoError(t, err)
	// The last sub-threshold residue may remain pending.
	assert.InDelta(t, 100, stats.Gain, 2)
	assert.Zero(t, stats.Loss)
	assert.Equal(t, 100, stats.MaxEle)
	assert.Equal(t, 0, stats.MinEle)
}

func TestCalculateStats_RampEdgesAreAttenuated(t *testing.T) {
	// Truncated windows at both ends pull the smoothed ramp in by 10 m each side.
	stats, err := calculateStats(profile(0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100))
	require.NoError(t, err)
	assert.InDelta(t, 80, stats.Gain, 2)
	assert.Equal(t, 100, stats.MaxEle)
}

func TestCalculateStats_ClimbAndDescent(t *testing.T) {
	stats, err := calculateStats(profile(0, 0, 0, 25, 50, 75, 100, 100, 100, 100, 100, 75, 50, 25, 0, 0, 0))
	require.NoError(t, err)
	assert.InDelta(t, 100, stats.Gain, 2)
	assert.InDelta(t, 100, stats.Loss, 2)
}

func TestCalculateStats_ThreePointTrack(t *testing.T) {
	points := []Point{
		{Lat: 0, Lon: 0, Ele: 0, Time: t0},
		{Lat: 0, Lon: 0.01, Ele: 10, Time: t0.Add(60 * time.Second)},
		{Lat: 0, Lon: 0.02, Ele: 5, Time: t0.Add(120 * time.Second)},
	}

	stats, err := calculateStats(points)
	require.NoError(t, err)
	assert.Equal(t, "2.22", stats.Distance)
	assert.Equal(t, 120*time.Second, stats.TotalTime)
	// Every window covers all three samples, so the smoothed profile is flat.
	assert.Zero(t, stats.Gain)
	assert.Zero(t, stats.Loss)
	assert.Equal(t, 10, stats.MaxEle)
	assert.Equal(t, 0, stats.MinEle)
	// 1.1 km a minute is faster than anyone walks.
	assert.Zero(t, stats.MovingTime)
	assert.Equal(t, ShapeOutAndBack, stats.Shape)
}

func TestCalculateStats_MovingTime(t *testing.T) {
	points := []Point{
		{Lat: 0, Lon: 0, Time: t0},
		// ~1.2 m/s: moving.
		{Lat: 0, Lon: 0.01, Time: t0.Add(15 * time.Minute)},
		// Stopped for half an hour.
		{Lat: 0, Lon: 0.01, Time: t0.Add(45 * time.Minute)},
		// ~18.5 m/s: a GPS jump.
		{Lat: 0, Lon: 0.02, Time: t0.Add(46 * time.Minute)},
		// No timestamp on either side of these segments.
		{Lat: 0, Lon: 0.03},
		{Lat: 0, Lon: 0.04, Time: t0.Add(46 * time.Minute)},
		// Clock went backwards.
		{Lat: 0, Lon: 0.05, Time: t0.Add(45 * time.Minute)},
		// Another jump.
		{Lat: 0, Lon: 0.06, Time: t0.Add(46 * time.Minute)},
		// ~1.2 m/s over 90 s: moving.
		{Lat: 0, Lon: 0.061, Time: t0.Add(47*time.Minute + 30*time.Second)},
	}

	stats, err := calculateStats(points)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute+90*time.Second, stats.MovingTime)
	assert.Equal(t, 47*time.Minute+30*time.Second, stats.TotalTime)

	distance, err := strconv.ParseFloat(stats.Distance, 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.061*kmPerDegreeAtEquator, distance, 0.01)
}

func TestCalculateStats_TotalTimeNeedsBothEnds(t *testing.T) {
	stats, err := calculateStats([]Point{{Time: t0}, {Lat: 0.001}})
	require.NoError(t, err)
	assert.Zero(t, stats.TotalTime)
}

func TestCalculateStats_DuplicatePoints(t *testing.T) {
	p := Point{Lat: 45, Lon: 7, Ele: 300, Time: t0}
	stats, err := calculateStats([]Point{p, p, p})
	require.NoError(t, err)
	assert.Equal(t, "0.00", stats.Distance)
	assert.Zero(t, stats.MovingTime)
	assert.Equal(t, ShapeLoop, stats.Shape)
}

func TestClassifyShape(t *testing.T) {
	tenKm := 10 / kmPerDegreeAtEquator
	hundredM := 0.1 / kmPerDegreeAtEquator

	tests := []struct {
		name   string
		points []Point
		want   TripShape
	}{
		{
			name:   "closed loop",
			points: []Point{{Lat: 0, Lon: 0}, {Lat: 0.05, Lon: 0.05}, {Lat: 0, Lon: 0.1}, {Lat: 0, Lon: 0}},
			want:   ShapeLoop,
		},
		{
			name:   "out and back to within 100 m",
			points: []Point{{Lon: 0}, {Lon: tenKm / 2}, {Lon: tenKm}, {Lon: tenKm / 2}, {Lon: hundredM}},
			want:   ShapeLoop,
		},
		{
			name:   "straight line",
			points: []Point{{Lon: 0}, {Lon: tenKm / 2}, {Lon: tenKm}},
			want:   ShapeOutAndBack,
		},
		{
			name: "long route ending within 5 percent of its length",
			// 20 km out, ending 1.5 km from the start after 38.5 km.
			points: []Point{{Lon: 0}, {Lon: 4 * tenKm / 2}, {Lon: 1.5 * tenKm / 10}},
			want:   ShapeLoop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := calculateStats(tt.points)
			require.NoError(t, err)
			assert.Equal(t, tt.want, stats.Shape)
		})
	}
}

func TestTripShapeLabels(t *testing.T) {
	assert.Equal(t, "Loop", ShapeLoop.String())
	assert.Equal(t, "A/R", ShapeOutAndBack.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "N/A", formatDuration(0))
	assert.Equal(t, "N/A", formatDuration(-time.Minute))
	assert.Equal(t, "0h 1m", formatDuration(90*time.Second))
	assert.Equal(t, "3h 7m", formatDuration(3*time.Hour+7*time.Minute+59*time.Second))
	assert.Equal(t, "26h 0m", formatDuration(26*time.Hour))
}
