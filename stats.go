package main

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	elevationDeadBand = 2.0 // meters
	minMovingSpeed    = 0.5 // m/s
	maxMovingSpeed    = 15.0
	loopMaxGapKm      = 0.5
	loopMaxGapRatio   = 0.05
)

var ErrNoPoints = errors.New("no track points")

// --- Structs ---

type TripShape int

const (
	ShapeLoop TripShape = iota
	ShapeOutAndBack
)

func (s TripShape) String() string {
	if s == ShapeLoop {
		return "Loop"
	}
	return "A/R"
}

type TrackStats struct {
	Distance   string // km, two decimals
	Gain       int
	Loss       int
	MaxEle     int
	MinEle     int
	MovingTime time.Duration
	TotalTime  time.Duration
	Shape      TripShape
}

// --- Dead-band accumulator ---

// elevationAccumulator collects elevation deltas and only commits them to gain
// or loss once the running delta leaves the dead band.
type elevationAccumulator struct {
	threshold float64
	pending   float64
	gain      float64
	loss      float64
}

func newElevationAccumulator(threshold float64) *elevationAccumulator {
	return &elevationAccumulator{threshold: threshold}
}

func (a *elevationAccumulator) Add(delta float64) {
	a.pending += delta
	switch {
	case a.pending > a.threshold:
		a.gain += a.pending
		a.pending = 0
	case a.pending < -a.threshold:
		a.loss += -a.pending
		a.pending = 0
	}
}

func (a *elevationAccumulator) Gain() float64 { return a.gain }
func (a *elevationAccumulator) Loss() float64 { return a.loss }

// --- Statistics ---

func calculateStats(points []Point) (TrackStats, error) {
	if len(points) == 0 {
		return TrackStats{}, ErrNoPoints
	}

	first := points[0]
	last := points[len(points)-1]
	minEle, maxEle := first.Ele, first.Ele
	smoothed := smoothElevations(points, defaultSmoothingWindow)
	acc := newElevationAccumulator(elevationDeadBand)

	var distance float64
	var movingTime time.Duration
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]

		segmentKm := haversine(prev, cur)
		distance += segmentKm

		acc.Add(smoothed[i] - smoothed[i-1])

		minEle = math.Min(minEle, cur.Ele)
		maxEle = math.Max(maxEle, cur.Ele)

		if !prev.HasTime() || !cur.HasTime() {
			continue
		}
		dt := cur.Time.Sub(prev.Time)
		if dt <= 0 {
			continue
		}
		speed := segmentKm * 1000 / dt.Seconds()
		if speed > minMovingSpeed && speed < maxMovingSpeed {
			movingTime += dt
		}
	}

	var totalTime time.Duration
	if first.HasTime() && last.HasTime() {
		totalTime = last.Time.Sub(first.Time)
	}

	return TrackStats{
		Distance:   fmt.Sprintf("%.2f", distance),
		Gain:       int(math.Round(acc.Gain())),
		Loss:       int(math.Round(acc.Loss())),
		MaxEle:     int(math.Round(maxEle)),
		MinEle:     int(math.Round(minEle)),
		MovingTime: movingTime,
		TotalTime:  totalTime,
		Shape:      classifyShape(haversine(first, last), distance),
	}, nil
}

func classifyShape(startToEndKm, totalKm float64) TripShape {
	if startToEndKm < loopMaxGapKm || startToEndKm < totalKm*loopMaxGapRatio {
		return ShapeLoop
	}
	return ShapeOutAndBack
}

// formatDuration renders d as "3h 7m"; non-positive durations render as "N/A".
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "N/A"
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
