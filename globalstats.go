package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+)h`)
	minutesPattern = regexp.MustCompile(`(\d+)m`)
)

// --- Structs ---

type hikeFrontMatter struct {
	Title       string `yaml:"title"`
	PublishedOn string `yaml:"publishedOn"`
	Distance    string `yaml:"distance"`
	Gain        int    `yaml:"gain"`
	MovingTime  string `yaml:"movingTime"`
	Slept       bool   `yaml:"slept"`
}

type hikeSummary struct {
	Title      string
	Date       time.Time
	Slug       string
	DistanceKm float64
	Gain       int
	Moving     time.Duration
	Slept      bool
}

type latestHike struct {
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Slug  string    `json:"slug"`
}

type hikeTotals struct {
	Total     int    `json:"total"`
	Distance  string `json:"distance"`
	Elevation string `json:"elevation"`
	Time      string `json:"time"`
}

type globalStats struct {
	LatestHike  *latestHike `json:"latestHike"`
	SleptNights int         `json:"sleptNights"` // hikes with a night outside
	Hikes       hikeTotals  `json:"hikes"`
}

// --- Aggregation ---

func readHikeSummary(docPath string) (hikeSummary, error) {
	raw, err := os.ReadFile(docPath)
	if err != nil {
		return hikeSummary{}, err
	}
	doc, err := parseDocument(raw)
	if err != nil {
		return hikeSummary{}, fmt.Errorf("%s: %w", docPath, err)
	}
	var fm hikeFrontMatter
	if err := doc.Decode(&fm); err != nil {
		return hikeSummary{}, fmt.Errorf("%s: %w", docPath, err)
	}

	distance, _ := strconv.ParseFloat(fm.Distance, 64)
	base := filepath.Base(docPath)
	return hikeSummary{
		Title:      fm.Title,
		Date:       parsePublishedOn(fm.PublishedOn),
		Slug:       strings.TrimSuffix(base, filepath.Ext(base)),
		DistanceKm: distance,
		Gain:       fm.Gain,
		Moving:     parseDurationLabel(fm.MovingTime),
		Slept:      fm.Slept,
	}, nil
}

func parsePublishedOn(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseDurationLabel reads the "3h 7m" labels written by formatDuration.
func parseDurationLabel(s string) time.Duration {
	var d time.Duration
	if m := hoursPattern.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		d += time.Duration(h) * time.Hour
	}
	if m := minutesPattern.FindStringSubmatch(s); m != nil {
		mins, _ := strconv.Atoi(m[1])
		d += time.Duration(mins) * time.Minute
	}
	return d
}

func aggregateHikes(hikes []hikeSummary) globalStats {
	sorted := make([]hikeSummary, len(hikes))
	copy(sorted, hikes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	var distance float64
	var gain int64
	var moving time.Duration
	var slept int
	for _, h := range sorted {
		distance += h.DistanceKm
		gain += int64(h.Gain)
		moving += h.Moving
		if h.Slept {
			slept++
		}
	}

	stats := globalStats{
		Hikes: hikeTotals{
			Total:     len(sorted),
			Distance:  fmt.Sprintf("%d km", int64(math.Round(distance))),
			Elevation: humanize.Comma(gain) + " m",
			Time:      fmt.Sprintf("%dh %dm", int(moving/time.Hour), int((moving%time.Hour)/time.Minute)),
		},
	}
	stats.SleptNights = slept
	if len(sorted) > 0 {
		stats.LatestHike = &latestHike{Title: sorted[0].Title, Date: sorted[0].Date, Slug: sorted[0].Slug}
	}
	return stats
}

func writeGlobalStats(path string, docs []string) error {
	hikes := make([]hikeSummary, 0, len(docs))
	for _, doc := range docs {
		h, err := readHikeSummary(doc)
		if err != nil {
			return err
		}
		hikes = append(hikes, h)
	}

	data, err := json.MarshalIndent(aggregateHikes(hikes), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
