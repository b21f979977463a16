package main

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	tileSize      = 256
	minZoom       = 1
	maxZoom       = 18
	zoomPadFactor = 1.2
	trackFill     = 0.8 // share of the canvas the track should cover
)

// --- Structs ---

type Canvas struct {
	Width, Height int
}

var defaultCanvas = Canvas{Width: 600, Height: 400}

type PixelPoint struct {
	X, Y float64
}

// Viewport is the window into the global pixel space at Zoom that the map shows.
// Scale is the number of global pixels per canvas pixel.
type Viewport struct {
	Zoom     int
	Min, Max PixelPoint
	Scale    float64
}

func (v Viewport) Width() float64  { return v.Max.X - v.Min.X }
func (v Viewport) Height() float64 { return v.Max.Y - v.Min.Y }

// Tiles lists every tile whose cell intersects the viewport, column by column.
func (v Viewport) Tiles() []Tile {
	tMinX := int(math.Floor(v.Min.X / tileSize))
	tMaxX := int(math.Floor(v.Max.X / tileSize))
	tMinY := int(math.Floor(v.Min.Y / tileSize))
	tMaxY := int(math.Floor(v.Max.Y / tileSize))

	tiles := make([]Tile, 0, (tMaxX-tMinX+1)*(tMaxY-tMinY+1))
	for x := tMinX; x <= tMaxX; x++ {
		for y := tMinY; y <= tMaxY; y++ {
			tiles = append(tiles, Tile{X: x, Y: y, Z: v.Zoom})
		}
	}
	return tiles
}

// worldBounds is a bounding box in world coordinates, where both axes run over [0, 1).
type worldBounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// --- Projection ---

func worldXY(lat, lon float64) (float64, float64) {
	return deg2num(lat, lon, 0)
}

func project(p Point, zoom int) PixelPoint {
	x, y := deg2num(p.Lat, p.Lon, zoom)
	return PixelPoint{X: x * tileSize, Y: y * tileSize}
}

func trackBounds(points []Point) worldBounds {
	lats := make([]float64, len(points))
	lons := make([]float64, len(points))
	for i, p := range points {
		lats[i] = p.Lat
		lons[i] = p.Lon
	}
	// Northern latitudes map to smaller y.
	minX, minY := worldXY(floats.Max(lats), floats.Min(lons))
	maxX, maxY := worldXY(floats.Min(lats), floats.Max(lons))
	return worldBounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// selectZoom picks the largest zoom at which the padded bounds still fit the canvas.
func selectZoom(b worldBounds, c Canvas) int {
	zoomX, zoomY := math.Inf(1), math.Inf(1)
	if dx := b.MaxX - b.MinX; dx > 0 {
		zoomX = math.Log2(float64(c.Width) * zoomPadFactor / (dx * tileSize))
	}
	if dy := b.MaxY - b.MinY; dy > 0 {
		zoomY = math.Log2(float64(c.Height) * zoomPadFactor / (dy * tileSize))
	}

	zoom := math.Floor(math.Min(zoomX, zoomY))
	switch {
	case math.IsNaN(zoom) || zoom > maxZoom:
		return maxZoom
	case zoom < minZoom:
		return minZoom
	}
	return int(zoom)
}

// computeViewport frames the track at its best zoom, centered, with the canvas
// aspect ratio and the track covering trackFill of the limiting axis.
func computeViewport(points []Point, c Canvas) (Viewport, error) {
	if len(points) == 0 {
		return Viewport{}, ErrNoPoints
	}
	bounds := trackBounds(points)
	zoom := selectZoom(bounds, c)
	worldPx := tileSize * math.Exp2(float64(zoom))

	pMinX, pMaxX := bounds.MinX*worldPx, bounds.MaxX*worldPx
	pMinY, pMaxY := bounds.MinY*worldPx, bounds.MaxY*worldPx
	centerX := (pMinX + pMaxX) / 2
	centerY := (pMinY + pMaxY) / 2

	scale := math.Max((pMaxX-pMinX)/(float64(c.Width)*trackFill), (pMaxY-pMinY)/(float64(c.Height)*trackFill))
	if scale <= 0 {
		scale = 1
	}

	viewW := float64(c.Width) * scale
	viewH := float64(c.Height) * scale
	minPt := PixelPoint{X: centerX - viewW/2, Y: centerY - viewH/2}
	return Viewport{
		Zoom:  zoom,
		Min:   minPt,
		Max:   PixelPoint{X: minPt.X + viewW, Y: minPt.Y + viewH},
		Scale: scale,
	}, nil
}
