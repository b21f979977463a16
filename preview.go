package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
)

const (
	previewCaptionSize = 18.0
	previewShadowShift = 2.0
)

// renderPreview draws a raster version of the map with a stats caption.
func renderPreview(vp Viewport, tiles []TileImage, points []Point, stats TrackStats, c Canvas, pathColor color.Color, font *truetype.Font) ([]byte, error) {
	dc := gg.NewContext(c.Width, c.Height)
	dc.SetColor(color.White)
	dc.Clear()

	// Tiles are positioned in global pixels; map them onto the canvas.
	dc.Push()
	dc.Scale(1/vp.Scale, 1/vp.Scale)
	dc.Translate(-vp.Min.X, -vp.Min.Y)
	for _, t := range tiles {
		if t.Data == nil {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			log.Printf("Warning: could not decode tile %s: %v", t.Tile, err)
			continue
		}
		dc.DrawImage(desaturate(img, mapLayerOpacity), t.X*tileSize, t.Y*tileSize)
	}
	dc.Pop()

	if len(points) > 0 {
		canvasPts := make([]PixelPoint, len(points))
		for i, p := range points {
			px := project(p, vp.Zoom)
			canvasPts[i] = PixelPoint{X: (px.X - vp.Min.X) / vp.Scale, Y: (px.Y - vp.Min.Y) / vp.Scale}
		}
		dc.SetLineCapRound()
		dc.SetLineJoinRound()
		dc.SetLineWidth(routeStrokeWidth)

		dc.SetRGBA(0, 0, 0, 0.5)
		strokePolyline(dc, canvasPts, previewShadowShift)
		dc.SetColor(pathColor)
		strokePolyline(dc, canvasPts, 0)
	}

	if font != nil {
		face := truetype.NewFace(font, &truetype.Options{Size: previewCaptionSize})
		dc.SetFontFace(face)
		caption := fmt.Sprintf("%s km  +%d m  -%d m  %s", stats.Distance, stats.Gain, stats.Loss, stats.Shape)
		barHeight := previewCaptionSize * 1.8
		dc.SetRGBA(0, 0, 0, 0.55)
		dc.DrawRectangle(0, float64(c.Height)-barHeight, float64(c.Width), barHeight)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawStringAnchored(caption, float64(c.Width)/2, float64(c.Height)-barHeight/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func strokePolyline(dc *gg.Context, pts []PixelPoint, shift float64) {
	dc.MoveTo(pts[0].X+shift, pts[0].Y+shift)
	for _, p := range pts[1:] {
		dc.LineTo(p.X+shift, p.Y+shift)
	}
	dc.Stroke()
}

// desaturate converts img to grayscale and scales its alpha by opacity.
func desaturate(img image.Image, opacity float64) image.Image {
	bounds := img.Bounds()
	out := image.NewRGBA64(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// Premultiplied values; luminance is linear so it stays premultiplied.
			r, g, b, a := img.At(x, y).RGBA()
			lum := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) * opacity
			alpha := float64(a) * opacity
			v := uint16(min(lum, alpha))
			out.SetRGBA64(x, y, color.RGBA64{R: v, G: v, B: v, A: uint16(alpha)})
		}
	}
	return out
}
