package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	svg "github.com/ajstarks/svgo"
)

const (
	routeStrokeWidth = 4.0 // canvas pixels
	mapLayerOpacity  = 0.8
)

// renderSVG composes the map: imagery tiles in a desaturated, translucent layer
// and the route as a single path on top. The document embeds everything it uses.
func renderSVG(vp Viewport, tiles []TileImage, points []Point, c Canvas, routeColor string) []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)

	canvas.Startraw(
		fmt.Sprintf(`width="%d"`, c.Width),
		fmt.Sprintf(`height="%d"`, c.Height),
		fmt.Sprintf(`viewBox="%.2f %.2f %.2f %.2f"`, vp.Min.X, vp.Min.Y, vp.Width(), vp.Height()),
	)

	canvas.Def()
	canvas.Filter("shadow", `x="-50%"`, `y="-50%"`, `width="200%"`, `height="200%"`)
	canvas.FeGaussianBlur(svg.Filterspec{In: "SourceAlpha", Result: "blur"}, 2, 2)
	canvas.FeOffset(svg.Filterspec{In: "blur", Result: "offset"}, 2, 2)
	canvas.FeFlood(svg.Filterspec{Result: "color"}, "#000", 0.5)
	canvas.FeComposite(svg.Filterspec{In: "color", In2: "offset", Result: "shadow"}, "in", 0, 0, 0, 0)
	canvas.FeMerge([]string{"shadow", "SourceGraphic"})
	canvas.Fend()
	canvas.Filter("grayscale")
	canvas.FeColorMatrixSaturate(svg.Filterspec{}, 0)
	canvas.Fend()
	canvas.DefEnd()

	canvas.Group(`id="map-layer"`, `filter="url(#grayscale)"`, fmt.Sprintf(`opacity="%g"`, mapLayerOpacity))
	for _, t := range tiles {
		if t.Data == nil {
			continue
		}
		canvas.Image(t.X*tileSize, t.Y*tileSize, tileSize, tileSize, dataURI(t.Data))
	}
	canvas.Gend()

	if len(points) > 0 {
		canvas.Path(routePath(points, vp.Zoom),
			fmt.Sprintf(`stroke="%s"`, routeColor),
			fmt.Sprintf(`stroke-width="%.2f"`, routeStrokeWidth*vp.Scale),
			`fill="none"`,
			`stroke-linecap="round"`,
			`stroke-linejoin="round"`,
			`filter="url(#shadow)"`,
		)
	}
	canvas.End()
	return buf.Bytes()
}

// routePath builds path data through the raw positions in global pixels.
func routePath(points []Point, zoom int) string {
	var sb strings.Builder
	for i, p := range points {
		px := project(p, zoom)
		if i == 0 {
			fmt.Fprintf(&sb, "M %.2f %.2f", px.X, px.Y)
			continue
		}
		fmt.Fprintf(&sb, " L %.2f %.2f", px.X, px.Y)
	}
	return sb.String()
}

func dataURI(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
