// Package export renders stored runs to standalone files.
package export

import (
	"fmt"
	"os"
	"strings"
)

// Point is an XY sample in world coordinates.
type Point struct {
	X, Y float64
}

// PathSVG draws the reference path and the driven path in one SVG, reference
// in grey underneath, vehicle in green on top. Y grows upward as on a map.
func PathSVG(driven, reference []Point, width, height int) string {
	all := make([]Point, 0, len(driven)+len(reference))
	all = append(all, driven...)
	all = append(all, reference...)
	if len(all) < 2 {
		return ""
	}

	minX, maxX := all[0].X, all[0].X
	minY, maxY := all[0].Y, all[0].Y
	for _, p := range all {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	project := func(p Point) (float64, float64) {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		return x, y
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	writePath := func(pts []Point, stroke string, strokeWidth float64) {
		if len(pts) < 2 {
			return
		}
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="%.1f" d="M`, stroke, strokeWidth))
		for i, p := range pts {
			x, y := project(p)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString("\"/>\n")
	}

	writePath(reference, "#555555", 1.0)
	writePath(driven, "#00ff00", 1.5)

	sb.WriteString("</svg>")
	return sb.String()
}

// WritePathSVG renders PathSVG to a file.
func WritePathSVG(path string, driven, reference []Point, width, height int) error {
	svg := PathSVG(driven, reference, width, height)
	if svg == "" {
		return fmt.Errorf("not enough points to render %s", path)
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
