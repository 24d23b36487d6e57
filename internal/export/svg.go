package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/pairsim/internal/compute"
)

const (
	EnergyColor = "#00ff00"
	ForceColor  = "#ff8800"
)

// CurveOptions controls CurveToSVG. YLimit clips both curves to
// [-YLimit, YLimit] since most families diverge at small r; zero means
// no clipping.
type CurveOptions struct {
	Width, Height int
	YLimit        float64
	Force         bool
}

// CurveToSVG renders the energy (and optionally force) of samples as SVG
// paths on a dark background with a zero line. Samples outside the cutoff
// are skipped. It returns "" when fewer than two samples are usable.
func CurveToSVG(samples []compute.Sample, opts CurveOptions) string {
	if opts.Width <= 0 {
		opts.Width = 640
	}
	if opts.Height <= 0 {
		opts.Height = 400
	}

	clip := func(v float64) float64 {
		if opts.YLimit > 0 {
			return math.Max(-opts.YLimit, math.Min(opts.YLimit, v))
		}
		return v
	}

	usable := 0
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := 0.0, 0.0
	for _, s := range samples {
		if !s.OK {
			continue
		}
		usable++
		minX = math.Min(minX, s.R)
		maxX = math.Max(maxX, s.R)
		minY = math.Min(minY, clip(s.Energy))
		maxY = math.Max(maxY, clip(s.Energy))
		if opts.Force {
			minY = math.Min(minY, clip(s.Force))
			maxY = math.Max(maxY, clip(s.Force))
		}
	}
	if usable < 2 {
		return ""
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.05
	maxY += rangeY * 0.05
	rangeY = maxY - minY

	w, h := float64(opts.Width), float64(opts.Height)
	px := func(r float64) float64 { return (r - minX) / rangeX * w }
	py := func(v float64) float64 { return h - (clip(v)-minY)/rangeY*h }

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444444" stroke-width="1"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, py(0), opts.Width, py(0)))

	writePath(&sb, samples, EnergyColor, px, func(s compute.Sample) float64 { return py(s.Energy) })
	if opts.Force {
		writePath(&sb, samples, ForceColor, px, func(s compute.Sample) float64 { return py(s.Force) })
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writePath(sb *strings.Builder, samples []compute.Sample, color string, px func(float64) float64, py func(compute.Sample) float64) {
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, color))
	first := true
	for _, s := range samples {
		if !s.OK {
			continue
		}
		cmd := " L"
		if first {
			cmd = "M"
			first = false
		}
		sb.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, px(s.R), py(s)))
	}
	sb.WriteString("\"/>\n")
}
