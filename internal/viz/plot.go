// Package viz renders tracking runs in the terminal.
package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"mpctrack/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(18)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

// Plot renders one series as an ASCII graph with a caption.
func Plot(series []float64, caption string, height int) string {
	if len(series) == 0 {
		return ""
	}
	g := asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Width(72),
		asciigraph.Caption(caption),
	)
	return graphStyle.Render(g)
}

// Summary renders the run metadata and metrics as a labelled block.
func Summary(meta store.RunMetadata) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("run %s", meta.ID)))
	b.WriteByte('\n')

	line := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteByte('\n')
	}
	line("path", meta.Path)
	line("cycles", fmt.Sprintf("%d", meta.Cycles))
	line("time step", fmt.Sprintf("%.3f s", meta.TimeStep))
	line("horizon", fmt.Sprintf("%d", meta.Horizon))
	for k, v := range meta.Metrics {
		line(k, fmt.Sprintf("%.4f", v))
	}
	return b.String()
}

// CrossTrackSeries extracts the cross-track error series from run samples.
func CrossTrackSeries(samples []store.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.CrossTrack
	}
	return out
}

// VelocitySeries extracts measured velocity from run samples.
func VelocitySeries(samples []store.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Velocity
	}
	return out
}
