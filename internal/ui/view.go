package ui

import (
	"fmt"
	"strings"
)

const (
	traceRows   = 12
	centerLevel = 2048
	minColumns  = 20
)

// View renders the header, trace and status line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("ECG MONITOR"))
	b.WriteString(dimStyle.Render("  " + m.source))
	b.WriteString("\n\n")
	b.WriteString(m.renderTrace())
	b.WriteString("\n\n")

	bpm := "---"
	if m.bpm > 0 {
		bpm = fmt.Sprintf("%3d", m.bpm)
	}
	b.WriteString(bpmStyle.Render("BPM " + bpm))
	b.WriteString("  ")
	status := m.status()
	b.WriteString(statusStyles[status].Render(status))
	if m.paused {
		b.WriteString(dimStyle.Render("  [paused]"))
	}
	b.WriteString("\n")

	if m.ended {
		b.WriteString(errorStyle.Render("stream closed"))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("q quit  p pause  c clear"))
	return frameStyle.Render(b.String())
}

// renderTrace draws the sweep buffer as a dot plot, one column per bucket of
// samples, autoscaled to the visible range. The write cursor is a gap.
func (m Model) renderTrace() string {
	cols := min(SweepLen, max(minColumns, m.width-6))

	lo, hi := centerLevel-1.0, centerLevel+1.0
	for i := 0; i < m.filled; i++ {
		lo = min(lo, m.sweep[i])
		hi = max(hi, m.sweep[i])
	}

	grid := make([][]rune, traceRows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", cols))
	}
	cursorCol := m.cursor * cols / SweepLen

	for c := 0; c < cols; c++ {
		if c == cursorCol {
			continue
		}
		start := c * SweepLen / cols
		end := max(start+1, (c+1)*SweepLen/cols)
		if start >= m.filled {
			continue
		}
		// draw the bucket as a vertical span so sharp R waves stay visible
		top, bottom := traceRows, -1
		for i := start; i < end && i < m.filled; i++ {
			row := rowFor(m.sweep[i], lo, hi)
			top = min(top, row)
			bottom = max(bottom, row)
		}
		for r := top; r <= bottom; r++ {
			grid[r][c] = '•'
		}
	}

	lines := make([]string, traceRows)
	for r, row := range grid {
		line := string(row)
		if cursorCol < cols {
			left, right := string(row[:cursorCol]), string(row[cursorCol+1:])
			line = traceStyle.Render(left) + cursorStyle.Render("│") + traceStyle.Render(right)
		}
		lines[r] = line
	}
	return strings.Join(lines, "\n")
}

// rowFor maps a sample to a grid row, top row for the highest value.
func rowFor(v, lo, hi float64) int {
	frac := (v - lo) / (hi - lo)
	row := traceRows - 1 - int(frac*float64(traceRows-1)+0.5)
	return min(traceRows-1, max(0, row))
}
