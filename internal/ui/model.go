// Package ui implements the terminal heart monitor that renders a live
// telemetry stream as a sweeping trace with the heart rate and rhythm status.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ColonelBlimp/qrsdetect/internal/telemetry"
)

// SweepLen is the number of samples visible on the trace.
const SweepLen = 250

// maxBatch caps how many queued readings one update consumes.
const maxBatch = 64

type tickMsg time.Time

type readingsMsg []telemetry.Reading

type streamEndMsg struct{}

// Model is the Bubbletea model for the monitor.
type Model struct {
	source   string
	readings <-chan telemetry.Reading

	sweep    [SweepLen]float64
	cursor   int
	filled   int
	bpm      int
	leadsOff bool
	received uint64
	paused   bool
	ended    bool

	width    int
	height   int
	quitting bool
}

// NewModel creates a monitor reading from readings; source labels the header.
// The model stops updating the trace when the channel is closed.
func NewModel(source string, readings <-chan telemetry.Reading) Model {
	return Model{source: source, readings: readings, width: 80}
}

// Init starts reading and the redraw timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForReadings(m.readings), tickCmd(), tea.WindowSize())
}

func tickCmd() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForReadings blocks for one reading, then drains whatever else is queued.
func waitForReadings(ch <-chan telemetry.Reading) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return streamEndMsg{}
		}
		batch := []telemetry.Reading{r}
		for len(batch) < maxBatch {
			select {
			case r, ok := <-ch:
				if !ok {
					return readingsMsg(batch)
				}
				batch = append(batch, r)
			default:
				return readingsMsg(batch)
			}
		}
		return readingsMsg(batch)
	}
}

// Update handles key presses, readings, ticks and resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "c":
			m.clear()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case readingsMsg:
		for _, r := range msg {
			m.push(r)
		}
		return m, waitForReadings(m.readings)

	case streamEndMsg:
		m.ended = true

	case tickMsg:
		return m, tickCmd()
	}
	return m, nil
}

func (m *Model) push(r telemetry.Reading) {
	m.received++
	m.leadsOff = r.Raw == 0 && r.BPM == 0
	m.bpm = r.BPM
	if m.paused {
		return
	}
	if m.leadsOff {
		r.Raw = centerLevel
	}
	m.sweep[m.cursor] = r.Raw
	m.cursor = (m.cursor + 1) % SweepLen
	if m.filled < SweepLen {
		m.filled++
	}
}

func (m *Model) clear() {
	m.sweep = [SweepLen]float64{}
	m.cursor = 0
	m.filled = 0
}

// BPM returns the latest reported heart rate.
func (m Model) BPM() int {
	return m.bpm
}

// Received returns how many readings the model has consumed.
func (m Model) Received() uint64 {
	return m.received
}

// status returns the label shown next to the heart rate.
func (m Model) status() string {
	if m.leadsOff {
		return "Leads off"
	}
	return telemetry.Classify(m.bpm).String()
}
