package sim

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"packetops-sim/internal/telemetry"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// recordMsg carries one flow record into the TUI model.
type recordMsg struct{ telemetry.FlowRecord }

const maxLogLines = 500

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	traceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

// TUIWriter renders flow records in a live bubbletea dashboard: a counter
// table per entity pair and a scrolling record log.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(hostname string) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(hostname), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// Write implements RecordWriter.
func (w *TUIWriter) Write(rec telemetry.FlowRecord) error {
	w.program.Send(recordMsg{rec})
	return nil
}

// WriteBatch sends multiple records to the dashboard.
func (w *TUIWriter) WriteBatch(recs []telemetry.FlowRecord) error {
	for _, r := range recs {
		_ = w.Write(r)
	}
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

// pairKey identifies one src/dst flow in the counter table.
type pairKey struct{ src, dst string }

type pairCounters struct {
	records int
	bytes   int
	errors  int
}

type tuiModel struct {
	hostname   string
	table      table.Model
	vp         viewport.Model
	logs       []string
	pairs      map[pairKey]*pairCounters
	order      []pairKey
	total      int
	errors     int
	wrap       bool
	autoscroll bool
	width      int
	height     int
}

func newTUIModel(hostname string) tuiModel {
	cols := []table.Column{
		{Title: "Src", Width: 12},
		{Title: "Dst", Width: 12},
		{Title: "Records", Width: 9},
		{Title: "Bytes", Width: 12},
		{Title: "Errors", Width: 8},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(8))
	return tuiModel{
		hostname:   hostname,
		table:      t,
		vp:         viewport.New(0, 0),
		pairs:      make(map[pairKey]*pairCounters),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		vpHeight := msg.Height - m.table.Height() - 4
		if vpHeight < 3 {
			vpHeight = 3
		}
		m.vp.Height = vpHeight
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "a":
			m.autoscroll = !m.autoscroll
		case "up", "k":
			m.vp.LineUp(1)
		case "down", "j":
			m.vp.LineDown(1)
		}
	case recordMsg:
		m.applyRecord(msg.FlowRecord)
	}
	return m, nil
}

func (m *tuiModel) applyRecord(rec telemetry.FlowRecord) {
	key := pairKey{src: rec.Src, dst: rec.Dst}
	pc, ok := m.pairs[key]
	if !ok {
		pc = &pairCounters{}
		m.pairs[key] = pc
		m.order = append(m.order, key)
	}
	pc.records++
	pc.bytes += rec.Bytes
	m.total++
	if rec.Status != telemetry.StatusOK {
		pc.errors++
		m.errors++
	}

	m.logs = append(m.logs, renderRecordLine(rec))
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}

	rows := make([]table.Row, 0, len(m.order))
	for _, k := range m.order {
		c := m.pairs[k]
		rows = append(rows, table.Row{
			k.src, k.dst,
			fmt.Sprintf("%d", c.records),
			fmt.Sprintf("%d", c.bytes),
			fmt.Sprintf("%d", c.errors),
		})
	}
	m.table.SetRows(rows)
	m.refreshViewport()
}

func (m *tuiModel) refreshViewport() {
	content := ""
	for i, line := range m.logs {
		if i > 0 {
			content += "\n"
		}
		if m.wrap && m.vp.Width > 0 {
			line = wordwrap.String(line, m.vp.Width)
		}
		content += line
	}
	m.vp.SetContent(content)
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	header := headerStyle.Render(fmt.Sprintf("packetops-sim  host=%s  records=%d  errors=%d",
		m.hostname, m.total, m.errors))
	help := dimStyle.Render("q quit | w wrap | a autoscroll | ↑/↓ scroll")
	return lipgloss.JoinVertical(lipgloss.Left, header, m.table.View(), m.vp.View(), help)
}

func renderRecordLine(rec telemetry.FlowRecord) string {
	statusStyle := okStyle
	if rec.Status != telemetry.StatusOK {
		statusStyle = errStyle
	}
	traceID := "-"
	if rec.TraceID != nil {
		traceID = *rec.TraceID
	}
	return fmt.Sprintf("%s %s %s %s %s",
		dimStyle.Render("["+rec.Timestamp.Format(time.RFC3339)+"]"),
		statusStyle.Render(rec.Status),
		fmt.Sprintf("src=%s dst=%s bytes=%d latency_ms=%d", rec.Src, rec.Dst, rec.Bytes, rec.LatencyMS),
		traceStyle.Render("trace="+traceID),
		rec.Msg,
	)
}
