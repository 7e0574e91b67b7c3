package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// CheckState is the progress of one network check.
type CheckState int

const (
	CheckPending CheckState = iota
	CheckPassed
	CheckFailed
)

// CheckRow is one network line of the live check view.
type CheckRow struct {
	Network  string
	Endpoint string
	State    CheckState
	Detail   string
	Latency  time.Duration
}

// CheckResultMsg is sent by each check goroutine when it finishes.
type CheckResultMsg struct {
	Network string
	Passed  bool
	Detail  string
	Latency time.Duration
}

type checkTickMsg struct{}

var checkSpinFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// CheckModel is the Bubble Tea model for `network check`. It quits on its
// own once every row has a result.
type CheckModel struct {
	Rows     []CheckRow
	RowIndex map[string]int
	Done     int
	Frame    int
	Quitting bool
}

// NewCheckModel returns a model with one pending row per network.
func NewCheckModel(rows []CheckRow) CheckModel {
	index := make(map[string]int, len(rows))
	for i, r := range rows {
		index[r.Network] = i
	}
	return CheckModel{Rows: rows, RowIndex: index}
}

func (m CheckModel) Init() tea.Cmd {
	return checkTick()
}

func checkTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return checkTickMsg{}
	})
}

// Finished reports whether every network has responded.
func (m CheckModel) Finished() bool {
	return m.Done >= len(m.Rows)
}

func (m CheckModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		}

	case checkTickMsg:
		if m.Finished() {
			return m, nil
		}
		m.Frame = (m.Frame + 1) % len(checkSpinFrames)
		return m, checkTick()

	case CheckResultMsg:
		idx, ok := m.RowIndex[msg.Network]
		if !ok || m.Rows[idx].State != CheckPending {
			return m, nil
		}
		m.Rows[idx].State = CheckFailed
		if msg.Passed {
			m.Rows[idx].State = CheckPassed
		}
		m.Rows[idx].Detail = msg.Detail
		m.Rows[idx].Latency = msg.Latency
		m.Done++
		if m.Finished() {
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m CheckModel) View() string {
	var sb strings.Builder
	spin := checkSpinFrames[m.Frame]

	sb.WriteString(StyleTitle.Render(fmt.Sprintf("Network check  ·  %d networks", len(m.Rows))) + "\n")

	if m.Finished() {
		sb.WriteString(StyleSuccess.Render(fmt.Sprintf("✓ %d/%d networks done", m.Done, len(m.Rows))))
	} else {
		sb.WriteString(StyleValue.Render(fmt.Sprintf("%s %d/%d checking…", spin, m.Done, len(m.Rows))))
		sb.WriteString(StyleMeta.Render("   press q to quit"))
	}
	sb.WriteString("\n\n")

	const (
		wNet      = 10
		wEndpoint = 40
		wLat      = 10
	)
	for _, r := range m.Rows {
		var icon, detail string
		switch r.State {
		case CheckPending:
			icon = StyleMeta.Render(spin)
			detail = StyleMeta.Render("waiting…")
		case CheckPassed:
			icon = StyleSuccess.Render("✓")
			detail = StyleValue.Render(r.Detail)
		case CheckFailed:
			icon = StyleError.Render("✗")
			detail = StyleError.Render(r.Detail)
		}
		latency := ""
		if r.State != CheckPending {
			latency = r.Latency.Round(time.Millisecond).String()
		}
		sb.WriteString(fmt.Sprintf("%s %s %s %s %s\n",
			icon,
			NetworkName(pad(r.Network, wNet)),
			StyleMeta.Render(pad(r.Endpoint, wEndpoint)),
			StyleMeta.Render(pad(latency, wLat)),
			detail,
		))
	}
	return sb.String()
}
