package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	ambient "github.com/DalexKraus/LibAmbient"
	"github.com/DalexKraus/LibAmbient/hue"
)

const scanTimeout = 5 * time.Second

type state int

const (
	stateScanning state = iota
	stateSelecting
	statePairing
	statePairingWait
	stateFetchingAreas
	stateSelectingArea
	stateStartingSync
	stateSyncing
	stateDone
)

type scanDoneMsg struct {
	bridges []hue.Bridge
	err     error
}

type pairResultMsg struct {
	creds hue.Credentials
	err   error
}

type areasFetchedMsg struct {
	areas []hue.EntertainmentArea
	err   error
}

type syncStartedMsg struct {
	pipeline *ambient.Pipeline
	streamer *hue.Streamer
	err      error
}

type sampleMsg struct {
	hsb    ambient.HSB
	swatch ambient.RGB
	err    error
}

type model struct {
	settings Settings
	preview  bool
	interval time.Duration

	state    state
	spinner  spinner.Model
	bridges  []hue.Bridge
	cursor   int
	selected *hue.Bridge
	err      error

	creds        hue.Credentials
	pairErr      string
	areas        []hue.EntertainmentArea
	areaCursor   int
	selectedArea *hue.EntertainmentArea

	pipeline *ambient.Pipeline
	streamer *hue.Streamer
	hsb      ambient.HSB
	swatch   ambient.RGB
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(0).Foreground(lipgloss.Color("170"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newModel(settings Settings, preview bool) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	interval, _ := settings.ParseInterval() // validated by LoadSettings

	st := stateScanning
	if preview {
		st = stateStartingSync
	}

	return model{
		settings: settings,
		preview:  preview,
		interval: interval,
		state:    st,
		spinner:  s,
	}
}

func (m model) Init() tea.Cmd {
	if m.preview {
		return tea.Batch(m.spinner.Tick, m.startSyncCmd())
	}
	return tea.Batch(m.spinner.Tick, scanCmd())
}

func scanCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
		defer cancel()

		bridgeCh, errCh := hue.Discover(ctx)

		var bridges []hue.Bridge
		for b := range bridgeCh {
			bridges = append(bridges, b)
		}

		if err := <-errCh; err != nil {
			return scanDoneMsg{err: err}
		}

		return scanDoneMsg{bridges: bridges}
	}
}

func pairCmd(ip net.IP) tea.Cmd {
	return func() tea.Msg {
		creds, err := hue.Pair(ip)
		return pairResultMsg{creds: creds, err: err}
	}
}

func fetchAreasCmd(ip net.IP, username string) tea.Cmd {
	return func() tea.Msg {
		areas, err := hue.EntertainmentAreas(ip, username)
		return areasFetchedMsg{areas: areas, err: err}
	}
}

// startSyncCmd initializes the ambient pipeline at the detected screen size
// and, outside preview mode, opens the DTLS stream to the selected area.
func (m model) startSyncCmd() tea.Cmd {
	settings := m.settings
	bridge := m.selected
	creds := m.creds
	area := m.selectedArea

	return func() tea.Msg {
		w, h, err := ambient.ScreenSize()
		if err != nil {
			return syncStartedMsg{err: err}
		}

		p := ambient.NewPipeline()
		err = p.Initialize(ambient.Config{
			ScreenWidth:  w,
			ScreenHeight: h,
			SampleWidth:  settings.SampleWidth,
			SampleHeight: settings.SampleHeight,
		})
		if err != nil {
			return syncStartedMsg{err: err}
		}

		var streamer *hue.Streamer
		if bridge != nil && area != nil {
			if err := hue.Activate(bridge.IP, creds.Username, area.ID); err != nil {
				p.Uninitialize()
				return syncStartedMsg{err: err}
			}
			streamer, err = hue.NewStreamer(bridge.IP, creds.Username, creds.Clientkey, area.ID, area.ChannelIDs)
			if err != nil {
				_ = hue.Deactivate(bridge.IP, creds.Username, area.ID)
				p.Uninitialize()
				return syncStartedMsg{err: err}
			}
		}

		return syncStartedMsg{pipeline: p, streamer: streamer}
	}
}

// sampleCmd waits one interval, samples the screen and streams the hue
// rendered at full saturation and brightness.
func (m model) sampleCmd() tea.Cmd {
	pipeline := m.pipeline
	streamer := m.streamer

	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		hsb, err := pipeline.Sample()
		if err != nil {
			return sampleMsg{err: err}
		}
		swatch := ambient.HSBToRGB(hsb.Hue, 1, 1)
		if streamer != nil {
			if err := streamer.Send(swatch); err != nil {
				return sampleMsg{err: err}
			}
		}
		return sampleMsg{hsb: hsb, swatch: swatch}
	})
}

// stopSync tears down the stream and the pipeline. Safe to call in any state.
func (m *model) stopSync() {
	if m.streamer != nil {
		_ = m.streamer.Close()
		m.streamer = nil
	}
	if m.selected != nil && m.selectedArea != nil {
		_ = hue.Deactivate(m.selected.IP, m.creds.Username, m.selectedArea.ID)
	}
	if m.pipeline != nil {
		m.pipeline.Uninitialize()
		m.pipeline = nil
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.stopSync()
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case scanDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateDone
			return m, tea.Quit
		}

		if len(msg.bridges) == 0 {
			m.err = fmt.Errorf("no Hue bridges found on the network")
			m.state = stateDone
			return m, tea.Quit
		}

		if len(msg.bridges) == 1 {
			m.selected = &msg.bridges[0]
			if creds, found, _ := hue.LoadCredentials(m.selected.ID); found {
				m.creds = creds
				m.state = stateFetchingAreas
				return m, fetchAreasCmd(m.selected.IP, m.creds.Username)
			}
			m.state = statePairing
			return m, nil
		}

		m.bridges = msg.bridges
		m.state = stateSelecting
		return m, nil

	case pairResultMsg:
		if msg.err != nil {
			if errors.Is(msg.err, hue.ErrLinkButtonNotPressed) {
				m.pairErr = "Link button not pressed."
				m.state = statePairing
				return m, nil
			}
			m.err = fmt.Errorf("pairing failed: %w", msg.err)
			m.state = stateDone
			return m, tea.Quit
		}
		m.creds = msg.creds
		m.pairErr = ""
		_ = hue.SaveCredentials(m.selected.ID, msg.creds)
		m.state = stateFetchingAreas
		return m, fetchAreasCmd(m.selected.IP, m.creds.Username)

	case areasFetchedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, hue.ErrUnauthorized) {
				_ = hue.DeleteCredentials(m.selected.ID)
				m.creds = hue.Credentials{}
				m.pairErr = "Stored credentials were rejected by the bridge."
				m.state = statePairing
				return m, nil
			}
			m.err = fmt.Errorf("fetching entertainment areas: %w", msg.err)
			m.state = stateDone
			return m, tea.Quit
		}

		if len(msg.areas) == 0 {
			m.err = fmt.Errorf("no entertainment areas configured on this bridge")
			m.state = stateDone
			return m, tea.Quit
		}

		if len(msg.areas) == 1 {
			m.selectedArea = &msg.areas[0]
			m.state = stateStartingSync
			return m, m.startSyncCmd()
		}

		m.areas = msg.areas
		m.state = stateSelectingArea
		return m, nil

	case syncStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateDone
			return m, tea.Quit
		}
		m.pipeline = msg.pipeline
		m.streamer = msg.streamer
		m.state = stateSyncing
		return m, m.sampleCmd()

	case sampleMsg:
		if msg.err != nil {
			m.stopSync()
			m.err = msg.err
			m.state = stateDone
			return m, tea.Quit
		}
		m.hsb = msg.hsb
		m.swatch = msg.swatch
		return m, m.sampleCmd()
	}

	switch m.state {
	case stateSelecting:
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.bridges)-1 {
					m.cursor++
				}
			case "enter":
				m.selected = &m.bridges[m.cursor]
				if creds, found, _ := hue.LoadCredentials(m.selected.ID); found {
					m.creds = creds
					m.state = stateFetchingAreas
					return m, fetchAreasCmd(m.selected.IP, m.creds.Username)
				}
				m.state = statePairing
			}
		}

	case statePairing:
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "enter":
				m.state = statePairingWait
				return m, pairCmd(m.selected.IP)
			}
		}

	case stateSelectingArea:
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "up", "k":
				if m.areaCursor > 0 {
					m.areaCursor--
				}
			case "down", "j":
				if m.areaCursor < len(m.areas)-1 {
					m.areaCursor++
				}
			case "enter":
				m.selectedArea = &m.areas[m.areaCursor]
				m.state = stateStartingSync
				return m, m.startSyncCmd()
			}
		}
	}

	return m, nil
}

func (m model) View() string {
	switch m.state {
	case stateScanning:
		return fmt.Sprintf("\n %s %s\n\n",
			m.spinner.View(),
			titleStyle.Render("Scanning for Hue bridges..."))

	case stateSelecting:
		s := "\n" + titleStyle.Render("  Select a Hue Bridge:") + "\n\n"
		for i, b := range m.bridges {
			label := fmt.Sprintf("%s (%s) — %s", b.Name, b.ID, b.IP)
			if i == m.cursor {
				s += selectedStyle.Render("▸ "+label) + "\n"
			} else {
				s += itemStyle.Render(label) + "\n"
			}
		}
		s += "\n" + helpStyle.Render("  ↑/k up · ↓/j down · enter select · q quit") + "\n"
		return s

	case statePairing:
		s := "\n"
		if m.pairErr != "" {
			s += errStyle.Render("  "+m.pairErr) + "\n\n"
		}
		s += titleStyle.Render("  Press the link button on your Hue bridge, then press Enter.") + "\n\n"
		s += helpStyle.Render("  enter pair · q quit") + "\n"
		return s

	case statePairingWait:
		return fmt.Sprintf("\n %s %s\n\n",
			m.spinner.View(),
			titleStyle.Render("Pairing with bridge..."))

	case stateFetchingAreas:
		return fmt.Sprintf("\n %s %s\n\n",
			m.spinner.View(),
			titleStyle.Render("Fetching entertainment areas..."))

	case stateSelectingArea:
		s := "\n" + titleStyle.Render("  Select an Entertainment Area:") + "\n\n"
		for i, a := range m.areas {
			label := a.String()
			if i == m.areaCursor {
				s += selectedStyle.Render("▸ "+label) + "\n"
			} else {
				s += itemStyle.Render(label) + "\n"
			}
		}
		s += "\n" + helpStyle.Render("  ↑/k up · ↓/j down · enter select · q quit") + "\n"
		return s

	case stateStartingSync:
		return fmt.Sprintf("\n %s %s\n\n",
			m.spinner.View(),
			titleStyle.Render("Starting screen capture..."))

	case stateSyncing:
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(m.swatch.String()))

		s := "\n" + titleStyle.Render("  Ambient hue") + "\n\n"
		s += fmt.Sprintf("  %s  hue %.4f · sat %.2f · bri %.2f · %s\n",
			swatch.Render("        "),
			m.hsb.Hue, m.hsb.Saturation, m.hsb.Brightness, m.swatch)

		target := "preview only"
		if m.streamer != nil && m.selectedArea != nil {
			target = "streaming to " + m.selectedArea.Name
		}
		var method string
		if m.pipeline != nil {
			method = m.pipeline.Method()
		}
		s += "\n" + helpStyle.Render(fmt.Sprintf("  %s via %s · q quit", target, method)) + "\n"
		return s

	case stateDone:
		if m.err != nil {
			return "\n" + errStyle.Render("  Error: "+m.err.Error()) + "\n\n"
		}
	}

	return ""
}
