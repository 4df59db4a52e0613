package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/gamehost/audio"
	"github.com/wippyai/gamehost/bootstrap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	clipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Play   key.Binding
	Louder key.Binding
	Softer key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Play, k.Louder, k.Softer, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Play:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "play")),
	Louder: key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "louder")),
	Softer: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "softer")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

const volumeStep = 0.1

type interactiveModel struct {
	ctx      context.Context
	err      error
	sess     *session
	boot     *bootstrap.Bootstrap
	help     help.Model
	wasm     string
	sounds   []*audio.Sound
	volume   float64
	selected int
	plays    int
	state    bootstrap.State
}

type tickMsg time.Time

type runDoneMsg struct {
	err error
}

func newInteractiveModel(ctx context.Context, sess *session, s settings) *interactiveModel {
	return &interactiveModel{
		ctx:    ctx,
		sess:   sess,
		boot:   sess.boot,
		help:   help.New(),
		wasm:   s.Wasm,
		sounds: sess.sounds,
		volume: s.Volume,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.run, tick())
}

func (m *interactiveModel) run() tea.Msg {
	return runDoneMsg{err: m.sess.run(m.ctx)}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, keys.Down):
			if m.selected < len(m.sounds)-1 {
				m.selected++
			}
		case key.Matches(msg, keys.Play):
			if len(m.sounds) > 0 {
				m.sounds[m.selected].Play(m.volume)
				m.plays++
			}
		case key.Matches(msg, keys.Louder):
			m.volume += volumeStep
		case key.Matches(msg, keys.Softer):
			m.volume -= volumeStep
			if m.volume < 0 {
				m.volume = 0
			}
		}

	case tickMsg:
		m.state = m.boot.State()
		return m, tick()

	case runDoneMsg:
		m.state = m.boot.State()
		m.err = msg.err
	}

	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Game Host"))
	b.WriteString(" ")
	b.WriteString(m.wasm)
	b.WriteString("\n\n")

	b.WriteString("Bootstrap: ")
	switch m.state {
	case bootstrap.StateStarted:
		b.WriteString(okStyle.Render(m.state.String()))
	case bootstrap.StateFailed:
		b.WriteString(errorStyle.Render(m.state.String()))
	default:
		b.WriteString(metaStyle.Render(m.state.String()))
	}
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.sounds) == 0 {
		b.WriteString("No clips loaded (use --sound).\n")
	}
	for i, snd := range m.sounds {
		line := fmt.Sprintf("%s %s", clipStyle.Render(snd.Path()),
			metaStyle.Render(snd.Duration().Round(time.Millisecond).String()))
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\nVolume %.1f  Plays %d\n\n", m.volume, m.plays))
	b.WriteString(m.help.View(keys))
	return b.String()
}

func runInteractive(ctx context.Context, sess *session, s settings) error {
	p := tea.NewProgram(newInteractiveModel(ctx, sess, s), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
