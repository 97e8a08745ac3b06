// Package wizard implements the interactive first-run configuration flow
// invoked by `pingwardend --init` (spec.md §6, SPEC_FULL.md §4.14),
// grounded on the teacher's pkg/cli bubbletea TUI: a single textinput
// stepping through a fixed sequence of prompts, styled with the same
// lipgloss idiom, ending in a written config.toml.
package wizard

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml"

	"github.com/pingwarden/pingwarden/internal/models"
)

const (
	colorCyan   = "#8BE9FD"
	colorGreen  = "#50FA7B"
	colorOrange = "#FFB86C"
	colorPink   = "#FF79C6"
	colorPurple = "#BD93F9"
	colorRed    = "#FF5555"
	colorGray   = "#6272A4"
)

type styles struct {
	title, prompt, hint, success, errorText, box lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorPink)).Bold(true),
		prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorCyan)),
		hint:      lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		success:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)),
		errorText: lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)).Bold(true),
		box: lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorPurple)),
	}
}

// step identifies which prompt is currently focused.
type step int

const (
	stepHost step = iota
	stepPort
	stepIngressOnly
	stepLogLevel
	stepLogFile
	stepDBPath
	stepSocketTest
	stepSocketType
	stepTargetAddress
	stepTargetName
	stepTargetCount
	stepTargetInterval
	stepDone
)

type model struct {
	styles styles
	input  textinput.Model
	step   step
	err    error

	cfg       models.AppConfig
	capability socketCapability

	pendingTarget models.Target

	path string
	quit bool
}

// Run launches the wizard against path and blocks until the operator
// finishes or cancels. On success it writes a fresh config.toml; an
// operator-cancelled wizard (Ctrl-C/Esc) returns nil without writing.
func Run(path string) error {
	m := newModel(path)

	program := tea.NewProgram(m)

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("run config wizard: %w", err)
	}

	fm, ok := final.(*model)
	if !ok || fm.quit || fm.step != stepDone {
		return nil
	}

	return writeInitialConfig(fm.path, &fm.cfg)
}

func newModel(path string) *model {
	ti := textinput.New()
	ti.Placeholder = "127.0.0.1"
	ti.Focus()
	ti.CharLimit = 128
	ti.Width = 40
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorCyan))

	return &model{
		styles: newStyles(),
		input:  ti,
		step:   stepHost,
		path:   path,
		cfg: models.AppConfig{
			Server:   models.ServerConfig{Host: "127.0.0.1", Port: 8080},
			Logging:  models.LoggingConfig{Level: "info"},
			Database: models.DatabaseConfig{Path: "./data"},
			Ping:     models.PingConfig{SocketType: models.SocketDgram},
		},
	}
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.step != stepSocketTest {
		m.input, cmd = m.input.Update(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, cmd
	}

	switch keyMsg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quit = true
		return m, tea.Quit
	case tea.KeyEnter:
		return m.advance()
	default:
		return m, cmd
	}
}

// advance commits the current step's input and moves to the next prompt.
// Most steps accept a blank value as "keep the default already in m.cfg".
func (m *model) advance() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	m.err = nil

	switch m.step {
	case stepHost:
		if value != "" {
			m.cfg.Server.Host = value
		}

		m.step = stepPort

	case stepPort:
		if value != "" {
			port, err := strconv.Atoi(value)
			if err != nil {
				m.err = fmt.Errorf("port must be a number: %w", err)
				return m, nil
			}

			m.cfg.Server.Port = port
		}

		m.step = stepIngressOnly

	case stepIngressOnly:
		m.cfg.Server.IngressOnly = value == "y" || value == "yes"
		m.step = stepLogLevel

	case stepLogLevel:
		if value != "" {
			m.cfg.Logging.Level = value
		}

		m.step = stepLogFile

	case stepLogFile:
		m.cfg.Logging.File = value
		m.step = stepDBPath

	case stepDBPath:
		if value != "" {
			m.cfg.Database.Path = value
		}

		m.capability = testSocketCapability()
		m.step = stepSocketTest

	case stepSocketTest:
		m.step = stepSocketType

	case stepSocketType:
		switch value {
		case "", "dgram":
			m.cfg.Ping.SocketType = models.SocketDgram
		case "raw":
			m.cfg.Ping.SocketType = models.SocketRaw
		default:
			m.err = errInvalidSocketType
			return m, nil
		}

		m.step = stepTargetAddress

	case stepTargetAddress:
		if value == "" {
			m.step = stepDone
			return m, tea.Quit
		}

		m.pendingTarget = models.Target{Address: value}
		m.step = stepTargetName

	case stepTargetName:
		m.pendingTarget.Name = value
		m.step = stepTargetCount

	case stepTargetCount:
		if value != "" {
			n, err := strconv.Atoi(value)
			if err != nil {
				m.err = fmt.Errorf("ping_count must be a number: %w", err)
				return m, nil
			}

			m.pendingTarget.PingCount = uint16(n)
		}

		m.step = stepTargetInterval

	case stepTargetInterval:
		if value != "" {
			n, err := strconv.Atoi(value)
			if err != nil {
				m.err = fmt.Errorf("ping_interval must be a number: %w", err)
				return m, nil
			}

			m.pendingTarget.PingInterval = uint64(n)
		}

		m.cfg.Targets = append(m.cfg.Targets, m.pendingTarget.WithDefaults())
		m.pendingTarget = models.Target{}
		m.step = stepTargetAddress

	case stepDone:
		return m, tea.Quit
	}

	m.input.Reset()
	m.input.Placeholder = placeholderFor(m.step, m.cfg)

	return m, textinput.Blink
}

var errInvalidSocketType = fmt.Errorf("socket type must be %q or %q", models.SocketDgram, models.SocketRaw)

func placeholderFor(s step, cfg models.AppConfig) string {
	switch s {
	case stepHost:
		return cfg.Server.Host
	case stepPort:
		return strconv.Itoa(cfg.Server.Port)
	case stepIngressOnly:
		return "n"
	case stepLogLevel:
		return cfg.Logging.Level
	case stepLogFile:
		return "(console)"
	case stepDBPath:
		return cfg.Database.Path
	case stepSocketType:
		return string(cfg.Ping.SocketType)
	case stepTargetAddress:
		return "(leave blank to finish)"
	case stepTargetName:
		return "(optional)"
	case stepTargetCount:
		return strconv.Itoa(int(models.DefaultPingCount))
	case stepTargetInterval:
		return strconv.Itoa(int(models.DefaultPingInterval))
	default:
		return ""
	}
}

func (m *model) View() string {
	if m.quit {
		return ""
	}

	s := m.styles

	title := s.title.Render("pingwarden configuration wizard")

	var body string

	switch m.step {
	case stepHost:
		body = s.prompt.Render("Server host:") + "\n" + m.input.View()
	case stepPort:
		body = s.prompt.Render("Server port:") + "\n" + m.input.View()
	case stepIngressOnly:
		body = s.prompt.Render("Restrict to Home Assistant ingress proxies? (y/N)") + "\n" + m.input.View()
	case stepLogLevel:
		body = s.prompt.Render("Log level (trace/debug/info/warn/error):") + "\n" + m.input.View()
	case stepLogFile:
		body = s.prompt.Render("Log file (blank for console):") + "\n" + m.input.View()
	case stepDBPath:
		body = s.prompt.Render("Storage directory:") + "\n" + m.input.View()
	case stepSocketTest:
		body = s.prompt.Render("Socket capability test:") + "\n" +
			capabilityLine(s, "datagram (unprivileged)", m.capability.Dgram) + "\n" +
			capabilityLine(s, "raw", m.capability.Raw) + "\n\n" +
			s.hint.Render("press enter to continue")
	case stepSocketType:
		body = s.prompt.Render("Ping socket type (dgram/raw):") + "\n" + m.input.View()
	case stepTargetAddress:
		body = s.prompt.Render(fmt.Sprintf("Target #%d address:", len(m.cfg.Targets)+1)) + "\n" + m.input.View()
	case stepTargetName:
		body = s.prompt.Render("Target name:") + "\n" + m.input.View()
	case stepTargetCount:
		body = s.prompt.Render("ping_count:") + "\n" + m.input.View()
	case stepTargetInterval:
		body = s.prompt.Render("ping_interval (seconds):") + "\n" + m.input.View()
	case stepDone:
		body = s.success.Render(fmt.Sprintf("Writing %s ...", m.path))
	}

	if m.err != nil {
		body += "\n\n" + s.errorText.Render(m.err.Error())
	}

	return s.box.Render(title+"\n\n"+body) + "\n" + s.hint.Render("ctrl+c/esc to cancel") + "\n"
}

func capabilityLine(s styles, label string, ok bool) string {
	if ok {
		return s.success.Render("  [ok] " + label)
	}

	return s.errorText.Render("  [fail] " + label)
}

// writeInitialConfig serializes cfg as a fresh TOML document and writes it
// to path, overwriting any existing file, per the wizard's role as a
// first-run flow (spec.md §6, SPEC_FULL.md §4.14). It marshals the typed
// AppConfig directly rather than going through the format-preserving
// Document model, since there is no existing file whose comments or
// layout need preserving on a first run.
func writeInitialConfig(path string, cfg *models.AppConfig) error {
	data, err := toml.Marshal(*cfg)
	if err != nil {
		return fmt.Errorf("serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
