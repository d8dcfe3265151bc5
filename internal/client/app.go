package client

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fenggwsx/StudyShelf/internal/config"
	"github.com/fenggwsx/StudyShelf/internal/portal"
	"github.com/fenggwsx/StudyShelf/internal/protocol"
)

type primaryView int

const (
	viewHome primaryView = iota
	viewMaterials
	viewUsers
	viewStats
	viewPipe
	viewHelp
)

func (v primaryView) String() string {
	switch v {
	case viewHome:
		return "home"
	case viewMaterials:
		return "materials"
	case viewUsers:
		return "users"
	case viewStats:
		return "stats"
	case viewPipe:
		return "pipe"
	case viewHelp:
		return "help"
	default:
		return "unknown"
	}
}

type logLevel int

const (
	logLevelInfo logLevel = iota
	logLevelError
)

type logEntry struct {
	level logLevel
	label string
	body  string
}

type pipeDirection string

const (
	pipeDirectionIn  pipeDirection = "IN"
	pipeDirectionOut pipeDirection = "OUT"
)

type pipeEntry struct {
	direction   pipeDirection
	messageType string
	timestamp   time.Time
	body        string
}

const pipeHistoryLimit = 50

// pendingRequest remembers what an outbound envelope asked for so the ack can
// be reported in context.
type pendingRequest struct {
	action string
	label  string
	email  string
}

type commandSpec struct {
	trigger     string
	usage       string
	description string
	options     []string
}

type styleSet struct {
	title         lipgloss.Style
	view          lipgloss.Style
	statusOnline  lipgloss.Style
	statusOffline lipgloss.Style
	label         lipgloss.Style
	value         lipgloss.Style
	logLabel      lipgloss.Style
	logBody       lipgloss.Style
	logLabelError lipgloss.Style
	logBodyError  lipgloss.Style
	help          lipgloss.Style
	pending       lipgloss.Style
	liked         lipgloss.Style
	header        lipgloss.Style
}

// listRequest is the last listing command, replayed when the catalog changes.
type listRequest struct {
	action  string
	payload interface{}
}

// App implements the bubbletea tea.Model interface for the terminal client.
type App struct {
	cfg        config.ClientConfig
	commands   []commandSpec
	styles     styleSet
	input      textinput.Model
	viewport   viewport.Model
	helper     help.Model
	helpView   string
	helpHeight int
	showHelp   bool
	width      int
	height     int

	view         primaryView
	logLine      logEntry
	session      *Session
	serverAddr   string
	statusOnline bool

	authToken       string
	account         *portal.Account
	pendingRequests map[string]pendingRequest

	vocabulary *protocol.Vocabulary
	listTitle  string
	lastList   *listRequest
	materials  []protocol.MaterialSummary
	users      []portal.Account
	stats      *portal.Stats

	pipeHistory []pipeEntry
}

// NewApp returns a Bubble Tea model pre-populated with defaults.
func NewApp(cfg config.ClientConfig) *App {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Type / for commands"
	input.Focus()

	a := &App{
		cfg:             cfg,
		commands:        defaultCommands(),
		styles:          buildStyles(),
		input:           input,
		viewport:        viewport.New(0, 0),
		helper:          help.New(),
		view:            viewHome,
		serverAddr:      cfg.ServerAddr,
		pendingRequests: make(map[string]pendingRequest),
		pipeHistory:     make([]pipeEntry, 0, pipeHistoryLimit),
	}
	a.logf("Welcome. Use /connect to reach %s", cfg.ServerAddr)
	a.updateViewportContent()
	return a
}

type connectResultMsg struct {
	session *Session
	address string
	err     error
}

type sessionEnvelopeMsg struct {
	session  *Session
	envelope protocol.Envelope
}

type sessionClosedMsg struct {
	session *Session
}

type sendResultMsg struct {
	session     *Session
	id          string
	description string
	err         error
}

// Init is part of the tea.Model interface.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles user input and internal events.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.height = m.Height
		a.updateInputWidth()
		a.updateHelp()
		a.updateViewportSize()
		a.updateViewportContent()
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	case connectResultMsg:
		return a, a.handleConnectResult(m)
	case sessionEnvelopeMsg:
		if m.session != a.session {
			return a, nil
		}
		cmd := a.handleSessionEnvelope(m.envelope)
		a.updateViewportContent()
		return a, tea.Batch(cmd, a.listenForSession())
	case sessionClosedMsg:
		if m.session != a.session {
			return a, nil
		}
		a.resetConnection()
		a.logErrorf("Connection closed")
		return a, nil
	case sendResultMsg:
		if m.err != nil && m.session == a.session {
			delete(a.pendingRequests, m.id)
			a.logErrorf("Failed to send %s: %v", m.description, m.err)
		}
		return a, nil
	}

	var inputCmd, viewportCmd tea.Cmd
	a.input, inputCmd = a.input.Update(msg)
	a.viewport, viewportCmd = a.viewport.Update(msg)
	return a, tea.Batch(inputCmd, viewportCmd)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if a.session != nil {
			_ = a.session.Close()
		}
		return a, tea.Quit
	case tea.KeyEnter:
		value := a.input.Value()
		a.input.Reset()
		a.updateHelp()
		a.updateViewportSize()
		if value == "" {
			return a, nil
		}
		return a, a.handleSubmit(value)
	case tea.KeyTab:
		a.handleTabCompletion()
		a.updateHelp()
		a.updateViewportSize()
		return a, nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.updateHelp()
	a.updateViewportSize()
	return a, cmd
}

func (a *App) handleConnectResult(msg connectResultMsg) tea.Cmd {
	if msg.session != a.session {
		_ = msg.session.Close()
		return nil
	}
	if msg.err != nil {
		a.session = nil
		a.statusOnline = false
		a.logErrorf("Connect to %s failed: %v", msg.address, msg.err)
		return nil
	}
	a.statusOnline = true
	a.logf("Connected to %s. Use /login or /signup.", msg.address)
	return tea.Batch(a.listenForSession(), a.sendCommand(protocol.ActionVocabulary, nil, "vocabulary", false))
}

func (a *App) resetConnection() {
	a.session = nil
	a.statusOnline = false
	a.clearAuth()
	a.pendingRequests = make(map[string]pendingRequest)
}

func (a *App) clearAuth() {
	a.authToken = ""
	a.account = nil
	a.lastList = nil
	a.materials = nil
	a.users = nil
	a.stats = nil
}

func (a *App) logf(format string, args ...interface{}) {
	a.logLine = logEntry{level: logLevelInfo, label: "INFO", body: fmt.Sprintf(format, args...)}
}

func (a *App) logErrorf(format string, args ...interface{}) {
	a.logLine = logEntry{level: logLevelError, label: "ERROR", body: fmt.Sprintf(format, args...)}
}

func (a *App) isConnected() bool {
	return a.session != nil && a.statusOnline
}

func (a *App) isAuthenticated() bool {
	return a.authToken != "" && a.account != nil
}

func (a *App) isAdmin() bool {
	return a.account != nil && a.account.IsAdmin()
}

func (a *App) listenForSession() tea.Cmd {
	session := a.session
	if session == nil {
		return nil
	}
	return func() tea.Msg {
		env, ok := <-session.Messages()
		if !ok {
			return sessionClosedMsg{session: session}
		}
		return sessionEnvelopeMsg{session: session, envelope: env}
	}
}

func (a *App) connectToServer(target string) tea.Cmd {
	if a.session != nil {
		_ = a.session.Close()
	}

	cfg := a.cfg
	cfg.ServerAddr = target
	session := NewSession(cfg)
	a.session = session
	a.serverAddr = target
	a.statusOnline = false
	a.clearAuth()
	a.pendingRequests = make(map[string]pendingRequest)
	a.logf("Connecting to %s ...", target)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := session.Connect(ctx)
		return connectResultMsg{session: session, address: target, err: err}
	}
}
