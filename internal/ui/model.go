// Package ui is the terminal front end of the tracker: a live timer with a
// goal countdown and an analytics view over the local store.
package ui

import (
	"context"
	"time"

	"time-ledger/internal/store"
	"time-ledger/internal/tracker"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Model is the root bubbletea model.
type Model struct {
	store *store.Store
	ctx   context.Context
	keys  KeyMap
	help  help.Model

	view   View
	width  int
	height int

	// timer view
	task         textinput.Model
	clients      []tracker.Client
	clientCursor int
	target       *int64

	// analytics view
	filter   tracker.DateFilter
	cursor   int
	expanded map[string]bool

	// ticking is true while a tick is scheduled
	ticking bool
	busy    bool

	statusMsg string
	errorMsg  string
}

// New builds the model. target is the goal in seconds for new timers; nil
// starts timers without one.
func New(ctx context.Context, s *store.Store, target *int64) Model {
	ti := textinput.New()
	ti.Placeholder = "What are you working on?"
	ti.CharLimit = 255
	ti.Width = 40
	ti.Focus()

	return Model{
		store:    s,
		ctx:      ctx,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		task:     ti,
		target:   target,
		filter:   tracker.FilterThisWeek,
		expanded: map[string]bool{},
	}
}

// Init loads the store
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// running reports whether the active entry needs a live redraw.
func (m Model) running() bool {
	e, ok := m.store.Active()
	return ok && e.State() == tracker.Running
}

// scheduleTick starts the 1 Hz tick unless one is already pending or nothing
// is running.
func (m *Model) scheduleTick() tea.Cmd {
	if m.ticking || !m.running() {
		return nil
	}
	m.ticking = true
	return tickCmd()
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.store.Load(m.ctx)}
	}
}

func (m Model) mutate(op string, fn func(context.Context) (tracker.TimeEntry, error)) tea.Cmd {
	return func() tea.Msg {
		e, err := fn(m.ctx)
		return mutatedMsg{op: op, entry: e, err: err}
	}
}

func (m *Model) refreshClients() {
	m.clients = m.store.ClientsByRecency()
	if m.clientCursor >= len(m.clients) {
		m.clientCursor = len(m.clients) - 1
	}
	if m.clientCursor < 0 {
		m.clientCursor = 0
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.ticking = false
		return m, m.scheduleTick()

	case loadedMsg:
		m.busy = false
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return m, nil
		}
		m.errorMsg = ""
		m.refreshClients()
		m.syncFocus()
		return m, m.scheduleTick()

	case mutatedMsg:
		m.busy = false
		if msg.err != nil {
			m.errorMsg = msg.op + ": " + msg.err.Error()
		} else {
			m.errorMsg = ""
			m.statusMsg = msg.op + ": " + msg.entry.TaskName
			if msg.op == "start" {
				m.task.SetValue("")
			}
		}
		m.refreshClients()
		m.syncFocus()
		return m, m.scheduleTick()

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.Switch) {
			if m.view == ViewTimer {
				m.view = ViewAnalytics
			} else {
				m.view = ViewTimer
			}
			m.syncFocus()
			return m, nil
		}
		if key.Matches(msg, m.keys.Reload) {
			m.busy = true
			return m, m.load()
		}
		if m.view == ViewAnalytics {
			return m.updateAnalytics(msg)
		}
		return m.updateTimer(msg)
	}

	if m.task.Focused() {
		var cmd tea.Cmd
		m.task, cmd = m.task.Update(msg)
		return m, cmd
	}
	return m, nil
}

// syncFocus focuses the task input only when it can be used.
func (m *Model) syncFocus() {
	_, active := m.store.Active()
	if m.view == ViewTimer && !active {
		m.task.Focus()
	} else {
		m.task.Blur()
	}
}

func (m Model) updateTimer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	active, ok := m.store.Active()
	if m.busy {
		return m, nil
	}

	if !ok {
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.clientCursor > 0 {
				m.clientCursor--
			}
			return m, nil
		case key.Matches(msg, m.keys.Down):
			if m.clientCursor < len(m.clients)-1 {
				m.clientCursor++
			}
			return m, nil
		case key.Matches(msg, m.keys.Start):
			if len(m.clients) == 0 {
				m.errorMsg = "add a client first (tt clients add NAME)"
				return m, nil
			}
			task := m.task.Value()
			clientID := m.clients[m.clientCursor].ID
			target := m.target
			m.busy = true
			return m, m.mutate("start", func(ctx context.Context) (tracker.TimeEntry, error) {
				return m.store.StartTimer(ctx, task, clientID, target)
			})
		}
		var cmd tea.Cmd
		m.task, cmd = m.task.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Pause):
		m.busy = true
		if active.State() == tracker.Paused {
			return m, m.mutate("resume", m.store.ResumeTimer)
		}
		return m, m.mutate("pause", m.store.PauseTimer)
	case key.Matches(msg, m.keys.Stop):
		m.busy = true
		return m, m.mutate("stop", m.store.StopTimer)
	}
	return m, nil
}

// accordionRow is one selectable line of the analytics view: a client, or a
// task when task is set.
type accordionRow struct {
	group tracker.ClientGroup
	task  *tracker.TaskGroup
}

func (r accordionRow) key() string {
	if r.task == nil {
		return r.group.ClientID
	}
	return r.group.ClientID + "\x00" + r.task.TaskName
}

// accordionRows lists clients, plus the tasks of expanded clients.
func (m Model) accordionRows(r tracker.Report) []accordionRow {
	var rows []accordionRow
	for _, g := range r.ClientGroups {
		rows = append(rows, accordionRow{group: g})
		if !m.expanded[g.ClientID] {
			continue
		}
		for i := range g.Tasks {
			rows = append(rows, accordionRow{group: g, task: &g.Tasks[i]})
		}
	}
	return rows
}

func (m Model) updateAnalytics(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.accordionRows(m.store.Report(m.filter))
	switch {
	case key.Matches(msg, m.keys.Filter):
		m.filter = m.filter.Next()
		m.cursor = 0
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(rows) {
			k := rows[m.cursor].key()
			m.expanded[k] = !m.expanded[k]
		}
	}
	return m, nil
}

// Run starts the full-screen program and blocks until it exits.
func Run(ctx context.Context, s *store.Store, target *int64) error {
	p := tea.NewProgram(New(ctx, s, target), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
