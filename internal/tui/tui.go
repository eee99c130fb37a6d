// Package tui provides a terminal user interface for projects and todos.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"thingsish/backend"
	"thingsish/internal/engine"
	"thingsish/internal/gate"
	"thingsish/internal/utils"
	"thingsish/internal/views"
)

// DefaultDrawerBreakpoint is the widest terminal that gets a drawer instead
// of a fixed projects pane.
const DefaultDrawerBreakpoint = 86

// Focus indicates which pane has focus
type Focus int

const (
	FocusProjects Focus = iota
	FocusTodos
)

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeNewTodo
	ModeNewProject
	ModeHelp
	ModeConfirmDeleteProject
)

// Fields of the new todo dialog
const (
	fieldTitle = iota
	fieldDue
	fieldProject
	fieldCount
)

// Logger receives session log lines. *utils.BackgroundLogger satisfies it.
type Logger interface {
	Printf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}
func (discardLogger) Errorf(string, ...interface{}) {}

// NetworkMsg reports a connectivity transition. Send it with Program.Send so
// it is handled on the event loop.
type NetworkMsg struct {
	Online bool
}

// Subscribe forwards monitor transitions to p as NetworkMsg.
func Subscribe(p *tea.Program, m gate.Subscriber) (unsubscribe func()) {
	return m.Subscribe(func(online bool) {
		p.Send(NetworkMsg{Online: online})
	})
}

// Model represents the TUI state
type Model struct {
	engine *engine.Engine
	gate   *gate.Gate
	ctx    context.Context
	log    Logger
	now    func() time.Time

	// Derived on every refresh
	vm views.ViewModel
	en gate.Enablement

	// Selection
	projectCursor int
	todoCursor    int
	focus         Focus
	drawerOpen    bool
	breakpoint    int

	// Mode and input
	mode          Mode
	titleInput    textinput.Model
	dueInput      textinput.Model
	nameInput     textinput.Model
	formField     int
	formProject   int
	formErr       string
	pendingDelete views.ProjectRow
	status        string

	// UI dimensions
	width  int
	height int

	// Styles
	projectPaneStyle lipgloss.Style
	todoPaneStyle    lipgloss.Style
	selectedStyle    lipgloss.Style
	completedStyle   lipgloss.Style
	mutedStyle       lipgloss.Style
	helpStyle        lipgloss.Style
	errorStyle       lipgloss.Style
	dialogStyle      lipgloss.Style
	statusBarStyle   lipgloss.Style
	onlineStyle      lipgloss.Style
	offlineStyle     lipgloss.Style
}

// New creates a new TUI model over eng
func New(eng *engine.Engine) *Model {
	newInput := func(placeholder string, limit int) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = limit
		return ti
	}

	m := &Model{
		engine:     eng,
		ctx:        context.Background(),
		log:        discardLogger{},
		now:        time.Now,
		breakpoint: DefaultDrawerBreakpoint,
		focus:      FocusTodos,
		mode:       ModeNormal,
		titleInput: newInput("What needs doing?", 256),
		dueInput:   newInput("YYYY-MM-DD, today, +3d (optional)", 32),
		nameInput:  newInput("Project name", 64),
		projectPaneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		todoPaneStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		completedStyle: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("240")),
		mutedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		dialogStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		statusBarStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		onlineStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")),
		offlineStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203")),
	}
	m.gate = gate.New(eng, func() []backend.Project { return eng.State().Projects })
	m.refresh()
	m.projectCursor = m.activeIndex()
	return m
}

// SetLogger sets the destination for session logs
func (m *Model) SetLogger(l Logger) {
	if l == nil {
		l = discardLogger{}
	}
	m.log = l
}

// SetDrawerBreakpoint sets the widest terminal that uses the drawer layout
func (m *Model) SetDrawerBreakpoint(cols int) {
	if cols > 0 {
		m.breakpoint = cols
	}
}

// SetEnablement implements gate.Surface
func (m *Model) SetEnablement(e gate.Enablement) {
	m.en = e
	m.syncInputs()
}

// CloseDrawer implements gate.Surface
func (m *Model) CloseDrawer() {
	m.drawerOpen = false
}

// refresh re-derives the view model and re-applies the gate
func (m *Model) refresh() {
	m.vm = views.Project(m.engine.State())
	if m.projectCursor >= len(m.vm.Projects) {
		m.projectCursor = len(m.vm.Projects) - 1
	}
	if m.projectCursor < 0 {
		m.projectCursor = 0
	}
	if m.todoCursor >= len(m.vm.Todos) {
		m.todoCursor = len(m.vm.Todos) - 1
	}
	if m.todoCursor < 0 {
		m.todoCursor = 0
	}
	m.gate.Apply(m)
}

// syncInputs focuses or blurs dialog inputs to match the enablement record
func (m *Model) syncInputs() {
	m.titleInput.Blur()
	m.dueInput.Blur()
	m.nameInput.Blur()

	switch m.mode {
	case ModeNewTodo:
		if !m.en.TodoForm {
			return
		}
		switch m.formField {
		case fieldTitle:
			m.titleInput.Focus()
		case fieldDue:
			m.dueInput.Focus()
		}
	case ModeNewProject:
		if m.en.ProjectForm {
			m.nameInput.Focus()
		}
	}
}

func (m *Model) narrow() bool {
	return m.width > 0 && m.width <= m.breakpoint
}

func (m *Model) projectsVisible() bool {
	return !m.narrow() || m.drawerOpen
}

func (m *Model) activeIndex() int {
	for i, p := range m.vm.Projects {
		if p.Active {
			return i
		}
	}
	return 0
}

// report turns an operation result into a status line and logs failures
func (m *Model) report(op string, res engine.Result, err error) bool {
	if err != nil {
		m.log.Errorf("%s: %v", op, err)
		m.status = "Save failed: " + err.Error()
		return false
	}
	switch res.Outcome {
	case engine.Applied:
		m.log.Printf("%s: %s", op, res.ID)
		return true
	case engine.Offline:
		m.status = gate.OfflineHint
	case engine.NotFound:
		m.status = "Not found"
	case engine.Protected:
		m.status = "Inbox cannot be deleted"
	}
	return false
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.narrow() {
			m.drawerOpen = false
		}
		return m, nil

	case NetworkMsg:
		m.log.Printf("network: online=%v", msg.Online)
		m.gate.Apply(m)
		if m.en.Online && m.status == gate.OfflineHint {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeNewTodo:
			return m.handleNewTodoMode(msg)
		case ModeNewProject:
			return m.handleNewProjectMode(msg)
		case ModeHelp:
			return m.handleHelpMode(msg)
		case ModeConfirmDeleteProject:
			return m.handleConfirmDeleteMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.narrow() {
			return m, nil
		}
		if m.focus == FocusProjects {
			m.focus = FocusTodos
		} else {
			m.focus = FocusProjects
		}
		return m, nil

	case "up", "k":
		if m.onProjects() {
			if m.projectCursor > 0 {
				m.projectCursor--
			}
		} else if m.todoCursor > 0 {
			m.todoCursor--
		}
		return m, nil

	case "down", "j":
		if m.onProjects() {
			if m.projectCursor < len(m.vm.Projects)-1 {
				m.projectCursor++
			}
		} else if m.todoCursor < len(m.vm.Todos)-1 {
			m.todoCursor++
		}
		return m, nil

	case "enter":
		if !m.onProjects() || len(m.vm.Projects) == 0 {
			return m, nil
		}
		if !m.en.Navigation {
			m.status = gate.OfflineHint
			return m, nil
		}
		id := m.vm.Projects[m.projectCursor].ID
		res, err := m.engine.SelectProject(m.ctx, id)
		if m.report("select project", res, err) {
			m.drawerOpen = false
			m.todoCursor = 0
			m.refresh()
		}
		return m, nil

	case " ", "space", "x":
		if m.onProjects() || len(m.vm.Todos) == 0 {
			return m, nil
		}
		if !m.en.ToggleDone {
			m.status = gate.OfflineHint
			return m, nil
		}
		todo := m.vm.Todos[m.todoCursor]
		res, err := m.engine.ToggleTodoDone(m.ctx, todo.ID, !todo.Done)
		if m.report("toggle todo", res, err) {
			m.refresh()
		}
		return m, nil

	case "d":
		if m.onProjects() || len(m.vm.Todos) == 0 {
			return m, nil
		}
		if !m.en.DeleteTodo {
			m.status = gate.OfflineHint
			return m, nil
		}
		res, err := m.engine.DeleteTodo(m.ctx, m.vm.Todos[m.todoCursor].ID)
		if m.report("delete todo", res, err) {
			m.refresh()
		}
		return m, nil

	case "D":
		target := m.deleteTarget()
		a := m.en.DeleteProject(target.ID)
		if !a.Visible {
			return m, nil
		}
		if !a.Enabled {
			m.status = a.Hint
			return m, nil
		}
		m.pendingDelete = target
		m.mode = ModeConfirmDeleteProject
		return m, nil

	case "n":
		if !m.en.CreateTodo {
			m.status = gate.OfflineHint
			return m, nil
		}
		m.openNewTodo()
		return m, textinput.Blink

	case "p":
		if !m.en.CreateProject {
			m.status = gate.OfflineHint
			return m, nil
		}
		m.mode = ModeNewProject
		m.nameInput.Reset()
		m.formErr = ""
		m.syncInputs()
		return m, textinput.Blink

	case "m":
		if !m.narrow() {
			return m, nil
		}
		if !m.en.Navigation {
			m.status = gate.OfflineHint
			return m, nil
		}
		m.drawerOpen = true
		m.projectCursor = m.activeIndex()
		return m, nil

	case "esc":
		m.drawerOpen = false
		return m, nil

	case "?":
		m.mode = ModeHelp
		return m, nil
	}

	return m, nil
}

// onProjects reports whether list keys act on the project list
func (m *Model) onProjects() bool {
	if m.narrow() {
		return m.drawerOpen
	}
	return m.focus == FocusProjects
}

// deleteTarget is the project under the cursor when the list is visible,
// otherwise the active project
func (m *Model) deleteTarget() views.ProjectRow {
	if m.projectsVisible() && m.projectCursor < len(m.vm.Projects) {
		return m.vm.Projects[m.projectCursor]
	}
	for _, p := range m.vm.Projects {
		if p.Active {
			return p
		}
	}
	return views.ProjectRow{ID: backend.InboxID}
}

func (m *Model) openNewTodo() {
	m.mode = ModeNewTodo
	m.titleInput.Reset()
	m.dueInput.Reset()
	m.formErr = ""
	m.formField = fieldTitle
	m.formProject = m.activeIndex()
	m.syncInputs()
}

func (m *Model) closeDialog() {
	m.mode = ModeNormal
	m.formErr = ""
	m.syncInputs()
}

func (m *Model) handleNewTodoMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEsc:
		m.closeDialog()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	if !m.en.TodoForm {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		m.formField = (m.formField + 1) % fieldCount
		m.syncInputs()
		return m, nil

	case tea.KeyShiftTab, tea.KeyUp:
		m.formField = (m.formField + fieldCount - 1) % fieldCount
		m.syncInputs()
		return m, nil

	case tea.KeyLeft, tea.KeyRight:
		if m.formField == fieldProject && len(m.vm.Projects) > 0 {
			step := 1
			if msg.Type == tea.KeyLeft {
				step = len(m.vm.Projects) - 1
			}
			m.formProject = (m.formProject + step) % len(m.vm.Projects)
			return m, nil
		}

	case tea.KeyEnter:
		return m.submitNewTodo()
	}

	switch m.formField {
	case fieldTitle:
		m.titleInput, cmd = m.titleInput.Update(msg)
		m.formErr = ""
	case fieldDue:
		m.dueInput, cmd = m.dueInput.Update(msg)
		m.formErr = ""
	}
	return m, cmd
}

func (m *Model) submitNewTodo() (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(m.titleInput.Value())
	if title == "" {
		m.formErr = "Title is required"
		m.formField = fieldTitle
		m.syncInputs()
		return m, nil
	}
	due, err := utils.ParseDueDate(m.dueInput.Value(), m.now())
	if err != nil {
		m.formErr = err.Error()
		m.formField = fieldDue
		m.syncInputs()
		return m, nil
	}

	projectID := backend.InboxID
	if m.formProject < len(m.vm.Projects) {
		projectID = m.vm.Projects[m.formProject].ID
	}

	res, err := m.engine.AddTodo(m.ctx, projectID, title, due)
	if !m.report("add todo", res, err) {
		if res.Outcome == engine.Invalid {
			m.formErr = "Title is required"
			return m, nil
		}
		m.closeDialog()
		return m, nil
	}
	m.closeDialog()
	m.refresh()
	if projectID == m.vm.ActiveID {
		m.todoCursor = 0
	}
	return m, nil
}

func (m *Model) handleNewProjectMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEsc:
		m.closeDialog()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	if !m.en.ProjectForm {
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return m, nil
		}
		res, err := m.engine.AddProject(m.ctx, name)
		if res.Outcome == engine.Duplicate && err == nil {
			m.formErr = fmt.Sprintf("Name %q is already used", name)
			return m, nil
		}
		if m.report("add project", res, err) {
			m.closeDialog()
			m.refresh()
			m.projectCursor = m.activeIndex()
			m.todoCursor = 0
			return m, nil
		}
		m.closeDialog()
		return m, nil
	}

	// Typing clears the duplicate error
	m.formErr = ""
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.mode = ModeNormal
		return m, nil
	}

	if msg.String() == "q" || msg.String() == "?" {
		m.mode = ModeNormal
		return m, nil
	}

	return m, nil
}

func (m *Model) handleConfirmDeleteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		res, err := m.engine.DeleteProject(m.ctx, m.pendingDelete.ID, true)
		if m.report("delete project", res, err) {
			m.refresh()
			m.projectCursor = m.activeIndex()
		}
		return m, nil

	case "n", "N", "esc":
		m.mode = ModeNormal
		return m, nil
	}

	if msg.Type == tea.KeyEsc {
		m.mode = ModeNormal
	}
	return m, nil
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 100
		m.height = 24
	}

	switch m.mode {
	case ModeNewTodo:
		return m.renderNewTodoDialog()
	case ModeNewProject:
		return m.renderNewProjectDialog()
	case ModeHelp:
		return m.renderHelpDialog()
	case ModeConfirmDeleteProject:
		return m.renderConfirmDeleteDialog()
	}

	var b strings.Builder
	paneHeight := m.height - 3
	if paneHeight < 3 {
		paneHeight = 3
	}

	var mainView string
	if m.projectsVisible() {
		projectWidth := m.width / 4
		if projectWidth < 24 {
			projectWidth = 24
		}
		todoWidth := m.width - projectWidth - 4
		projectPane := m.projectPaneStyle.Width(projectWidth).Height(paneHeight).
			Render(m.renderProjectPane(projectWidth - 2))
		todoPane := m.todoPaneStyle.Width(todoWidth).Height(paneHeight).
			Render(m.renderTodoPane(todoWidth - 2))
		mainView = lipgloss.JoinHorizontal(lipgloss.Top, projectPane, todoPane)
	} else {
		mainView = m.todoPaneStyle.Width(m.width - 2).Height(paneHeight).
			Render(m.renderTodoPane(m.width - 4))
	}

	b.WriteString(mainView)
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderProjectPane(width int) string {
	var b strings.Builder
	title := "Projects"
	if m.drawerOpen {
		title = "Projects (esc to close)"
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("─", max(width, 1)))
	b.WriteString("\n")

	focused := m.onProjects()
	for i, p := range m.vm.Projects {
		cursor := " "
		if i == m.projectCursor && focused {
			cursor = ">"
		}
		name := xansi.Truncate(p.Name, max(width-11, 4), "…")
		if p.Active {
			name = "• " + name
		} else {
			name = "  " + name
		}
		if i == m.projectCursor && focused {
			name = m.selectedStyle.Render(name)
		}
		trash := "  "
		if a := m.en.DeleteProject(p.ID); a.Visible {
			trash = "🗑"
			if !a.Enabled {
				trash = m.mutedStyle.Render("🗑")
			}
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s\n", cursor, name, m.mutedStyle.Render(fmt.Sprintf("(%d)", p.Count)), trash))
	}

	return b.String()
}

func (m *Model) renderTodoPane(width int) string {
	var b strings.Builder
	b.WriteString(m.vm.Title + "\n")
	b.WriteString(strings.Repeat("─", max(width, 1)))
	b.WriteString("\n")

	if m.vm.Empty {
		b.WriteString(views.EmptyTitle + "\n")
		b.WriteString(m.mutedStyle.Render(views.EmptyHint) + "\n")
		return b.String()
	}

	focused := !m.onProjects()
	for i, t := range m.vm.Todos {
		cursor := " "
		if i == m.todoCursor && focused {
			cursor = ">"
		}
		box := "[ ]"
		if t.Done {
			box = "[x]"
		}
		textWidth := max(width-6, 8)
		title := xansi.Truncate(t.Title, textWidth, "…")
		switch {
		case t.Done:
			title = m.completedStyle.Render(title)
		case i == m.todoCursor && focused:
			title = m.selectedStyle.Render(title)
		}
		b.WriteString(cursor + " " + box + " " + title + "\n")
		meta := xansi.Truncate(t.DueText+" · "+t.ProjectLabel, textWidth, "…")
		b.WriteString("      " + m.mutedStyle.Render(meta) + "\n")
	}

	return b.String()
}

func (m *Model) renderStatusBar() string {
	badge := m.onlineStyle.Render(m.en.Badge)
	if !m.en.Online {
		badge = m.offlineStyle.Render(m.en.Badge)
	}
	left := badge
	if m.en.OfflineHint != "" {
		left += "  " + m.en.OfflineHint
	}

	right := "q:quit  ?:help"
	if m.narrow() && !m.drawerOpen {
		right = "m:projects  " + right
	}
	if m.status != "" {
		right = m.status + "  " + right
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return m.statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) offlineNotice(enabled bool) string {
	if enabled {
		return ""
	}
	return "\n" + m.errorStyle.Render(gate.OfflineHint)
}

func (m *Model) renderNewTodoDialog() string {
	projectName := ""
	if m.formProject < len(m.vm.Projects) {
		projectName = m.vm.Projects[m.formProject].Name
	}
	label := func(field int, text string) string {
		if field == m.formField {
			return m.selectedStyle.Render(text)
		}
		return text
	}

	body := "New todo\n\n" +
		label(fieldTitle, "Title") + "\n" + m.titleInput.View() + "\n\n" +
		label(fieldDue, "Due") + "\n" + m.dueInput.View() + "\n\n" +
		label(fieldProject, "Project") + "\n" + "‹ " + projectName + " ›"
	if m.formErr != "" {
		body += "\n\n" + m.errorStyle.Render(m.formErr)
	}
	body += m.offlineNotice(m.en.TodoForm)
	body += "\n\n" + m.helpStyle.Render("Tab: next field  ←/→: project  Enter: add  Esc: cancel")

	return m.centerDialog(m.dialogStyle.Render(body))
}

func (m *Model) renderNewProjectDialog() string {
	body := "New project\n\n" + m.nameInput.View()
	if m.formErr != "" {
		body += "\n\n" + m.errorStyle.Render(m.formErr)
	}
	body += m.offlineNotice(m.en.ProjectForm)
	body += "\n\n" + m.helpStyle.Render("Enter: create  Esc: cancel")

	return m.centerDialog(m.dialogStyle.Render(body))
}

func (m *Model) renderHelpDialog() string {
	help := `Help - Key Bindings

Navigation:
  j/↓    Move down
  k/↑    Move up
  Tab    Switch focus between projects/todos
  Enter  Open selected project
  m      Projects drawer (narrow terminals)
  Esc    Close drawer or dialog

Actions:
  n      New todo
  p      New project
  Space  Toggle done
  d      Delete todo
  D      Delete project (with confirm)

General:
  ?      Show this help
  q      Quit

Press any key to close`

	dialog := m.dialogStyle.Render(help)
	return m.centerDialog(dialog)
}

func (m *Model) renderConfirmDeleteDialog() string {
	dialog := m.dialogStyle.Render(
		fmt.Sprintf("Do you want to remove %q and all its todos?\n\n", m.pendingDelete.Name) +
			m.helpStyle.Render("y: yes  n: no"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) centerDialog(dialog string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}
