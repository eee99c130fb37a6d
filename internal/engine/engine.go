// Package engine owns the in-memory application state and the operations
// that change it. Every change is written through to the persister before it
// becomes visible; nothing changes while offline.
package engine

import (
	"context"
	"strings"

	"thingsish/backend"
)

// Outcome describes what an operation did.
type Outcome int

const (
	// Applied means the state changed and was saved.
	Applied Outcome = iota
	// Offline means the operation was skipped because writes are disabled.
	Offline
	// Invalid means a required input was empty after trimming.
	Invalid
	// NotFound means a referenced project or todo does not exist.
	NotFound
	// Duplicate means a project with the same name already exists.
	Duplicate
	// Protected means the inbox cannot be deleted.
	Protected
	// Unconfirmed means a destructive operation was not confirmed.
	Unconfirmed
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Offline:
		return "offline"
	case Invalid:
		return "invalid"
	case NotFound:
		return "not_found"
	case Duplicate:
		return "duplicate"
	case Protected:
		return "protected"
	case Unconfirmed:
		return "unconfirmed"
	default:
		return "unknown"
	}
}

// Result is returned by every operation. ID is set to the new entity's id
// when AddTodo or AddProject applies.
type Result struct {
	Outcome Outcome
	ID      string
}

// OK reports whether the operation applied.
func (r Result) OK() bool {
	return r.Outcome == Applied
}

// Connectivity reports whether mutations are allowed right now.
type Connectivity interface {
	IsOnline() bool
}

// Persister durably stores the full state.
type Persister interface {
	Save(ctx context.Context, state backend.State) error
}

// Engine holds the session state. It is not safe for concurrent use; callers
// sequence all access through a single goroutine.
type Engine struct {
	state backend.State
	net   Connectivity
	store Persister
}

// New creates an Engine over an already loaded state.
func New(state backend.State, net Connectivity, store Persister) *Engine {
	return &Engine{state: state.Clone(), net: net, store: store}
}

// State returns a copy of the current state.
func (e *Engine) State() backend.State {
	return e.state.Clone()
}

// ActiveProjectID returns the id of the selected project.
func (e *Engine) ActiveProjectID() string {
	return e.state.ActiveProjectID
}

// Project returns the project with the given id.
func (e *Engine) Project(id string) (backend.Project, bool) {
	if p := e.state.FindProject(id); p != nil {
		return *p, true
	}
	return backend.Project{}, false
}

// IsOnline reports whether mutations are currently allowed.
func (e *Engine) IsOnline() bool {
	return e.net.IsOnline()
}

// commit saves next and makes it current. On failure the current state is
// left untouched.
func (e *Engine) commit(ctx context.Context, next backend.State, res Result) (Result, error) {
	if err := e.store.Save(ctx, next); err != nil {
		return Result{}, err
	}
	e.state = next
	return res, nil
}

func (e *Engine) todoIndex(s backend.State, id string) int {
	for i := range s.Todos {
		if s.Todos[i].ID == id {
			return i
		}
	}
	return -1
}

// SelectProject makes id the active project.
func (e *Engine) SelectProject(ctx context.Context, id string) (Result, error) {
	if !e.IsOnline() {
		return Result{Outcome: Offline}, nil
	}
	if e.state.FindProject(id) == nil {
		return Result{Outcome: NotFound}, nil
	}

	next := e.state.Clone()
	next.ActiveProjectID = id
	return e.commit(ctx, next, Result{Outcome: Applied, ID: id})
}

// AddTodo prepends a new open todo to the project. A nil due means no due date.
func (e *Engine) AddTodo(ctx context.Context, projectID, title string, due *backend.Date) (Result, error) {
	if !e.IsOnline() {
		return Result{Outcome: Offline}, nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return Result{Outcome: Invalid}, nil
	}
	if e.state.FindProject(projectID) == nil {
		return Result{Outcome: NotFound}, nil
	}

	todo := backend.Todo{
		ID:        backend.GenerateID(),
		ProjectID: projectID,
		Title:     title,
	}
	if due != nil {
		d := *due
		todo.Due = &d
	}

	next := e.state.Clone()
	next.Todos = append([]backend.Todo{todo}, next.Todos...)
	return e.commit(ctx, next, Result{Outcome: Applied, ID: todo.ID})
}

// ToggleTodoDone sets the done flag of a todo.
func (e *Engine) ToggleTodoDone(ctx context.Context, todoID string, done bool) (Result, error) {
	if !e.IsOnline() {
		return Result{Outcome: Offline}, nil
	}
	i := e.todoIndex(e.state, todoID)
	if i < 0 {
		return Result{Outcome: NotFound}, nil
	}

	next := e.state.Clone()
	next.Todos[i].Done = done
	return e.commit(ctx, next, Result{Outcome: Applied, ID: todoID})
}

// DeleteTodo removes a todo.
func (e *Engine) DeleteTodo(ctx context.Context, todoID string) (Result, error) {
	if !e.IsOnline() {
		return Result{Outcome: Offline}, nil
	}
	i := e.todoIndex(e.state, todoID)
	if i < 0 {
		return Result{Outcome: NotFound}, nil
	}

	next := e.state.Clone()
	next.Todos = append(next.Todos[:i], next.Todos[i+1:]...)
	return e.commit(ctx, next, Result{Outcome: Applied, ID: todoID})
}

// AddProject appends a project and makes it active. Names are unique
// ignoring case.
func (e *Engine) AddProject(ctx context.Context, name string) (Result, error) {
	if !e.IsOnline() {
		return Result{Outcome: Offline}, nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Result{Outcome: Invalid}, nil
	}
	if existing := backend.FindProjectByName(e.state.Projects, name); existing != nil {
		return Result{Outcome: Duplicate, ID: existing.ID}, nil
	}

	id := backend.GenerateProjectID()
	for e.state.FindProject(id) != nil {
		id = backend.GenerateProjectID()
	}

	next := e.state.Clone()
	next.Projects = append(next.Projects, backend.Project{ID: id, Name: name})
	next.ActiveProjectID = id
	return e.commit(ctx, next, Result{Outcome: Applied, ID: id})
}

// DeleteProject removes a project and all of its todos. The caller must
// obtain confirmation first. Deleting the active project selects the inbox.
func (e *Engine) DeleteProject(ctx context.Context, id string, confirmed bool) (Result, error) {
	if !e.IsOnline() {
		return Result{Outcome: Offline}, nil
	}
	if id == backend.InboxID {
		return Result{Outcome: Protected}, nil
	}
	if !confirmed {
		return Result{Outcome: Unconfirmed}, nil
	}
	if e.state.FindProject(id) == nil {
		return Result{Outcome: NotFound}, nil
	}

	next := e.state.Clone()
	projects := next.Projects[:0]
	for _, p := range next.Projects {
		if p.ID != id {
			projects = append(projects, p)
		}
	}
	next.Projects = projects

	todos := next.Todos[:0]
	for _, t := range next.Todos {
		if t.ProjectID != id {
			todos = append(todos, t)
		}
	}
	next.Todos = todos

	if next.ActiveProjectID == id {
		next.ActiveProjectID = backend.InboxID
	}
	return e.commit(ctx, next, Result{Outcome: Applied, ID: id})
}
