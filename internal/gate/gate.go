// Package gate derives which mutating controls are usable from the current
// connectivity and pushes that onto a UI surface.
package gate

import (
	"thingsish/backend"
	"thingsish/internal/network"
)

// OfflineHint is shown while writes are disabled.
const OfflineHint = "Offline: read-only mode"

// Affordance is the state of a single control. A hidden control is inert
// and takes no attention, unlike a visible but disabled one.
type Affordance struct {
	Visible bool
	Enabled bool
	Hint    string
}

// Hidden is the affordance of a control that must never be offered.
var Hidden = Affordance{}

// Enablement covers every mutating control in the UI.
type Enablement struct {
	Online      bool
	Badge       string
	OfflineHint string // empty while online

	CreateTodo    bool
	CreateProject bool
	ToggleDone    bool
	DeleteTodo    bool
	Navigation    bool // opening the drawer and selecting projects

	// Inputs of an open creation dialog.
	TodoForm    bool
	ProjectForm bool

	deleteProject map[string]Affordance
}

// DeleteProject returns the delete control state for a project. Unknown
// ids are hidden.
func (e Enablement) DeleteProject(id string) Affordance {
	if a, ok := e.deleteProject[id]; ok {
		return a
	}
	return Hidden
}

// Evaluate computes the enablement record. The inbox delete control is
// hidden regardless of connectivity.
func Evaluate(online bool, projects []backend.Project) Enablement {
	e := Enablement{
		Online:        online,
		Badge:         network.Badge(online),
		CreateTodo:    online,
		CreateProject: online,
		ToggleDone:    online,
		DeleteTodo:    online,
		Navigation:    online,
		TodoForm:      online,
		ProjectForm:   online,
		deleteProject: make(map[string]Affordance, len(projects)),
	}
	if !online {
		e.OfflineHint = OfflineHint
	}

	for _, p := range projects {
		if p.ID == backend.InboxID {
			e.deleteProject[p.ID] = Hidden
			continue
		}
		a := Affordance{Visible: true, Enabled: online, Hint: "Delete list"}
		if !online {
			a.Hint = "Offline: Cannot delete"
		}
		e.deleteProject[p.ID] = a
	}
	return e
}

// Surface is a UI that can display an enablement record.
type Surface interface {
	SetEnablement(Enablement)
	CloseDrawer()
}

// Connectivity reports whether writes are allowed.
type Connectivity interface {
	IsOnline() bool
}

// Subscriber delivers connectivity transitions.
type Subscriber interface {
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// Gate evaluates enablement from live connectivity and the current project
// list. It keeps no state between evaluations.
type Gate struct {
	net      Connectivity
	projects func() []backend.Project
}

// New creates a Gate. projects is called on every evaluation.
func New(net Connectivity, projects func() []backend.Project) *Gate {
	return &Gate{net: net, projects: projects}
}

// Evaluate computes the current enablement record.
func (g *Gate) Evaluate() Enablement {
	var projects []backend.Project
	if g.projects != nil {
		projects = g.projects()
	}
	return Evaluate(g.net.IsOnline(), projects)
}

// Apply pushes the current enablement onto s and closes its drawer when
// offline.
func (g *Gate) Apply(s Surface) Enablement {
	e := g.Evaluate()
	s.SetEnablement(e)
	if !e.Online {
		s.CloseDrawer()
	}
	return e
}

// Watch re-applies s on every connectivity transition until the returned
// function is called.
func (g *Gate) Watch(m Subscriber, s Surface) (unsubscribe func()) {
	return m.Subscribe(func(bool) {
		g.Apply(s)
	})
}
