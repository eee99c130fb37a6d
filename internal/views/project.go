// Package views turns application state into what the CLI and TUI display.
package views

import (
	"fmt"
	"time"

	"thingsish/backend"
)

// swedishMonths are the abbreviated month names of the sv-SE locale.
var swedishMonths = [...]string{
	time.January:   "jan.",
	time.February:  "feb.",
	time.March:     "mars",
	time.April:     "apr.",
	time.May:       "maj",
	time.June:      "juni",
	time.July:      "juli",
	time.August:    "aug.",
	time.September: "sep.",
	time.October:   "okt.",
	time.November:  "nov.",
	time.December:  "dec.",
}

// FormatDue renders a due date as a Swedish short date, e.g. "20 jan. 2026".
func FormatDue(d *backend.Date) string {
	if d == nil {
		return NoDueText
	}
	month := ""
	if d.Month >= time.January && d.Month <= time.December {
		month = swedishMonths[d.Month]
	}
	return fmt.Sprintf("%d %s %d", d.Day, month, d.Year)
}

// Project derives the view model from state. It does not modify state.
func Project(state backend.State) ViewModel {
	vm := ViewModel{
		ActiveID: state.ActiveProjectID,
		Title:    "Inbox",
		Projects: make([]ProjectRow, 0, len(state.Projects)),
		Todos:    []TodoRow{},
	}

	names := make(map[string]string, len(state.Projects))
	counts := make(map[string]int, len(state.Projects))
	for _, t := range state.Todos {
		counts[t.ProjectID]++
	}
	for _, p := range state.Projects {
		names[p.ID] = p.Name
		vm.Projects = append(vm.Projects, ProjectRow{
			ID:     p.ID,
			Name:   p.Name,
			Count:  counts[p.ID],
			Active: p.ID == state.ActiveProjectID,
		})
	}
	if name, ok := names[state.ActiveProjectID]; ok {
		vm.Title = name
	}

	for _, t := range state.Todos {
		if t.ProjectID != state.ActiveProjectID {
			continue
		}
		label, ok := names[t.ProjectID]
		if !ok {
			label = UnknownProject
		}
		row := TodoRow{
			ID:           t.ID,
			Title:        t.Title,
			DueText:      FormatDue(t.Due),
			ProjectLabel: label,
			Done:         t.Done,
		}
		if t.Due != nil {
			row.Due = t.Due.String()
		}
		vm.Todos = append(vm.Todos, row)
	}
	vm.Empty = len(vm.Todos) == 0
	return vm
}
