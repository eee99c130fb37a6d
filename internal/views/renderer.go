package views

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Renderer writes a ViewModel for the CLI
type Renderer struct {
	writer io.Writer
	json   bool
}

// NewRenderer creates a text renderer, or a JSON renderer when asJSON is set
func NewRenderer(writer io.Writer, asJSON bool) *Renderer {
	return &Renderer{writer: writer, json: asJSON}
}

// Render writes the project list followed by the active project's todos
func (r *Renderer) Render(vm ViewModel) error {
	if r.json {
		return r.encode(vm)
	}
	r.renderProjects(vm.Projects)
	_, _ = fmt.Fprintln(r.writer)
	r.renderTodos(vm)
	return nil
}

// RenderProjects writes only the project list
func (r *Renderer) RenderProjects(vm ViewModel) error {
	if r.json {
		return r.encode(vm.Projects)
	}
	r.renderProjects(vm.Projects)
	return nil
}

func (r *Renderer) encode(v any) error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *Renderer) renderProjects(rows []ProjectRow) {
	width := 0
	for _, p := range rows {
		if len(p.Name) > width {
			width = len(p.Name)
		}
	}
	for _, p := range rows {
		marker := " "
		if p.Active {
			marker = "*"
		}
		_, _ = fmt.Fprintf(r.writer, "%s %-*s  %3d  %s\n", marker, width, p.Name, p.Count, p.ID)
	}
}

func (r *Renderer) renderTodos(vm ViewModel) {
	_, _ = fmt.Fprintln(r.writer, vm.Title)
	_, _ = fmt.Fprintln(r.writer, strings.Repeat("─", len([]rune(vm.Title))))

	if vm.Empty {
		_, _ = fmt.Fprintf(r.writer, "  %s\n  %s\n", EmptyTitle, EmptyHint)
		return
	}

	for _, t := range vm.Todos {
		box := "[ ]"
		if t.Done {
			box = "[x]"
		}
		_, _ = fmt.Fprintf(r.writer, "  %s %s\n      %s · %s · %s\n", box, t.Title, t.DueText, t.ProjectLabel, t.ID)
	}
}
