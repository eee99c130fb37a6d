package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InboxID is the reserved id of the project that always exists.
const InboxID = "inbox"

// Project is a named grouping of todos
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Todo represents a single task belonging to exactly one project
type Todo struct {
	ID        string
	ProjectID string
	Title     string
	Due       *Date // nil means no due date
	Done      bool
}

// todoWire is the persisted shape of a Todo. An absent due date is stored as
// an empty string.
type todoWire struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Title     string `json:"title"`
	Due       string `json:"due"`
	Done      bool   `json:"done"`
}

// MarshalJSON implements json.Marshaler.
func (t Todo) MarshalJSON() ([]byte, error) {
	w := todoWire{ID: t.ID, ProjectID: t.ProjectID, Title: t.Title, Done: t.Done}
	if t.Due != nil {
		w.Due = t.Due.String()
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. A due value that is not a
// calendar date is dropped rather than failing the whole record.
func (t *Todo) UnmarshalJSON(data []byte) error {
	var w todoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Todo{ID: w.ID, ProjectID: w.ProjectID, Title: w.Title, Done: w.Done}
	if w.Due != "" {
		if d, err := ParseDate(w.Due); err == nil {
			t.Due = &d
		}
	}
	return nil
}

// State is the whole application state held in memory for a session
type State struct {
	Projects        []Project `json:"projects"`
	Todos           []Todo    `json:"todos"`
	ActiveProjectID string    `json:"activeProjectId"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{ActiveProjectID: s.ActiveProjectID}
	if s.Projects != nil {
		out.Projects = make([]Project, len(s.Projects))
		copy(out.Projects, s.Projects)
	}
	if s.Todos != nil {
		out.Todos = make([]Todo, len(s.Todos))
		for i, t := range s.Todos {
			if t.Due != nil {
				d := *t.Due
				t.Due = &d
			}
			out.Todos[i] = t
		}
	}
	return out
}

// FindProject returns the project with the given id, or nil.
func (s State) FindProject(id string) *Project {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return &s.Projects[i]
		}
	}
	return nil
}

// FindProjectByName searches for a project by name (case-insensitive).
// Returns nil if no match is found.
func FindProjectByName(projects []Project, name string) *Project {
	for i := range projects {
		if strings.EqualFold(projects[i].Name, name) {
			return &projects[i]
		}
	}
	return nil
}

// CountTodos returns the number of todos owned by the project.
func (s State) CountTodos(projectID string) int {
	n := 0
	for _, t := range s.Todos {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n
}

// Date is a calendar date without a time component
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateLayout is the wire and input format of a Date.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// KVStore is a durable key-value store holding serialized blobs
type KVStore interface {
	// Get returns the value under key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// Connection management
	Close() error
}

// GenerateID generates a unique identifier using UUID v4.
func GenerateID() string {
	return uuid.New().String()
}

// GenerateProjectID returns a short project id, never equal to InboxID.
func GenerateProjectID() string {
	return "p-" + uuid.New().String()[:8]
}
