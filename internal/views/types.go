package views

// Placeholder text for a project with no todos.
const (
	EmptyTitle = "No entities"
	EmptyHint  = "Press “New todo” to add todo entities"
)

// NoDueText is shown for a todo without a due date.
const NoDueText = "No due date"

// UnknownProject labels a todo whose project no longer exists.
const UnknownProject = "Unknown"

// ViewModel is everything needed to draw the main screen.
type ViewModel struct {
	Projects []ProjectRow `json:"projects"`
	ActiveID string       `json:"activeProjectId"`
	Title    string       `json:"title"`
	Todos    []TodoRow    `json:"todos"`
	Empty    bool         `json:"empty"`
}

// ProjectRow is one entry of the project list.
type ProjectRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Active bool   `json:"active"`
}

// TodoRow is one todo of the active project.
type TodoRow struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Due          string `json:"due"` // YYYY-MM-DD or empty
	DueText      string `json:"dueText"`
	ProjectLabel string `json:"project"`
	Done         bool   `json:"done"`
}
