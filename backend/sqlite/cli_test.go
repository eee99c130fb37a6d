package sqlite_test

import (
	"encoding/json"
	"strings"
	"testing"

	"thingsish/internal/testutil"
	"thingsish/internal/views"
)

// =============================================================================
// Show Command Tests
// =============================================================================

func TestShowSeedSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("show")

	testutil.AssertContains(t, stdout, "Inbox")
	testutil.AssertContains(t, stdout, "Project A")
	testutil.AssertContains(t, stdout, "Project B")
	testutil.AssertContains(t, stdout, "Prepare presentation")
	testutil.AssertContains(t, stdout, "20 jan. 2026")
	testutil.AssertNotContains(t, stdout, "Review quarterly data")
	testutil.AssertContains(t, stdout, "Online")
	testutil.AssertResultCode(t, stdout, testutil.ResultInfoOnly)
}

func TestDefaultCommandShowsWhenNotTerminalSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute()

	testutil.AssertContains(t, stdout, "Prepare presentation")
	testutil.AssertResultCode(t, stdout, testutil.ResultInfoOnly)
}

func TestShowOtherProjectDoesNotSelectSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("show", "Project A")
	testutil.AssertContains(t, stdout, "Review quarterly data")
	testutil.AssertContains(t, stdout, views.NoDueText)

	stdout = cli.MustExecute("show")
	testutil.AssertNotContains(t, stdout, "Review quarterly data")
}

func TestShowUnknownProjectSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	_, stderr := cli.ExecuteAndFail("show", "Nowhere")

	testutil.AssertContains(t, stderr, "project not found: Nowhere")
}

func TestShowJSONSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("--json", "show")

	var vm views.ViewModel
	if err := json.Unmarshal([]byte(stdout), &vm); err != nil {
		t.Fatalf("expected view model JSON, got: %s (%v)", stdout, err)
	}
	if vm.ActiveID != "inbox" || vm.Title != "Inbox" {
		t.Errorf("active = %q/%q, want inbox/Inbox", vm.ActiveID, vm.Title)
	}
	if len(vm.Projects) != 3 {
		t.Errorf("len(Projects) = %d, want 3", len(vm.Projects))
	}
	if len(vm.Todos) != 1 || vm.Todos[0].Due != "2026-01-20" || vm.Todos[0].DueText != "20 jan. 2026" {
		t.Errorf("Todos = %+v", vm.Todos)
	}
}

func TestShowMarkdownSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)
	cli.MustExecute("todo", "done", "Prepare presentation")

	stdout := cli.MustExecute("show", "--markdown")

	testutil.AssertContains(t, stdout, "# Inbox")
	testutil.AssertContains(t, stdout, "- [x] Prepare presentation (20 jan. 2026)")
	testutil.AssertResultCode(t, stdout, testutil.ResultInfoOnly)
}

// =============================================================================
// Todo Command Tests
// =============================================================================

func TestTodoAddSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("todo", "add", "Buy", "milk")

	testutil.AssertContains(t, stdout, `Added "Buy milk" to Inbox`)
	testutil.AssertResultCode(t, stdout, testutil.ResultActionCompleted)

	// Persisted across invocations
	stdout = cli.MustExecute("show")
	testutil.AssertContains(t, stdout, "Buy milk")
	testutil.AssertContains(t, stdout, "Prepare presentation")
}

func TestTodoAddNewestFirstSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	cli.MustExecute("todo", "add", "Buy milk")
	stdout := cli.MustExecute("show")

	if strings.Index(stdout, "Buy milk") > strings.Index(stdout, "Prepare presentation") {
		t.Errorf("new todo should be listed first:\n%s", stdout)
	}
}

func TestTodoAddWithDueAndProjectSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("todo", "add", "Ship report", "--due", "2026-03-05", "--project", "project a")
	testutil.AssertContains(t, stdout, "Project A")
	testutil.AssertContains(t, stdout, "5 mars 2026")

	stdout = cli.MustExecute("show", "proj-a")
	testutil.AssertContains(t, stdout, "Ship report")
	testutil.AssertContains(t, stdout, "5 mars 2026")
}

func TestTodoAddJSONSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("--json", "todo", "add", "Buy milk", "--due", "2026-01-02")

	var resp struct {
		Action string `json:"action"`
		Todo   struct {
			ID        string `json:"id"`
			ProjectID string `json:"project_id"`
			Title     string `json:"title"`
			Due       string `json:"due"`
		} `json:"todo"`
		Result string `json:"result"`
	}
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil {
		t.Fatalf("invalid JSON: %s (%v)", stdout, err)
	}
	if resp.Action != "add_todo" || resp.Result != testutil.ResultActionCompleted {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Todo.ID == "" || resp.Todo.ProjectID != "inbox" || resp.Todo.Title != "Buy milk" || resp.Todo.Due != "2026-01-02" {
		t.Errorf("unexpected todo: %+v", resp.Todo)
	}
}

func TestTodoAddInvalidInputSQLiteCLI(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"blank title", []string{"todo", "add", "   "}, "title cannot be empty"},
		{"unknown project", []string{"todo", "add", "Task", "--project", "Nowhere"}, "project not found: Nowhere"},
		{"bad due date", []string{"todo", "add", "Task", "--due", "soon"}, "invalid date: soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := testutil.NewCLITest(t)

			stdout, stderr := cli.ExecuteAndFail(tt.args...)

			testutil.AssertContains(t, stderr, tt.want)
			testutil.AssertResultCode(t, stdout, testutil.ResultError)
		})
	}
}

func TestTodoDoneUndoSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("todo", "done", "Prepare presentation")
	testutil.AssertContains(t, stdout, `Completed "Prepare presentation"`)
	testutil.AssertContains(t, cli.MustExecute("show"), "[x] Prepare presentation")

	stdout = cli.MustExecute("todo", "undo", "prepare presentation")
	testutil.AssertContains(t, stdout, `Reopened "Prepare presentation"`)
	testutil.AssertContains(t, cli.MustExecute("show"), "[ ] Prepare presentation")
}

func TestTodoDeleteSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	cli.MustExecute("todo", "add", "Buy milk")
	stdout := cli.MustExecute("todo", "delete", "Buy milk")
	testutil.AssertContains(t, stdout, `Deleted "Buy milk"`)

	stdout = cli.MustExecute("show")
	testutil.AssertNotContains(t, stdout, "Buy milk")
	testutil.AssertContains(t, stdout, "Prepare presentation")
}

func TestTodoUnknownSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	_, stderr := cli.ExecuteAndFail("todo", "done", "Nothing like this")

	testutil.AssertContains(t, stderr, "todo not found: Nothing like this")
}

// =============================================================================
// Project Command Tests
// =============================================================================

func TestProjectListSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("project", "list")

	testutil.AssertContains(t, stdout, "* Inbox")
	testutil.AssertContains(t, stdout, "proj-a")
	testutil.AssertContains(t, stdout, "proj-b")
	testutil.AssertResultCode(t, stdout, testutil.ResultInfoOnly)
}

func TestProjectAddSelectsSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("project", "add", "  Work  ")
	testutil.AssertContains(t, stdout, `Created project "Work"`)
	testutil.AssertResultCode(t, stdout, testutil.ResultActionCompleted)

	stdout = cli.MustExecute("show")
	testutil.AssertContains(t, stdout, "* Work")
	testutil.AssertContains(t, stdout, views.EmptyTitle)
	testutil.AssertContains(t, stdout, views.EmptyHint)
}

func TestProjectAddDuplicateSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	cli.MustExecute("project", "add", "Work")
	_, stderr := cli.ExecuteAndFail("project", "add", "work")

	testutil.AssertContains(t, stderr, `"work" is already used`)
	testutil.AssertContains(t, stderr, "Suggestion:")

	stdout := cli.MustExecute("project", "list")
	if n := strings.Count(strings.ToLower(stdout), "work"); n != 1 {
		t.Errorf("expected a single Work project, found %d:\n%s", n, stdout)
	}
}

func TestProjectAddBlankSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	_, stderr := cli.ExecuteAndFail("project", "add", " ")

	testutil.AssertContains(t, stderr, "project name cannot be empty")
}

func TestProjectSelectSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("project", "select", "Project A")
	testutil.AssertContains(t, stdout, "Active project: Project A")

	stdout = cli.MustExecute("show")
	testutil.AssertContains(t, stdout, "* Project A")
	testutil.AssertContains(t, stdout, "Review quarterly data")

	_, stderr := cli.ExecuteAndFail("project", "select", "Nowhere")
	testutil.AssertContains(t, stderr, "project not found")
}

func TestProjectDeleteCascadesSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	cli.MustExecute("todo", "add", "Extra", "--project", "proj-a")
	stdout := cli.MustExecute("project", "delete", "Project A")
	testutil.AssertContains(t, stdout, `Deleted project "Project A"`)
	testutil.AssertResultCode(t, stdout, testutil.ResultActionCompleted)

	stdout = cli.MustExecute("project", "list")
	testutil.AssertNotContains(t, stdout, "Project A")

	_, stderr := cli.ExecuteAndFail("todo", "done", "Review quarterly data")
	testutil.AssertContains(t, stderr, "todo not found")
	_, stderr = cli.ExecuteAndFail("todo", "done", "Extra")
	testutil.AssertContains(t, stderr, "todo not found")
}

func TestProjectDeleteActiveFallsBackToInboxSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	cli.MustExecute("project", "select", "Project B")
	cli.MustExecute("project", "delete", "Project B")

	stdout := cli.MustExecute("show")
	testutil.AssertContains(t, stdout, "* Inbox")
	testutil.AssertContains(t, stdout, "Prepare presentation")
}

func TestProjectDeleteInboxSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	_, stderr := cli.ExecuteAndFail("project", "delete", "Inbox")

	testutil.AssertContains(t, stderr, "Inbox project cannot be deleted")
}

func TestProjectDeleteUnknownSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	_, stderr := cli.ExecuteAndFail("project", "delete", "Nowhere")

	testutil.AssertContains(t, stderr, "project not found: Nowhere")
}

func TestProjectDeleteConfirmationSQLiteCLI(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		cli := testutil.NewCLITest(t)
		cli.SetInteractive("n\n")

		stdout := cli.MustExecute("project", "delete", "Project A")

		testutil.AssertContains(t, stdout, `Delete project "Project A" and its 1 todo(s)?`)
		testutil.AssertContains(t, stdout, "Cancelled")
		testutil.AssertContains(t, cli.MustExecute("project", "list"), "Project A")
	})

	t.Run("accepted", func(t *testing.T) {
		cli := testutil.NewCLITest(t)
		cli.SetInteractive("y\n")

		stdout := cli.MustExecute("project", "delete", "Project A")

		testutil.AssertContains(t, stdout, `Deleted project "Project A"`)
		testutil.AssertNotContains(t, cli.MustExecute("project", "list"), "Project A")
	})

	t.Run("no input", func(t *testing.T) {
		cli := testutil.NewCLITest(t)
		cli.SetInteractive("")

		stdout := cli.MustExecute("project", "delete", "Project A")

		testutil.AssertContains(t, stdout, "Cancelled")
	})
}

// =============================================================================
// Offline Tests
// =============================================================================

func TestOfflineMutationsAreNoOpsSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)
	cli.MustExecute("todo", "add", "Keep me")
	cli.SetOffline(true)

	commands := [][]string{
		{"todo", "add", "Buy milk"},
		{"todo", "done", "Keep me"},
		{"todo", "delete", "Keep me"},
		{"project", "add", "Work"},
		{"project", "select", "Project A"},
		{"project", "delete", "Project A"},
		{"project", "delete", "Inbox"},
		{"reset"},
	}
	for _, args := range commands {
		stdout := cli.MustExecute(args...)
		testutil.AssertContains(t, stdout, "Offline: read-only mode, nothing changed")
		testutil.AssertResultCode(t, stdout, testutil.ResultInfoOnly)
	}

	stdout := cli.MustExecute("show")
	testutil.AssertContains(t, stdout, "Offline")

	cli.SetOffline(false)
	stdout = cli.MustExecute("show")
	testutil.AssertContains(t, stdout, "[ ] Keep me")
	testutil.AssertContains(t, stdout, "* Inbox")
	testutil.AssertNotContains(t, stdout, "Buy milk")
	testutil.AssertNotContains(t, stdout, "Work")
	testutil.AssertContains(t, stdout, "Project A")
}

func TestNetworkCommandsSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("network", "status")
	testutil.AssertContains(t, stdout, "Network: Online")
	testutil.AssertContains(t, stdout, "Mode: auto")

	stdout = cli.MustExecute("network", "offline")
	testutil.AssertContains(t, stdout, "Network: Offline")
	testutil.AssertResultCode(t, stdout, testutil.ResultActionCompleted)

	stdout = cli.MustExecute("todo", "add", "Buy milk")
	testutil.AssertContains(t, stdout, "Offline: read-only mode")

	stdout = cli.MustExecute("--json", "network", "status")
	var status struct {
		Online     bool   `json:"online"`
		Mode       string `json:"mode"`
		StatusFile string `json:"status_file"`
	}
	if err := json.Unmarshal([]byte(stdout), &status); err != nil {
		t.Fatalf("invalid JSON: %s (%v)", stdout, err)
	}
	if status.Online || status.Mode != "auto" || status.StatusFile != cli.StatusFile() {
		t.Errorf("unexpected status: %+v", status)
	}

	stdout = cli.MustExecute("network", "online")
	testutil.AssertContains(t, stdout, "Network: Online")
	cli.MustExecute("todo", "add", "Buy milk")
	testutil.AssertContains(t, cli.MustExecute("show"), "Buy milk")
}

func TestNetworkFixedModeWarnsSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)
	cli.SetFullConfig("storage:\n  backend: sqlite\n  path: " + cli.TmpDir() + "/state.db\n" +
		"network:\n  mode: online\n  status_file: " + cli.StatusFile() + "\n" +
		"logging:\n  background_enabled: false\n")

	stdout, stderr, code := cli.Execute("network", "offline")

	testutil.AssertExitCode(t, code, 0)
	testutil.AssertContains(t, stderr, "network.mode is \"online\"")
	testutil.AssertContains(t, stdout, "Network: Online")
}

// =============================================================================
// Reset and Ephemeral Tests
// =============================================================================

func TestResetSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	cli.MustExecute("project", "add", "Work")
	stdout := cli.MustExecute("reset")
	testutil.AssertContains(t, stdout, "State cleared")

	stdout = cli.MustExecute("show")
	testutil.AssertNotContains(t, stdout, "Work")
	testutil.AssertContains(t, stdout, "* Inbox")
}

func TestEphemeralDoesNotPersistSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	stdout := cli.MustExecute("--ephemeral", "todo", "add", "Scratch")
	testutil.AssertContains(t, stdout, "Scratch")

	stdout = cli.MustExecute("show")
	testutil.AssertNotContains(t, stdout, "Scratch")
}

func TestShowReportsSaveTimeSQLiteCLI(t *testing.T) {
	cli := testutil.NewCLITest(t)

	testutil.AssertNotContains(t, cli.MustExecute("show"), "saved")

	cli.MustExecute("todo", "add", "Buy milk")
	testutil.AssertContains(t, cli.MustExecute("show"), "· saved ")
}
