package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"thingsish/backend"
	_ "thingsish/backend/file"
	_ "thingsish/backend/memory"
	_ "thingsish/backend/sqlite"
	"thingsish/internal/config"
	"thingsish/internal/engine"
	"thingsish/internal/network"
	"thingsish/internal/persist"
	"thingsish/internal/shutdown"
	"thingsish/internal/tui"
	"thingsish/internal/utils"
	"thingsish/internal/views"
)

// Build information, set at build time
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// Result codes for CLI output (used in no-prompt mode)
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// cleanupTimeout bounds how long an interactive session waits for cleanups.
const cleanupTimeout = 2 * time.Second

// OfflineNotice is printed when a mutation is refused because writes are disabled.
const OfflineNotice = "Offline: read-only mode, nothing changed"

// Config holds application configuration
type Config struct {
	NoPrompt     bool
	Verbose      bool
	OutputFormat string
	ConfigPath   string    // Path to config file (empty: XDG default)
	StorePath    string    // Overrides storage.path (for testing)
	StatusFile   string    // Overrides network.status_file (for testing)
	Ephemeral    bool      // Use the memory store for this invocation
	Stdin        io.Reader // Source for confirmation prompts (default os.Stdin)
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewThingsish(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		// Check if --json flag was passed to output error as JSON
		if containsJSONFlag(args) {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			// Emit ERROR result code in no-prompt mode
			if cfg != nil && cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultError)
			}
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewThingsish creates the root command with injectable IO
func NewThingsish(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "thingsish",
		Short:   "An offline-aware todo and project manager",
		Long:    "thingsish keeps todos grouped in projects. Without a subcommand it opens the interactive view when attached to a terminal.",
		Version: Version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			applyGlobalFlags(cmd, cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTerminal(stdout) {
				return runTUI(cmd.Context(), cfg, stdout)
			}
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doShow(cmd.Context(), s, "", false, stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cmd.PersistentFlags().String("config", "", "Path to config file")
	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().Bool("ephemeral", false, "Keep state in memory only for this invocation")

	cmd.AddCommand(newShowCmd(stdout, cfg))
	cmd.AddCommand(newProjectCmd(stdout, cfg))
	cmd.AddCommand(newTodoCmd(stdout, cfg))
	cmd.AddCommand(newNetworkCmd(stdout, stderr, cfg))
	cmd.AddCommand(newResetCmd(stdout, cfg))
	cmd.AddCommand(newVersionCmd(stdout, cfg))

	return cmd
}

// applyGlobalFlags copies persistent flag values into cfg
func applyGlobalFlags(cmd *cobra.Command, cfg *Config) {
	if noPrompt, _ := cmd.Flags().GetBool("no-prompt"); noPrompt {
		cfg.NoPrompt = true
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Verbose = true
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		cfg.OutputFormat = "json"
	}
	if ephemeral, _ := cmd.Flags().GetBool("ephemeral"); ephemeral {
		cfg.Ephemeral = true
	}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg.ConfigPath = path
	}
	utils.SetVerboseMode(cfg.Verbose)
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// loadConfig reads the config file and applies CLI overrides
func loadConfig(cfg *Config) (*config.Config, error) {
	appCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	appCfg.ApplyFlags(cfg.NoPrompt, cfg.OutputFormat)
	if cfg.Ephemeral {
		appCfg.Storage.Backend = "memory"
		appCfg.Storage.Path = ""
	} else if cfg.StorePath != "" {
		appCfg.Storage.Path = cfg.StorePath
	}
	if cfg.StatusFile != "" {
		appCfg.Network.StatusFile = cfg.StatusFile
	}
	if err := appCfg.Validate(); err != nil {
		return nil, err
	}
	// Config may request no_prompt even when the flag is absent
	cfg.NoPrompt = appCfg.NoPrompt
	return appCfg, nil
}

// session bundles everything a single command needs
type session struct {
	cfg    *Config
	app    *config.Config
	store  backend.KVStore
	state  *persist.Adapter
	engine *engine.Engine
}

func (s *session) json() bool {
	return s.app.OutputFormat == "json"
}

// openSession loads config, opens the store and restores state. Connectivity is
// taken as a snapshot; one-shot commands do not watch for transitions.
func openSession(ctx context.Context, cfg *Config) (*session, error) {
	appCfg, err := loadConfig(cfg)
	if err != nil {
		return nil, err
	}
	return openSessionWith(ctx, cfg, appCfg, network.NewMonitor(network.Snapshot(appCfg)))
}

func openSessionWith(ctx context.Context, cfg *Config, appCfg *config.Config, net engine.Connectivity) (*session, error) {
	store, err := openStore(appCfg)
	if err != nil {
		return nil, err
	}
	adapter := persist.New(store)
	state := adapter.Load(ctx)
	utils.Debugf("Loaded %d projects and %d todos from %s store", len(state.Projects), len(state.Todos), appCfg.Storage.Backend)

	return &session{
		cfg:    cfg,
		app:    appCfg,
		store:  store,
		state:  adapter,
		engine: engine.New(state, net, adapter),
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// withSession opens a session, runs fn and closes the store
func withSession(ctx context.Context, cfg *Config, fn func(s *session) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	return fn(s)
}

// openStore opens the configured KV store
func openStore(appCfg *config.Config) (backend.KVStore, error) {
	known := false
	for _, name := range backend.Registered() {
		if name == appCfg.Storage.Backend {
			known = true
			break
		}
	}
	if !known {
		return nil, utils.ErrUnknownStorage(appCfg.Storage.Backend)
	}
	store, err := backend.Open(appCfg.Storage.Backend, appCfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", appCfg.Storage.Backend, err)
	}
	return store, nil
}

// modifiedReporter is implemented by stores that track write times
type modifiedReporter interface {
	Modified(ctx context.Context, key string) (time.Time, bool, error)
}

// =============================================================================
// Outcome reporting
// =============================================================================

type projectJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type todoJSON struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	Due       string `json:"due,omitempty"`
	Done      bool   `json:"done"`
}

type actionResponse struct {
	Action  string       `json:"action"`
	Project *projectJSON `json:"project,omitempty"`
	Todo    *todoJSON    `json:"todo,omitempty"`
	Online  *bool        `json:"online,omitempty"`
	Message string       `json:"message,omitempty"`
	Result  string       `json:"result"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   int    `json:"code"`
	Result string `json:"result"`
}

// outputJSON marshals v on a single line
func outputJSON(v any, stdout io.Writer) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	_ = outputJSON(errorResponse{
		Error:  err.Error(),
		Code:   1,
		Result: ResultError,
	}, stdout)
}

// printResultCode emits a result code in no-prompt mode
func printResultCode(s *session, stdout io.Writer, code string) {
	if s.cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, code)
	}
}

// reportInfo prints an informational outcome that changed nothing
func reportInfo(s *session, stdout io.Writer, action, message string) error {
	if s.json() {
		return outputJSON(actionResponse{Action: action, Message: message, Result: ResultInfoOnly}, stdout)
	}
	_, _ = fmt.Fprintln(stdout, message)
	printResultCode(s, stdout, ResultInfoOnly)
	return nil
}

// reportAction prints a completed mutation
func reportAction(s *session, stdout io.Writer, resp actionResponse, message string) error {
	resp.Result = ResultActionCompleted
	if s.json() {
		return outputJSON(resp, stdout)
	}
	_, _ = fmt.Fprintln(stdout, message)
	printResultCode(s, stdout, ResultActionCompleted)
	return nil
}

// skipped handles outcomes that are not errors but change nothing. It
// returns true when the outcome has been reported.
func skipped(s *session, stdout io.Writer, action string, res engine.Result) (bool, error) {
	switch res.Outcome {
	case engine.Offline:
		return true, reportInfo(s, stdout, action, OfflineNotice)
	case engine.Unconfirmed:
		return true, reportInfo(s, stdout, action, "Cancelled")
	}
	return false, nil
}

// =============================================================================
// Lookups
// =============================================================================

// resolveProjectID maps a project id or name to its id. Unknown values are
// returned unchanged so the engine reports them.
func resolveProjectID(state backend.State, ref string) string {
	ref = strings.TrimSpace(ref)
	if p := state.FindProject(ref); p != nil {
		return p.ID
	}
	if p := backend.FindProjectByName(state.Projects, ref); p != nil {
		return p.ID
	}
	return ref
}

// resolveTodoID maps a todo id, unique id prefix or unique title to its id.
func resolveTodoID(state backend.State, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	var byPrefix, byTitle []string
	for _, t := range state.Todos {
		if t.ID == ref {
			return t.ID, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(t.ID, ref) {
			byPrefix = append(byPrefix, t.ID)
		}
		if strings.EqualFold(t.Title, ref) {
			byTitle = append(byTitle, t.ID)
		}
	}
	switch {
	case len(byPrefix) == 1:
		return byPrefix[0], nil
	case len(byTitle) == 1:
		return byTitle[0], nil
	case len(byPrefix) > 1 || len(byTitle) > 1:
		return "", utils.WrapWithSuggestion(
			fmt.Errorf("%q matches more than one todo", ref),
			"Use the todo id shown by 'thingsish show'")
	}
	return ref, nil
}

func findTodo(state backend.State, id string) (backend.Todo, bool) {
	for _, t := range state.Todos {
		if t.ID == id {
			return t, true
		}
	}
	return backend.Todo{}, false
}

func toTodoJSON(t backend.Todo) *todoJSON {
	out := &todoJSON{ID: t.ID, ProjectID: t.ProjectID, Title: t.Title, Done: t.Done}
	if t.Due != nil {
		out.Due = t.Due.String()
	}
	return out
}

// =============================================================================
// show
// =============================================================================

func newShowCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show [project]",
		Short: "Show projects and todos",
		Long:  "Show the project list and the todos of the active project, or of the named project without selecting it.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			markdown, _ := cmd.Flags().GetBool("markdown")
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doShow(cmd.Context(), s, ref, markdown, stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	showCmd.Flags().Bool("markdown", false, "Print the todos as a Markdown task list")
	return showCmd
}

// doShow renders the view model. A project reference only changes what is
// displayed, never the stored selection.
func doShow(ctx context.Context, s *session, ref string, markdown bool, stdout io.Writer) error {
	state := s.engine.State()
	if ref != "" {
		id := resolveProjectID(state, ref)
		if state.FindProject(id) == nil {
			return utils.ErrProjectNotFound(ref)
		}
		state.ActiveProjectID = id
	}

	vm := views.Project(state)
	if markdown && !s.json() {
		return writeMarkdown(s, vm, stdout)
	}
	if err := views.NewRenderer(stdout, s.json()).Render(vm); err != nil {
		return err
	}
	if s.json() {
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "\n%s", network.Badge(s.engine.IsOnline()))
	if mr, ok := s.store.(modifiedReporter); ok {
		if at, found, err := mr.Modified(ctx, persist.StorageKey); err == nil && found {
			_, _ = fmt.Fprintf(stdout, " · saved %s", at.Local().Format("2006-01-02 15:04"))
		}
	}
	_, _ = fmt.Fprintln(stdout)
	printResultCode(s, stdout, ResultInfoOnly)
	return nil
}

// writeMarkdown prints raw Markdown, styled when stdout is a terminal
func writeMarkdown(s *session, vm views.ViewModel, stdout io.Writer) error {
	md := views.Markdown(vm)
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil {
			width = 80
		}
		styled, err := views.StyleMarkdown(md, width)
		if err != nil {
			return err
		}
		md = styled
	}
	_, _ = fmt.Fprint(stdout, md)
	printResultCode(s, stdout, ResultInfoOnly)
	return nil
}

// =============================================================================
// project
// =============================================================================

func newProjectCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
		Long:  "List projects or manage them with subcommands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doProjectList(s, stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	projectCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects with todo counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doProjectList(s, stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})
	projectCmd.AddCommand(&cobra.Command{
		Use:   "add [name]",
		Short: "Create a project and make it active",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doProjectAdd(cmd.Context(), s, strings.Join(args, " "), stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})
	projectCmd.AddCommand(&cobra.Command{
		Use:   "select [project]",
		Short: "Make a project active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doProjectSelect(cmd.Context(), s, args[0], stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})
	projectCmd.AddCommand(&cobra.Command{
		Use:   "delete [project]",
		Short: "Delete a project and all of its todos",
		Long:  "Delete a project and every todo it contains. Asks for confirmation unless --no-prompt is set. The Inbox cannot be deleted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doProjectDelete(cmd.Context(), s, args[0], stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return projectCmd
}

func doProjectList(s *session, stdout io.Writer) error {
	vm := views.Project(s.engine.State())
	if err := views.NewRenderer(stdout, s.json()).RenderProjects(vm); err != nil {
		return err
	}
	if !s.json() {
		printResultCode(s, stdout, ResultInfoOnly)
	}
	return nil
}

func doProjectAdd(ctx context.Context, s *session, name string, stdout io.Writer) error {
	res, err := s.engine.AddProject(ctx, name)
	if err != nil {
		return err
	}
	if done, err := skipped(s, stdout, "add_project", res); done {
		return err
	}

	switch res.Outcome {
	case engine.Invalid:
		return utils.ErrEmptyInput("project name")
	case engine.Duplicate:
		return utils.ErrDuplicateProject(strings.TrimSpace(name))
	}

	p, _ := s.engine.Project(res.ID)
	return reportAction(s, stdout,
		actionResponse{Action: "add_project", Project: &projectJSON{ID: p.ID, Name: p.Name}},
		fmt.Sprintf("Created project %q (%s)", p.Name, p.ID))
}

func doProjectSelect(ctx context.Context, s *session, ref string, stdout io.Writer) error {
	id := resolveProjectID(s.engine.State(), ref)
	res, err := s.engine.SelectProject(ctx, id)
	if err != nil {
		return err
	}
	if done, err := skipped(s, stdout, "select_project", res); done {
		return err
	}
	if res.Outcome == engine.NotFound {
		return utils.ErrProjectNotFound(ref)
	}

	p, _ := s.engine.Project(id)
	return reportAction(s, stdout,
		actionResponse{Action: "select_project", Project: &projectJSON{ID: p.ID, Name: p.Name}},
		fmt.Sprintf("Active project: %s", p.Name))
}

func doProjectDelete(ctx context.Context, s *session, ref string, stdout io.Writer) error {
	id := resolveProjectID(s.engine.State(), ref)
	p, exists := s.engine.Project(id)

	confirmed := s.cfg.NoPrompt
	if !confirmed && exists && id != backend.InboxID && s.engine.IsOnline() {
		in := s.cfg.Stdin
		if in == nil {
			in = os.Stdin
		}
		n := s.engine.State().CountTodos(id)
		confirmed = utils.PromptYesNoWithReader(
			fmt.Sprintf("Delete project %q and its %d todo(s)?", p.Name, n), in, stdout)
	}

	res, err := s.engine.DeleteProject(ctx, id, confirmed)
	if err != nil {
		return err
	}
	if done, err := skipped(s, stdout, "delete_project", res); done {
		return err
	}

	switch res.Outcome {
	case engine.Protected:
		return utils.ErrInboxProtected()
	case engine.NotFound:
		return utils.ErrProjectNotFound(ref)
	}

	return reportAction(s, stdout,
		actionResponse{Action: "delete_project", Project: &projectJSON{ID: p.ID, Name: p.Name}},
		fmt.Sprintf("Deleted project %q", p.Name))
}

// =============================================================================
// todo
// =============================================================================

func newTodoCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	todoCmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage todos",
		Long:  "Add, complete, reopen or delete todos.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addCmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a todo",
		Long:  "Add a todo to the active project, or to --project. Due dates accept YYYY-MM-DD, today, tomorrow, +Nd, +Nw and +Nm.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetString("project")
			due, _ := cmd.Flags().GetString("due")
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doTodoAdd(cmd.Context(), s, project, strings.Join(args, " "), due, time.Now(), stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addCmd.Flags().StringP("project", "p", "", "Project id or name (default: active project)")
	addCmd.Flags().String("due", "", "Due date")
	todoCmd.AddCommand(addCmd)

	todoCmd.AddCommand(newTodoToggleCmd(stdout, cfg, "done", "Mark a todo as done", true))
	todoCmd.AddCommand(newTodoToggleCmd(stdout, cfg, "undo", "Mark a todo as not done", false))
	todoCmd.AddCommand(&cobra.Command{
		Use:   "delete [todo]",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doTodoDelete(cmd.Context(), s, args[0], stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return todoCmd
}

func newTodoToggleCmd(stdout io.Writer, cfg *Config, use, short string, done bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [todo]",
		Short: short,
		Long:  short + ". The todo may be given by id, id prefix or exact title.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doTodoToggle(cmd.Context(), s, args[0], done, stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func doTodoAdd(ctx context.Context, s *session, projectRef, title, dueStr string, now time.Time, stdout io.Writer) error {
	state := s.engine.State()
	projectID := state.ActiveProjectID
	if projectRef != "" {
		projectID = resolveProjectID(state, projectRef)
	}

	due, err := utils.ParseDueDate(dueStr, now)
	if err != nil {
		return err
	}

	res, err := s.engine.AddTodo(ctx, projectID, title, due)
	if err != nil {
		return err
	}
	if done, err := skipped(s, stdout, "add_todo", res); done {
		return err
	}

	switch res.Outcome {
	case engine.Invalid:
		return utils.ErrEmptyInput("title")
	case engine.NotFound:
		return utils.ErrProjectNotFound(projectRef)
	}

	t, _ := findTodo(s.engine.State(), res.ID)
	p, _ := s.engine.Project(t.ProjectID)
	return reportAction(s, stdout,
		actionResponse{Action: "add_todo", Todo: toTodoJSON(t)},
		fmt.Sprintf("Added %q to %s (%s)", t.Title, p.Name, views.FormatDue(t.Due)))
}

func doTodoToggle(ctx context.Context, s *session, ref string, done bool, stdout io.Writer) error {
	id, err := resolveTodoID(s.engine.State(), ref)
	if err != nil {
		return err
	}

	res, err := s.engine.ToggleTodoDone(ctx, id, done)
	if err != nil {
		return err
	}
	if skip, err := skipped(s, stdout, "toggle_todo", res); skip {
		return err
	}
	if res.Outcome == engine.NotFound {
		return utils.ErrTodoNotFound(ref)
	}

	t, _ := findTodo(s.engine.State(), id)
	verb := "Reopened"
	if done {
		verb = "Completed"
	}
	return reportAction(s, stdout,
		actionResponse{Action: "toggle_todo", Todo: toTodoJSON(t)},
		fmt.Sprintf("%s %q", verb, t.Title))
}

func doTodoDelete(ctx context.Context, s *session, ref string, stdout io.Writer) error {
	state := s.engine.State()
	id, err := resolveTodoID(state, ref)
	if err != nil {
		return err
	}
	t, _ := findTodo(state, id)

	res, err := s.engine.DeleteTodo(ctx, id)
	if err != nil {
		return err
	}
	if skip, err := skipped(s, stdout, "delete_todo", res); skip {
		return err
	}
	if res.Outcome == engine.NotFound {
		return utils.ErrTodoNotFound(ref)
	}

	return reportAction(s, stdout,
		actionResponse{Action: "delete_todo", Todo: toTodoJSON(t)},
		fmt.Sprintf("Deleted %q", t.Title))
}

// =============================================================================
// network
// =============================================================================

func newNetworkCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	networkCmd := &cobra.Command{
		Use:   "network",
		Short: "Show or change connectivity",
		Long:  "Show the connectivity state, or toggle the offline flag file that running sessions watch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doNetworkStatus(cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	networkCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the connectivity state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doNetworkStatus(cfg, stdout)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})
	networkCmd.AddCommand(&cobra.Command{
		Use:   "online",
		Short: "Clear the offline flag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doNetworkSet(cfg, false, stdout, stderr)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})
	networkCmd.AddCommand(&cobra.Command{
		Use:   "offline",
		Short: "Set the offline flag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doNetworkSet(cfg, true, stdout, stderr)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return networkCmd
}

type networkStatusJSON struct {
	Online     bool   `json:"online"`
	Mode       string `json:"mode"`
	StatusFile string `json:"status_file"`
	Result     string `json:"result"`
}

func doNetworkStatus(cfg *Config, stdout io.Writer) error {
	appCfg, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	online := network.Snapshot(appCfg)

	if appCfg.OutputFormat == "json" {
		return outputJSON(networkStatusJSON{
			Online:     online,
			Mode:       appCfg.Network.Mode,
			StatusFile: appCfg.Network.StatusFile,
			Result:     ResultInfoOnly,
		}, stdout)
	}

	_, _ = fmt.Fprintf(stdout, "Network: %s\n", network.Badge(online))
	_, _ = fmt.Fprintf(stdout, "Mode: %s\n", appCfg.Network.Mode)
	_, _ = fmt.Fprintf(stdout, "Status file: %s\n", appCfg.Network.StatusFile)
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
	return nil
}

func doNetworkSet(cfg *Config, offline bool, stdout, stderr io.Writer) error {
	appCfg, err := loadConfig(cfg)
	if err != nil {
		return err
	}
	if err := network.SetOffline(appCfg.Network.StatusFile, offline); err != nil {
		return err
	}
	if appCfg.Network.Mode != config.NetworkAuto {
		_, _ = fmt.Fprintf(stderr, "Warning: network.mode is %q, the flag file is ignored until it is set to %q\n",
			appCfg.Network.Mode, config.NetworkAuto)
	}

	online := network.Snapshot(appCfg)
	if appCfg.OutputFormat == "json" {
		return outputJSON(actionResponse{Action: "set_network", Online: &online, Result: ResultActionCompleted}, stdout)
	}
	_, _ = fmt.Fprintf(stdout, "Network: %s\n", network.Badge(online))
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultActionCompleted)
	}
	return nil
}

// =============================================================================
// reset
// =============================================================================

func newResetCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard stored state",
		Long:  "Delete the stored state. The next start reseeds the default projects.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), cfg, func(s *session) error {
				return doReset(cmd.Context(), s, stdout)
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func doReset(ctx context.Context, s *session, stdout io.Writer) error {
	if !s.engine.IsOnline() {
		return reportInfo(s, stdout, "reset", OfflineNotice)
	}
	if !s.cfg.NoPrompt {
		in := s.cfg.Stdin
		if in == nil {
			in = os.Stdin
		}
		if !utils.PromptYesNoWithReader("Delete all projects and todos?", in, stdout) {
			return reportInfo(s, stdout, "reset", "Cancelled")
		}
	}
	if err := s.state.Reset(ctx); err != nil {
		return err
	}
	return reportAction(s, stdout, actionResponse{Action: "reset"}, "State cleared")
}

// =============================================================================
// version
// =============================================================================

type versionJSON struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func newVersionCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			jsonOutput := cfg.OutputFormat == "json"

			if jsonOutput {
				return outputJSON(versionJSON{
					Version:   Version,
					Commit:    Commit,
					BuildDate: BuildDate,
					GoVersion: runtime.Version(),
					Platform:  runtime.GOOS + "/" + runtime.GOARCH,
				}, stdout)
			}

			_, _ = fmt.Fprintf(stdout, "Version: %s\n", Version)
			_, _ = fmt.Fprintf(stdout, "Commit: %s\n", Commit)
			_, _ = fmt.Fprintf(stdout, "Built: %s\n", BuildDate)
			if verbose {
				_, _ = fmt.Fprintf(stdout, "Go Version: %s\n", runtime.Version())
				_, _ = fmt.Fprintf(stdout, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	versionCmd.Flags().BoolP("verbose", "v", false, "Show build environment details")
	return versionCmd
}

// =============================================================================
// TUI
// =============================================================================

// runTUI starts the interactive session. Connectivity transitions from the
// flag file watcher are delivered to the program as messages.
func runTUI(ctx context.Context, cfg *Config, stdout io.Writer) (err error) {
	appCfg, err := loadConfig(cfg)
	if err != nil {
		return err
	}

	mgr := shutdown.NewManager(ctx)
	stopSignals := mgr.HandleSignals(syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	defer func() {
		waitCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if cerr := mgr.Wait(waitCtx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	monitor, source, err := network.FromConfig(appCfg)
	if err != nil {
		return err
	}
	mgr.RegisterCleanup("status watcher", func(context.Context) error { return source.Close() })

	s, err := openSessionWith(mgr.Context(), cfg, appCfg, monitor)
	if err != nil {
		return err
	}
	mgr.RegisterCleanup("store", func(context.Context) error { return s.Close() })

	bl, blErr := utils.NewBackgroundLoggerWithEnabled(appCfg.IsBackgroundLoggingEnabled())
	if blErr != nil {
		utils.Warnf("Background logging disabled: %v", blErr)
	}
	utils.GetLogger().SetOutput(bl.Writer())
	mgr.RegisterCleanup("logger", func(context.Context) error {
		utils.GetLogger().SetOutput(nil)
		bl.Close()
		return nil
	})

	model := tui.New(s.engine)
	model.SetLogger(bl)
	model.SetDrawerBreakpoint(appCfg.GetDrawerBreakpoint())

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithOutput(stdout),
		tea.WithContext(mgr.Context()),
		tea.WithoutSignalHandler(),
	)
	unsubscribe := tui.Subscribe(p, monitor)
	defer unsubscribe()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("interactive session failed: %w", err)
	}
	return nil
}
