// Package persist stores the whole application state as a single JSON blob
// in a key-value store, falling back to a seed state when nothing usable is
// stored.
package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"thingsish/backend"
	"thingsish/internal/utils"
)

// StorageKey is the key the state blob is stored under.
const StorageKey = "thingsish:v1"

// Adapter loads and saves backend.State through a KVStore.
type Adapter struct {
	store backend.KVStore
}

// New creates an Adapter over store.
func New(store backend.KVStore) *Adapter {
	return &Adapter{store: store}
}

// Load returns the stored state. A missing, unreadable or malformed blob
// yields a fresh copy of DefaultSeed; Load never fails.
func (a *Adapter) Load(ctx context.Context) backend.State {
	raw, ok, err := a.store.Get(ctx, StorageKey)
	if err != nil {
		utils.Debugf("persist: read %s failed, using seed: %v", StorageKey, err)
		return DefaultSeed()
	}
	if !ok {
		utils.Debugf("persist: no stored state, using seed")
		return DefaultSeed()
	}

	state, err := Decode(raw)
	if err != nil {
		utils.Debugf("persist: stored state unreadable, using seed: %v", err)
		return DefaultSeed()
	}
	return state
}

// Save serializes the full state and writes it synchronously.
func (a *Adapter) Save(ctx context.Context, state backend.State) error {
	raw, err := Encode(state)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Reset removes the stored blob so the next Load reseeds.
func (a *Adapter) Reset(ctx context.Context) error {
	if err := a.store.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("failed to reset state: %w", err)
	}
	return nil
}

// Encode serializes state to its stored form.
func Encode(state backend.State) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return raw, nil
}

// Decode parses a stored blob and repairs it. A blob that does not match the
// state schema, or that holds no projects at all, is rejected.
func Decode(raw []byte) (backend.State, error) {
	if err := Validate(raw); err != nil {
		return backend.State{}, fmt.Errorf("failed to decode state: %w", err)
	}
	var state backend.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return backend.State{}, fmt.Errorf("failed to decode state: %w", err)
	}
	if len(state.Projects) == 0 {
		return backend.State{}, fmt.Errorf("failed to decode state: no projects")
	}
	return Repair(state), nil
}

// Repair restores the state invariants on a decoded blob: the inbox exists
// and comes first if it had to be added, project ids are unique, every todo
// references an existing project, and the active project exists.
func Repair(state backend.State) backend.State {
	seen := make(map[string]bool, len(state.Projects))
	projects := make([]backend.Project, 0, len(state.Projects)+1)
	for _, p := range state.Projects {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		projects = append(projects, p)
	}
	if !seen[backend.InboxID] {
		projects = append([]backend.Project{{ID: backend.InboxID, Name: "Inbox"}}, projects...)
		seen[backend.InboxID] = true
	}
	state.Projects = projects

	todos := make([]backend.Todo, 0, len(state.Todos))
	for _, t := range state.Todos {
		if t.ID == "" || !seen[t.ProjectID] {
			continue
		}
		todos = append(todos, t)
	}
	state.Todos = todos

	if !seen[state.ActiveProjectID] {
		state.ActiveProjectID = backend.InboxID
	}
	return state
}

// DefaultSeed returns a new seed state. Each call returns independent slices
// and fresh todo ids.
func DefaultSeed() backend.State {
	due := backend.Date{Year: 2026, Month: 1, Day: 20}
	return backend.State{
		Projects: []backend.Project{
			{ID: backend.InboxID, Name: "Inbox"},
			{ID: "proj-a", Name: "Project A"},
			{ID: "proj-b", Name: "Project B"},
		},
		Todos: []backend.Todo{
			{ID: backend.GenerateID(), ProjectID: backend.InboxID, Title: "Prepare presentation", Due: &due},
			{ID: backend.GenerateID(), ProjectID: "proj-a", Title: "Review quarterly data"},
		},
		ActiveProjectID: backend.InboxID,
	}
}
