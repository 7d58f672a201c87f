// Package actions holds the server-side actions advertised to the upstream
// engine alongside each dispatched request.
//
// Actions are registered once at startup and looked up by name when the
// engine calls back through the action endpoint. The registry is read-only
// after startup.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
)

// Parameter describes one argument of an action
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Definition is the engine-facing description of an action
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"argumentAnnotations"`
}

// Executor runs an action. args is the raw JSON object sent by the engine.
type Executor func(ctx context.Context, args json.RawMessage) (string, error)

// Action pairs a definition with its executor
type Action struct {
	Definition Definition
	Execute    Executor
}

// Registry maps action names to actions, preserving registration order
type Registry struct {
	actions map[string]Action
	order   []string
}

// NewRegistry creates an empty action registry
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds an action. Registering an existing name replaces it in place.
func (r *Registry) Register(action Action) {
	name := action.Definition.Name
	if _, exists := r.actions[name]; !exists {
		r.order = append(r.order, name)
	}
	r.actions[name] = action
}

// Lookup returns the named action
func (r *Registry) Lookup(name string) (Action, bool) {
	if r == nil {
		return Action{}, false
	}
	action, ok := r.actions[name]
	return action, ok
}

// Execute dispatches an action call by name
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (string, error) {
	action, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return action.Execute(ctx, args)
}

// Definitions returns the advertised definitions in registration order
func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	definitions := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		definitions = append(definitions, r.actions[name].Definition)
	}
	return definitions
}

// Names returns registered action names in registration order
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Len returns the number of registered actions
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}
