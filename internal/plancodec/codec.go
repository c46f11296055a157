// Package plancodec persists plans so they can be inspected, edited and
// performed later without searching again.
package plancodec

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/frametasks/internal/binder"
	"github.com/specialistvlad/frametasks/internal/planner"
	"github.com/specialistvlad/frametasks/internal/registry"
	"github.com/specialistvlad/frametasks/internal/task"
	"github.com/specialistvlad/frametasks/internal/variable"
)

// Format selects the encoding of a plan file.
type Format int

const (
	JSON Format = iota
	YAML
)

func (f Format) String() string {
	if f == YAML {
		return "yaml"
	}
	return "json"
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return JSON, fmt.Errorf("unsupported plan file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// Document is a stored plan: the column groups it was planned from, the goal
// and the actions.
type Document struct {
	ID      string
	Tables  [][]string
	Goal    [][]string
	Actions []planner.Action
}

// NewDocument wraps a plan under a fresh id.
func NewDocument(tables, goal [][]string, actions []planner.Action) Document {
	return Document{
		ID:      uuid.NewString(),
		Tables:  tables,
		Goal:    goal,
		Actions: actions,
	}
}

// Marshal serializes a document with stable field names.
func Marshal(doc Document, format Format) ([]byte, error) {
	payload := documentPayload{
		ID:      doc.ID,
		Tables:  doc.Tables,
		Goal:    doc.Goal,
		Actions: make([]actionPayload, 0, len(doc.Actions)),
	}
	for _, a := range doc.Actions {
		payload.Actions = append(payload.Actions, actionPayloadFromPlan(a))
	}
	if format == YAML {
		return yaml.Marshal(payload)
	}
	return json.MarshalIndent(payload, "", "  ")
}

// Unmarshal parses a persisted plan. Identifiers are recompiled with the
// current case setting.
func Unmarshal(raw []byte, format Format) (Document, error) {
	var payload documentPayload
	var err error
	if format == YAML {
		err = yaml.Unmarshal(raw, &payload)
	} else {
		err = json.Unmarshal(raw, &payload)
	}
	if err != nil {
		return Document{}, fmt.Errorf("decode %s plan: %w", format, err)
	}

	actions := make([]planner.Action, 0, len(payload.Actions))
	for i, a := range payload.Actions {
		action, err := a.toPlan()
		if err != nil {
			return Document{}, fmt.Errorf("action %d (%s): %w", i, a.Task, err)
		}
		actions = append(actions, action)
	}
	return Document{
		ID:      payload.ID,
		Tables:  payload.Tables,
		Goal:    payload.Goal,
		Actions: actions,
	}, nil
}

// Check verifies that every action names a task in cat and only binds
// tables that exist at its point in the plan.
func (d Document) Check(cat planner.Catalog) error {
	state := planner.NewState(d.Tables)
	for i, a := range d.Actions {
		if _, ok := cat.Get(a.Task); !ok {
			return fmt.Errorf("action %d: %w: %q", i, registry.ErrUnknownTask, a.Task)
		}
		for _, src := range a.Binding.Sources() {
			if src < 0 || src >= len(state.Groups) {
				return fmt.Errorf("action %d (%s): binding refers to table %d, only %d available", i, a.Task, src, len(state.Groups))
			}
		}
		state = planner.Result(state, a)
	}
	return nil
}

type documentPayload struct {
	ID      string          `json:"id" yaml:"id"`
	Tables  [][]string      `json:"tables" yaml:"tables"`
	Goal    [][]string      `json:"goal" yaml:"goal"`
	Actions []actionPayload `json:"actions" yaml:"actions"`
}

type actionPayload struct {
	Task    string          `json:"task" yaml:"task"`
	Binding []entryPayload  `json:"binding" yaml:"binding"`
	Outputs []outputPayload `json:"outputs" yaml:"outputs"`
}

type entryPayload struct {
	Source     int    `json:"source" yaml:"source"`
	Variable   string `json:"variable" yaml:"variable"`
	Arg        string `json:"arg" yaml:"arg"`
	Identifier string `json:"identifier" yaml:"identifier"`
	Pattern    bool   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

type outputPayload struct {
	Group    *int   `json:"group,omitempty" yaml:"group,omitempty"`
	Variable string `json:"variable" yaml:"variable"`
}

func actionPayloadFromPlan(a planner.Action) actionPayload {
	p := actionPayload{
		Task:    a.Task,
		Binding: make([]entryPayload, 0, len(a.Binding)),
		Outputs: make([]outputPayload, 0, len(a.Outputs)),
	}
	for _, e := range a.Binding {
		p.Binding = append(p.Binding, entryPayload{
			Source:     e.Source,
			Variable:   e.Variable,
			Arg:        e.Arg,
			Identifier: e.Ident.Text(),
			Pattern:    e.Ident.Kind() == variable.Pattern,
		})
	}
	for _, o := range a.Outputs {
		out := outputPayload{Variable: o.Variable}
		if o.Group != task.NoGroup {
			g := o.Group
			out.Group = &g
		}
		p.Outputs = append(p.Outputs, out)
	}
	return p
}

func (p actionPayload) toPlan() (planner.Action, error) {
	a := planner.Action{
		Task:    p.Task,
		Binding: make(binder.Binding, 0, len(p.Binding)),
		Outputs: make([]task.Output, 0, len(p.Outputs)),
	}
	for _, e := range p.Binding {
		kind := variable.Literal
		if e.Pattern {
			kind = variable.Pattern
		}
		ident, err := variable.Compile(kind, e.Identifier)
		if err != nil {
			return planner.Action{}, err
		}
		a.Binding = append(a.Binding, binder.Entry{
			Key:   binder.Key{Source: e.Source, Variable: e.Variable},
			Arg:   e.Arg,
			Ident: ident,
		})
	}
	for _, o := range p.Outputs {
		group := task.NoGroup
		if o.Group != nil {
			if *o.Group < 0 {
				return planner.Action{}, fmt.Errorf("output %q has negative group %d", o.Variable, *o.Group)
			}
			group = *o.Group
		}
		a.Outputs = append(a.Outputs, task.Output{Group: group, Variable: o.Variable})
	}
	return a, nil
}
