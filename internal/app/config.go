package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/frametasks/internal/plancodec"
)

// Subcommands understood by App.Run.
const (
	CommandRun   = "run"
	CommandPlan  = "plan"
	CommandNext  = "next"
	CommandTasks = "tasks"
)

// Commands lists the subcommands in help order.
var Commands = []string{CommandRun, CommandPlan, CommandNext, CommandTasks}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command     string
	ModulesPath string   // hcl manifests
	TablePaths  []string // csv files, in group order
	Goal        [][]string

	OutPath string // csv result; stdout when empty
	PlanOut string // .json or .yaml
	PlanIn  string // .json or .yaml

	LogFormat string
	LogLevel  string

	MaxGenericRepeat int
	MaxStates        int
	IgnoreCase       bool
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if !slices.Contains(Commands, cfg.Command) {
		return nil, fmt.Errorf("unknown command %q: must be one of %v", cfg.Command, Commands)
	}

	switch cfg.Command {
	case CommandRun:
		if len(cfg.TablePaths) == 0 {
			return nil, errors.New("run needs at least one table file")
		}
		if len(cfg.Goal) == 0 && cfg.PlanIn == "" {
			return nil, errors.New("run needs a goal or a plan file")
		}
	case CommandPlan:
		if len(cfg.Goal) == 0 {
			return nil, errors.New("plan needs a goal")
		}
		if len(cfg.TablePaths) == 0 {
			return nil, errors.New("plan needs at least one table file")
		}
	case CommandNext:
		if len(cfg.TablePaths) == 0 && cfg.PlanIn == "" {
			return nil, errors.New("next needs table files or a plan file")
		}
	}

	for _, group := range cfg.Goal {
		if len(group) == 0 {
			return nil, errors.New("goal groups must not be empty")
		}
	}
	if cfg.MaxStates < 0 {
		return nil, errors.New("MaxStates must not be negative")
	}
	for _, path := range []string{cfg.PlanOut, cfg.PlanIn} {
		if path == "" {
			continue
		}
		if _, err := plancodec.FormatFromPath(path); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}
