package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/specialistvlad/frametasks/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// goalFlag collects repeated -goal flags. Each flag is one group of
// comma-separated variables that must end up in the same table.
type goalFlag [][]string

func (g *goalFlag) String() string {
	groups := make([]string, len(*g))
	for i, group := range *g {
		groups[i] = strings.Join(group, ",")
	}
	return strings.Join(groups, " ")
}

func (g *goalFlag) Set(value string) error {
	var group []string
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			group = append(group, name)
		}
	}
	if len(group) == 0 {
		return errors.New("goal must name at least one variable")
	}
	*g = append(*g, group)
	return nil
}

const usageHeader = `
frametasks - Plans and runs chains of table tasks to derive goal columns.

Usage:
  frametasks <command> [options] [TABLE.csv ...]

Commands:
  run     Plan for the goal (or load -plan-in) and execute it.
  plan    Print the plan for the goal without executing it.
  next    Print the actions applicable to the tables, after -plan-in if given.
  tasks   List the registered tasks.

Arguments:
  TABLE.csv
    Input tables, in order. Their position is the table index used in plans.

Options:
`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("frametasks", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageHeader)
		flagSet.PrintDefaults()
	}

	var goal goalFlag
	flagSet.Var(&goal, "goal", "Comma-separated goal variables of one table. Repeat for several tables.")
	modulesPathFlag := flagSet.String("modules-path", "modules", "Path to the directory containing task manifests.")
	outFlag := flagSet.String("out", "", "Write the result table as CSV to this path instead of stdout.")
	planOutFlag := flagSet.String("plan-out", "", "Save the plan to a .json or .yaml file.")
	planInFlag := flagSet.String("plan-in", "", "Load a plan from a .json or .yaml file instead of searching.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	repeatFlag := flagSet.Int("max-generic-repeat", 1, "How often one generic task may run in a plan. 0 disables the bound.")
	statesFlag := flagSet.Int("max-states", 0, "Stop searching after this many states. 0 is unbounded.")
	ignoreCaseFlag := flagSet.Bool("ignore-case", false, "Match variable identifiers case-insensitively.")

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" || args[0] == "-help" {
		slog.Debug("No command provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}
	command := args[0]
	if !slices.Contains(app.Commands, command) {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q: must be one of %v", command, app.Commands)}
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.", "command", command)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	if _, ok := app.ParseLevel(logLevel); !ok {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Command:          command,
		ModulesPath:      *modulesPathFlag,
		TablePaths:       flagSet.Args(),
		Goal:             goal,
		OutPath:          *outFlag,
		PlanOut:          *planOutFlag,
		PlanIn:           *planInFlag,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
		MaxGenericRepeat: *repeatFlag,
		MaxStates:        *statesFlag,
		IgnoreCase:       *ignoreCaseFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
