// Package text provides the built-in text-mining tasks: reading files,
// splitting them into lines and tokens, and counting tokens. The tasks are
// declared in manifest.hcl and chain through their column names, so a goal
// such as "doc.path.read_file.lines.tokens" plans the whole pipeline.
package text

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/registry"
	"github.com/specialistvlad/frametasks/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// SampleIndex is the column tokenize uses to record the row a token came from.
const SampleIndex = "sample_ind"

var (
	lineBreak  = regexp.MustCompile(`\r?\n`)
	wordOrGap  = regexp.MustCompile(`\w+|\W+`)
	edgeNoWord = regexp.MustCompile(`\A\W+|\W+\z`)
)

// Register registers the handlers with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("OnRunReadFile", OnRunReadFile)
	r.RegisterHandler("OnRunSplitLines", OnRunSplitLines)
	r.RegisterHandler("OnRunMailFrom", OnRunMailFrom)
	r.RegisterHandler("OnRunTokenize", OnRunTokenize)
	r.RegisterHandler("OnRunCleanTokens", OnRunCleanTokens)
	r.RegisterHandler("OnRunCounts", OnRunCounts)
	r.RegisterHandler("OnRunTop90", OnRunTop90)
}

// first returns the argument table and its first column.
func first(call *task.Call, arg string) (frame.Table, string, []cty.Value, error) {
	t, ok := call.Args[arg]
	if !ok {
		return nil, "", nil, fmt.Errorf("argument %q not bound", arg)
	}
	cols := t.Columns()
	if len(cols) == 0 {
		return nil, "", nil, fmt.Errorf("argument %q has no columns", arg)
	}
	vals, _ := t.Column(cols[0])
	return t, cols[0], vals, nil
}

func output(call *task.Call, i int) (string, error) {
	name := call.Expected(i)
	if name == "" {
		return "", fmt.Errorf("task %s: expected output %d is not known", call.Task, i)
	}
	return name, nil
}

// OnRunReadFile reads the file each path cell points to.
func OnRunReadFile(ctx context.Context, call *task.Call) ([]frame.Table, error) {
	logger := ctxlog.FromContext(ctx)
	x, _, paths, err := first(call, "x")
	if err != nil {
		return nil, err
	}
	name, err := output(call, 0)
	if err != nil {
		return nil, err
	}

	out := make([]cty.Value, len(paths))
	for i, v := range paths {
		path, ok := frame.AsString(v)
		if !ok {
			out[i] = cty.NullVal(cty.String)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Could not read file.", "path", path, "error", err)
			out[i] = cty.NullVal(cty.String)
			continue
		}
		out[i] = cty.StringVal(strings.ToValidUTF8(string(data), "�"))
	}
	return []frame.Table{x.Join(frame.MustNew(x.Keys(), frame.Column{Name: name, Values: out}))}, nil
}

// OnRunSplitLines explodes every text cell into one row per line. Lines keep
// the key of the row they came from.
func OnRunSplitLines(_ context.Context, call *task.Call) ([]frame.Table, error) {
	x, _, texts, err := first(call, "x")
	if err != nil {
		return nil, err
	}
	name, err := output(call, 0)
	if err != nil {
		return nil, err
	}

	keys := x.Keys()
	var outKeys []int64
	var lines []cty.Value
	for i, v := range texts {
		s, ok := frame.AsString(v)
		if !ok {
			outKeys = append(outKeys, keys[i])
			lines = append(lines, cty.NullVal(cty.String))
			continue
		}
		for _, line := range lineBreak.Split(s, -1) {
			outKeys = append(outKeys, keys[i])
			lines = append(lines, cty.StringVal(line))
		}
	}
	split := frame.MustNew(outKeys, frame.Column{Name: name, Values: lines})
	return []frame.Table{split.Join(x)}, nil
}

// OnRunMailFrom keeps the lines that start with "From:", leaving the other
// rows empty.
func OnRunMailFrom(_ context.Context, call *task.Call) ([]frame.Table, error) {
	x, _, lines, err := first(call, "x")
	if err != nil {
		return nil, err
	}
	name, err := output(call, 0)
	if err != nil {
		return nil, err
	}

	out := make([]cty.Value, len(lines))
	for i, v := range lines {
		s, ok := frame.AsString(v)
		if ok && strings.HasPrefix(s, "From:") {
			out[i] = cty.StringVal(s)
			continue
		}
		out[i] = cty.NullVal(cty.String)
	}
	return []frame.Table{x.Join(frame.MustNew(x.Keys(), frame.Column{Name: name, Values: out}))}, nil
}

// OnRunTokenize splits lines into lower-cased word and gap tokens. The result
// is a new table; sample_ind holds the key of the source row.
func OnRunTokenize(_ context.Context, call *task.Call) ([]frame.Table, error) {
	x, _, lines, err := first(call, "x")
	if err != nil {
		return nil, err
	}
	name, err := output(call, 1)
	if err != nil {
		return nil, err
	}

	keys := x.Keys()
	var index, tokens []cty.Value
	for i, v := range lines {
		s, ok := frame.AsString(v)
		if !ok {
			continue
		}
		for _, tok := range wordOrGap.FindAllString(s, -1) {
			index = append(index, cty.NumberIntVal(keys[i]))
			tokens = append(tokens, cty.StringVal(strings.ToLower(tok)))
		}
	}
	return []frame.Table{frame.MustNew(nil,
		frame.Column{Name: SampleIndex, Values: index},
		frame.Column{Name: name, Values: tokens},
	)}, nil
}

// OnRunCleanTokens trims punctuation off token edges and drops tokens
// shorter than two characters.
func OnRunCleanTokens(_ context.Context, call *task.Call) ([]frame.Table, error) {
	x := call.Args["x"]
	if x == nil {
		return nil, fmt.Errorf("argument %q not bound", "x")
	}
	cols := x.Columns()
	if len(cols) < 2 {
		return nil, fmt.Errorf("task %s needs %s and a token column, got %v", call.Task, SampleIndex, cols)
	}
	name, err := output(call, 1)
	if err != nil {
		return nil, err
	}

	index, _ := x.Column(cols[0])
	tokens, _ := x.Column(cols[1])
	keys := x.Keys()

	var outKeys []int64
	var outIndex, outTokens []cty.Value
	for i, v := range tokens {
		s, ok := frame.AsString(v)
		if !ok {
			continue
		}
		s = edgeNoWord.ReplaceAllString(s, "")
		if len([]rune(s)) <= 1 {
			continue
		}
		outKeys = append(outKeys, keys[i])
		outIndex = append(outIndex, index[i])
		outTokens = append(outTokens, cty.StringVal(s))
	}
	return []frame.Table{frame.MustNew(outKeys,
		frame.Column{Name: SampleIndex, Values: outIndex},
		frame.Column{Name: name, Values: outTokens},
	)}, nil
}

// OnRunCounts counts the distinct values of a column, most frequent first.
// Ties keep the order of first appearance.
func OnRunCounts(_ context.Context, call *task.Call) ([]frame.Table, error) {
	_, col, vals, err := first(call, "x")
	if err != nil {
		return nil, err
	}
	name, err := output(call, 0)
	if err != nil {
		return nil, err
	}

	counted := countValues(vals)
	values := make([]cty.Value, len(counted))
	counts := make([]cty.Value, len(counted))
	for i, c := range counted {
		values[i] = c.value
		counts[i] = cty.NumberIntVal(int64(c.count))
	}
	return []frame.Table{frame.MustNew(nil,
		frame.Column{Name: col, Values: values},
		frame.Column{Name: name, Values: counts},
	)}, nil
}

// OnRunTop90 keeps the tokens that, taken in order of frequency, make up the
// first 90% of all occurrences.
func OnRunTop90(_ context.Context, call *task.Call) ([]frame.Table, error) {
	x, _, tokens, err := first(call, "x")
	if err != nil {
		return nil, err
	}
	y := call.Args["y"]
	if y == nil || len(y.Columns()) < 2 {
		return nil, fmt.Errorf("task %s needs a value and a count column in argument y", call.Task)
	}
	name, err := output(call, 0)
	if err != nil {
		return nil, err
	}

	ycols := y.Columns()
	values, _ := y.Column(ycols[0])
	counts, _ := y.Column(ycols[1])
	top := topValues(values, counts, 0.9)

	keys := x.Keys()
	var outKeys []int64
	var out []cty.Value
	for i, v := range tokens {
		s, ok := frame.AsString(v)
		if !ok || !top[s] {
			continue
		}
		outKeys = append(outKeys, keys[i])
		out = append(out, v)
	}
	return []frame.Table{frame.MustNew(outKeys, frame.Column{Name: name, Values: out})}, nil
}
