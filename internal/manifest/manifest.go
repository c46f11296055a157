// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package manifest parses the HCL files that declare tasks.
//
// A manifest holds one or more `task` blocks. Each block names the Go handler
// that implements it, the variables it requires per argument, and the
// variables it generates per destination table:
//
//	task "tokenize" {
//	  description = "Splits every line into tokens."
//	  handler     = "OnRunTokenize"
//
//	  requires "x" {
//	    patterns = ["(.+)\\.lines"]
//	  }
//
//	  makes {
//	    columns = ["{x}.tokens"]
//	    appends = true
//	  }
//	}
//
// The Definition produced here is format-agnostic. Build turns it into a
// task.Spec through the same builder that Go modules use.
package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/specialistvlad/frametasks/internal/ctxlog"
)

// Definition is the parsed form of one `task` block.
type Definition struct {
	Name        string
	Description string
	Handler     string
	// PassExtra is nil when the manifest leaves the default in place.
	PassExtra     *bool
	Generic       bool
	Requires      []Requirement
	Makes         []Generation
	FSInformation *FSInfo
}

// manifestRootSchema expects one or more 'task' blocks.
type manifestRootSchema struct {
	Tasks []*hclTask `hcl:"task,block"`
}

type hclTask struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

var taskBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
		{Name: "handler"},
		{Name: "pass_extra"},
		{Name: "generic"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "requires", LabelNames: []string{"arg"}},
		{Type: "makes"},
	},
}

// ParseFile decodes every `task` block of a parsed HCL file. Parsing
// continues past a broken block so that all problems of a file are reported
// together.
func ParseFile(ctx context.Context, hclFile *hcl.File, filePath string) ([]*Definition, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing task definitions from file", "file_path", filePath)

	var allDiags hcl.Diagnostics
	if hclFile == nil {
		allDiags = append(allDiags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "HCL file is nil",
		})
		return nil, allDiags
	}

	schema := &manifestRootSchema{}
	diags := gohcl.DecodeBody(hclFile.Body, nil, schema)
	allDiags = append(allDiags, diags...)
	if diags.HasErrors() {
		return nil, allDiags
	}

	seen := make(map[string]bool, len(schema.Tasks))
	definitions := make([]*Definition, 0, len(schema.Tasks))
	for _, parsed := range schema.Tasks {
		if seen[parsed.Name] {
			rng := parsed.Body.MissingItemRange()
			allDiags = append(allDiags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate task definition",
				Detail:   fmt.Sprintf("A task named '%s' has already been defined in this file.", parsed.Name),
				Subject:  &rng,
			})
			continue
		}
		seen[parsed.Name] = true

		def, defDiags := parseTask(parsed)
		allDiags = append(allDiags, defDiags...)
		if defDiags.HasErrors() {
			continue
		}
		def.FSInformation = NewFSInfo(filePath)
		definitions = append(definitions, def)
	}

	if allDiags.HasErrors() {
		return nil, allDiags
	}

	logger.Debug("Successfully parsed task definitions", "count", len(definitions))
	return definitions, allDiags
}

func parseTask(parsed *hclTask) (*Definition, hcl.Diagnostics) {
	var diags hcl.Diagnostics

	content, contentDiags := parsed.Body.Content(taskBodySchema)
	diags = append(diags, contentDiags...)
	if contentDiags.HasErrors() {
		return nil, diags
	}

	def := &Definition{Name: parsed.Name}

	if attr, ok := content.Attributes["description"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &def.Description)...)
	}
	if attr, ok := content.Attributes["handler"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &def.Handler)...)
	} else {
		rng := parsed.Body.MissingItemRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'handler' attribute",
			Detail:   fmt.Sprintf("Task '%s' must name the Go handler that implements it.", parsed.Name),
			Subject:  &rng,
		})
	}
	if attr, ok := content.Attributes["pass_extra"]; ok {
		var v bool
		decodeDiags := gohcl.DecodeExpression(attr.Expr, nil, &v)
		diags = append(diags, decodeDiags...)
		if !decodeDiags.HasErrors() {
			def.PassExtra = &v
		}
	}
	if attr, ok := content.Attributes["generic"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &def.Generic)...)
	}

	var reqDiags hcl.Diagnostics
	def.Requires, reqDiags = parseRequires(content.Blocks)
	diags = append(diags, reqDiags...)

	var makesDiags hcl.Diagnostics
	def.Makes, makesDiags = parseMakes(content.Blocks)
	diags = append(diags, makesDiags...)

	if len(def.Makes) == 0 && !makesDiags.HasErrors() {
		rng := parsed.Body.MissingItemRange()
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing 'makes' block",
			Detail:   fmt.Sprintf("Task '%s' must generate at least one variable.", parsed.Name),
			Subject:  &rng,
		})
	}

	return def, diags
}
