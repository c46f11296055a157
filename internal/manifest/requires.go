// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file parses `requires` blocks. Each block belongs to one argument of
// the task function and lists either literal column names or patterns. An
// argument may be split over several blocks, for example a pattern followed
// by literals that back-reference it; blocks are kept in source order.
package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
)

// Requirement is one `requires` block.
type Requirement struct {
	Arg      string
	Columns  []string
	Patterns []string
}

var requiresBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "columns"},
		{Name: "patterns"},
	},
}

func parseRequires(blocks hcl.Blocks) ([]Requirement, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var reqs []Requirement

	for _, block := range blocks.OfType("requires") {
		content, contentDiags := block.Body.Content(requiresBodySchema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		req := Requirement{Arg: block.Labels[0]}
		if attr, ok := content.Attributes["columns"]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &req.Columns)...)
		}
		if attr, ok := content.Attributes["patterns"]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &req.Patterns)...)
		}

		switch {
		case len(req.Columns) > 0 && len(req.Patterns) > 0:
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Ambiguous 'requires' block",
				Detail:   fmt.Sprintf("Argument '%s' sets both 'columns' and 'patterns'; use one block for each.", req.Arg),
				Subject:  &block.DefRange,
			})
			continue
		case len(req.Columns) == 0 && len(req.Patterns) == 0:
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Empty 'requires' block",
				Detail:   fmt.Sprintf("Argument '%s' must list at least one column or pattern.", req.Arg),
				Subject:  &block.DefRange,
			})
			continue
		}
		reqs = append(reqs, req)
	}

	return reqs, diags
}
