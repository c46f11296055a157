// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file parses `makes` blocks, the variables a task generates. A block
// without `group` describes the single table the handler returns; numbered
// groups address one table each in the handler's result list.
package manifest

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
)

// Generation is one `makes` block.
type Generation struct {
	// Group is nil for a task that returns a single table.
	Group   *int
	Columns []string
	Appends bool
}

var makesBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "group"},
		{Name: "columns", Required: true},
		{Name: "appends"},
	},
}

func parseMakes(blocks hcl.Blocks) ([]Generation, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	var gens []Generation

	for _, block := range blocks.OfType("makes") {
		content, contentDiags := block.Body.Content(makesBodySchema)
		diags = append(diags, contentDiags...)
		if contentDiags.HasErrors() {
			continue
		}

		var gen Generation
		if attr, ok := content.Attributes["group"]; ok {
			var g int
			groupDiags := gohcl.DecodeExpression(attr.Expr, nil, &g)
			diags = append(diags, groupDiags...)
			if groupDiags.HasErrors() {
				continue
			}
			if g < 0 {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid group",
					Detail:   "A 'makes' group must be zero or greater.",
					Subject:  attr.Expr.Range().Ptr(),
				})
				continue
			}
			gen.Group = &g
		}

		colDiags := gohcl.DecodeExpression(content.Attributes["columns"].Expr, nil, &gen.Columns)
		diags = append(diags, colDiags...)
		if colDiags.HasErrors() {
			continue
		}
		if len(gen.Columns) == 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Empty 'makes' block",
				Detail:   "A 'makes' block must list at least one column.",
				Subject:  &block.DefRange,
			})
			continue
		}

		if attr, ok := content.Attributes["appends"]; ok {
			diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &gen.Appends)...)
		}
		gens = append(gens, gen)
	}

	return gens, diags
}
