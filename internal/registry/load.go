package registry

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/fsutil"
	"github.com/specialistvlad/frametasks/internal/manifest"
)

// LoadManifests reads every .hcl file under modulesPath and registers the
// tasks it declares. A task whose handler is not registered yet is kept
// without a function; ValidateRegistry reports it.
func (r *Registry) LoadManifests(ctx context.Context, modulesPath string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading definitions from modules path...", "path", modulesPath)

	filePaths, err := fsutil.FindFilesByExtension(modulesPath, ".hcl")
	if err != nil {
		logger.Error("Failed to walk modules directory", "path", modulesPath, "error", err)
		return err
	}

	if len(filePaths) == 0 {
		logger.Warn("No .hcl module files found in path", "path", modulesPath)
		return nil
	}

	logger.Debug("Found HCL files to load", "files", filePaths)

	parser := hclparse.NewParser()
	loaded := 0
	for _, filePath := range filePaths {
		hclFile, diags := parser.ParseHCLFile(filePath)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
		}

		defs, diags := manifest.ParseFile(ctx, hclFile, filePath)
		if diags.HasErrors() {
			return fmt.Errorf("failed to process task definitions in %s: %w", filePath, diags)
		}

		for _, def := range defs {
			if err := r.AddDefinition(def); err != nil {
				return err
			}
			loaded++
		}
		logger.Debug("Successfully loaded definitions from HCL file", "file", filePath)
	}

	logger.Info("Registry loaded successfully.", "task_definitions_loaded", loaded)
	return nil
}

// AddDefinition registers the task a manifest declares, bound to its handler
// when one is registered.
func (r *Registry) AddDefinition(def *manifest.Definition) error {
	fn, _ := r.Handler(def.Handler)
	if _, err := def.Build(r, fn); err != nil {
		return err
	}
	r.definitions[def.Name] = def
	return nil
}
