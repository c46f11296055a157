package app

import (
	"fmt"
	"os"

	"github.com/specialistvlad/frametasks/internal/ctxlog"
	"github.com/specialistvlad/frametasks/internal/frame"
	"github.com/specialistvlad/frametasks/internal/plancodec"
)

// LoadModules loads the task manifests under the configured modules path.
func (app *App) LoadModules() error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Loading modules...", "modules_path", app.config.ModulesPath)

	if app.config.ModulesPath == "" {
		logger.Debug("No modules path configured, using Go-registered tasks only.")
		return nil
	}
	return app.registry.LoadManifests(app.ctx, app.config.ModulesPath)
}

// LoadTables reads the configured CSV files, in order.
func (app *App) LoadTables() ([]frame.Table, error) {
	logger := ctxlog.FromContext(app.ctx)

	tables := make([]frame.Table, 0, len(app.config.TablePaths))
	for _, path := range app.config.TablePaths {
		t, err := frame.ReadCSVFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load table: %w", err)
		}
		logger.Debug("Table loaded.", "path", path, "rows", t.Len(), "columns", t.Columns())
		tables = append(tables, t)
	}
	logger.Info("Tables loaded successfully.", "count", len(tables))
	return tables, nil
}

// loadPlan reads the configured plan file and checks it against the registry.
func (app *App) loadPlan() (plancodec.Document, error) {
	path := app.config.PlanIn
	format, err := plancodec.FormatFromPath(path)
	if err != nil {
		return plancodec.Document{}, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return plancodec.Document{}, fmt.Errorf("failed to read plan: %w", err)
	}
	doc, err := plancodec.Unmarshal(raw, format)
	if err != nil {
		return plancodec.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := doc.Check(app.registry); err != nil {
		return plancodec.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	ctxlog.FromContext(app.ctx).Info("Plan loaded.", "path", path, "id", doc.ID, "actions", len(doc.Actions))
	return doc, nil
}

func (app *App) savePlan(doc plancodec.Document) error {
	path := app.config.PlanOut
	if path == "" {
		return nil
	}
	format, err := plancodec.FormatFromPath(path)
	if err != nil {
		return err
	}
	raw, err := plancodec.Marshal(doc, format)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	ctxlog.FromContext(app.ctx).Info("Plan written.", "path", path, "id", doc.ID, "format", format.String())
	return nil
}
