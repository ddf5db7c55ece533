// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimatecreation/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestEstimate creates an estimate record with the given name and returns it.
func CreateTestEstimate(t *testing.T, app *pocketbase.PocketBase, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimates")
	if err != nil {
		t.Fatalf("failed to find estimates collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("status", "Draft")
	record.Set("project_id", "PRJ-1001")
	record.Set("client_id", "CL-204")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test estimate: %v", err)
	}

	return record
}

// CreateTestGroup creates a group record linked to an estimate and returns it.
func CreateTestGroup(t *testing.T, app *pocketbase.PocketBase, estimateID, code, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimate_groups")
	if err != nil {
		t.Fatalf("failed to find estimate_groups collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("estimate", estimateID)
	record.Set("sort_order", 1)
	record.Set("code", code)
	record.Set("name", name)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test group: %v", err)
	}

	return record
}

// CreateTestSection creates a section record under a group and returns it.
func CreateTestSection(t *testing.T, app *pocketbase.PocketBase, groupID, code, name string, qty, rate float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimate_sections")
	if err != nil {
		t.Fatalf("failed to find estimate_sections collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("group", groupID)
	record.Set("sort_order", 1)
	record.Set("code", code)
	record.Set("name", name)
	record.Set("quantity", qty)
	record.Set("unit", "LS")
	record.Set("rate", rate)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test section: %v", err)
	}

	return record
}

// CreateTestSubsection creates a subsection record under a section and returns it.
func CreateTestSubsection(t *testing.T, app *pocketbase.PocketBase, sectionID, code, name string, qty, rate float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("estimate_subsections")
	if err != nil {
		t.Fatalf("failed to find estimate_subsections collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("section", sectionID)
	record.Set("sort_order", 1)
	record.Set("code", code)
	record.Set("name", name)
	record.Set("quantity", qty)
	record.Set("unit", "HR")
	record.Set("rate", rate)
	record.Set("amount", qty*rate)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test subsection: %v", err)
	}

	return record
}

// AssertBodyContains checks that body contains all specified fragments.
func AssertBodyContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
