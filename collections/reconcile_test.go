package collections_test

import (
	"math"
	"testing"

	"estimatecreation/collections"
	"estimatecreation/testhelpers"
)

func TestReconcileAmounts_FixesStaleRollups(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Drifted Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	section := testhelpers.CreateTestSection(t, app, group.Id, "A.1", "Clearing", 2, 500)
	subsection := testhelpers.CreateTestSubsection(t, app, section.Id, "A.1.1", "Crew", 4, 250)

	// Sabotage the stored amounts the way a manual database edit would.
	subsection.Set("amount", 42)
	if err := app.Save(subsection); err != nil {
		t.Fatalf("failed to save drifted subsection: %v", err)
	}
	section.Set("amount", 99999)
	if err := app.Save(section); err != nil {
		t.Fatalf("failed to save drifted section: %v", err)
	}

	collections.ReconcileAmounts(app)

	fixedSubsection, _ := app.FindRecordById("estimate_subsections", subsection.Id)
	if got := fixedSubsection.GetFloat("amount"); math.Abs(got-1000) > 0.001 {
		t.Errorf("subsection amount = %v, want 1000", got)
	}
	fixedSection, _ := app.FindRecordById("estimate_sections", section.Id)
	if got := fixedSection.GetFloat("amount"); math.Abs(got-1000) > 0.001 {
		t.Errorf("section amount = %v, want 1000", got)
	}
	fixedGroup, _ := app.FindRecordById("estimate_groups", group.Id)
	if got := fixedGroup.GetFloat("amount"); math.Abs(got-1000) > 0.001 {
		t.Errorf("group amount = %v, want 1000", got)
	}
}

func TestReconcileAmounts_ChildlessSectionFallback(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Fallback Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	section := testhelpers.CreateTestSection(t, app, group.Id, "A.1", "Grading", 4500, 2.25)

	collections.ReconcileAmounts(app)

	fixedSection, _ := app.FindRecordById("estimate_sections", section.Id)
	if got := fixedSection.GetFloat("amount"); math.Abs(got-10125) > 0.001 {
		t.Errorf("section amount = %v, want 10125", got)
	}
	fixedGroup, _ := app.FindRecordById("estimate_groups", group.Id)
	if got := fixedGroup.GetFloat("amount"); math.Abs(got-10125) > 0.001 {
		t.Errorf("group amount = %v, want 10125", got)
	}
}

func TestReconcileAmounts_NoopWhenConsistent(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Consistent Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	section := testhelpers.CreateTestSection(t, app, group.Id, "A.1", "Clearing", 2, 500)
	subsection := testhelpers.CreateTestSubsection(t, app, section.Id, "A.1.1", "Crew", 4, 250)
	section.Set("amount", 1000)
	if err := app.Save(section); err != nil {
		t.Fatalf("failed to save section: %v", err)
	}
	group.Set("amount", 1000)
	if err := app.Save(group); err != nil {
		t.Fatalf("failed to save group: %v", err)
	}
	saved, err := app.FindRecordById("estimate_subsections", subsection.Id)
	if err != nil {
		t.Fatalf("failed to reload subsection: %v", err)
	}
	before := saved.GetDateTime("updated")

	collections.ReconcileAmounts(app)

	after, _ := app.FindRecordById("estimate_subsections", subsection.Id)
	if !after.GetDateTime("updated").Time().Equal(before.Time()) {
		t.Error("consistent subsection was rewritten")
	}
}
