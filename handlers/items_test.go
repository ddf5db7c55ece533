package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"estimatecreation/testhelpers"
)

func TestHandleAddGroup_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Add Group Estimate")
	handler := HandleAddGroup(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/estimates/%s/groups", est.Id), nil)
	req.SetPathValue("id", est.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var result map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result["code"] != "1" {
		t.Errorf("expected first group code 1, got %q", result["code"])
	}
	created, err := app.FindRecordById("estimate_groups", result["id"])
	if err != nil {
		t.Fatalf("group record not created: %v", err)
	}
	if created.GetString("code") != "1" {
		t.Errorf("stored code = %q, want 1", created.GetString("code"))
	}
}

func TestHandleAddGroup_NextSiblingCode(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Sibling Code Estimate")
	testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	handler := HandleAddGroup(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/estimates/%s/groups", est.Id), nil)
	req.SetPathValue("id", est.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var result map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result["code"] != "2" {
		t.Errorf("expected fallback sibling code 2, got %q", result["code"])
	}
}

func TestHandleAddSection_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Add Section Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	handler := HandleAddSection(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/estimates/%s/groups/%s/sections", est.Id, group.Id), nil)
	req.SetPathValue("id", est.Id)
	req.SetPathValue("groupId", group.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var result map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result["code"] != "A.1" {
		t.Errorf("expected section code A.1, got %q", result["code"])
	}
}

func TestHandleAddSection_GroupNotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Section NF Estimate")
	handler := HandleAddSection(app)
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/estimates/%s/groups/nonexistent/sections", est.Id), nil)
	req.SetPathValue("id", est.Id)
	req.SetPathValue("groupId", "nonexistent")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != 404 {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleAddSubsection_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Add Subsection Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	section := testhelpers.CreateTestSection(t, app, group.Id, "A.1", "Clearing", 2, 500)
	handler := HandleAddSubsection(app)
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/estimates/%s/groups/%s/sections/%s/subsections", est.Id, group.Id, section.Id), nil)
	req.SetPathValue("id", est.Id)
	req.SetPathValue("groupId", group.Id)
	req.SetPathValue("sectionId", section.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var result map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if result["code"] != "A.1.1" {
		t.Errorf("expected subsection code A.1.1, got %q", result["code"])
	}

	// The new empty child takes over the section amount: sum of children (0)
	// replaces the section's own 2 * 500.
	updatedSection, _ := app.FindRecordById("estimate_sections", section.Id)
	if got := updatedSection.GetFloat("amount"); got != 0 {
		t.Errorf("section amount after adding empty child = %v, want 0", got)
	}
}

func TestHandleAdd_DefaultNames(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Default Names Estimate")

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/estimates/%s/groups", est.Id), nil)
	req.SetPathValue("id", est.Id)
	rec := httptest.NewRecorder()
	if err := HandleAddGroup(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("add group error: %v", err)
	}
	var group map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &group); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/estimates/%s/groups/%s/sections", est.Id, group["id"]), nil)
	req.SetPathValue("id", est.Id)
	req.SetPathValue("groupId", group["id"])
	rec = httptest.NewRecorder()
	if err := HandleAddSection(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("add section error: %v", err)
	}
	var section map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &section); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/estimates/%s/groups/%s/sections/%s/subsections", est.Id, group["id"], section["id"]), nil)
	req.SetPathValue("id", est.Id)
	req.SetPathValue("groupId", group["id"])
	req.SetPathValue("sectionId", section["id"])
	rec = httptest.NewRecorder()
	if err := HandleAddSubsection(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("add subsection error: %v", err)
	}
	var subsection map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &subsection); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}

	// The subsection add rewrites the section and group records from the
	// in-memory tree; the default names must survive that refresh.
	checks := []struct {
		collection string
		id         string
		want       string
	}{
		{"estimate_groups", group["id"], "New Group"},
		{"estimate_sections", section["id"], "New Section"},
		{"estimate_subsections", subsection["id"], "New Subsection"},
	}
	for _, c := range checks {
		record, err := app.FindRecordById(c.collection, c.id)
		if err != nil {
			t.Fatalf("%s record not created: %v", c.collection, err)
		}
		if got := record.GetString("name"); got != c.want {
			t.Errorf("%s name = %q, want %q", c.collection, got, c.want)
		}
	}
}

func TestHandlePatchSubsection_RatePropagates(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Patch Subsection Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	section := testhelpers.CreateTestSection(t, app, group.Id, "A.1", "Clearing", 2, 500)
	subsection := testhelpers.CreateTestSubsection(t, app, section.Id, "A.1.1", "Crew", 4, 250)
	handler := HandlePatchSubsection(app)
	form := url.Values{}
	form.Set("rate", "500")
	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/estimates/%s/subsections/%s", est.Id, subsection.Id), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetPathValue("id", est.Id)
	req.SetPathValue("subsectionId", subsection.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var result map[string]float64
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if math.Abs(result["amount"]-2000) > 0.001 {
		t.Errorf("response amount = %v, want 2000", result["amount"])
	}

	// Rollup lands in the stored section and group amounts too.
	updatedSection, _ := app.FindRecordById("estimate_sections", section.Id)
	if math.Abs(updatedSection.GetFloat("amount")-2000) > 0.001 {
		t.Errorf("section amount = %v, want 2000", updatedSection.GetFloat("amount"))
	}
	updatedGroup, _ := app.FindRecordById("estimate_groups", group.Id)
	if math.Abs(updatedGroup.GetFloat("amount")-2000) > 0.001 {
		t.Errorf("group amount = %v, want 2000", updatedGroup.GetFloat("amount"))
	}
}

func TestHandlePatchSection_Name(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Patch Section Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	section := testhelpers.CreateTestSection(t, app, group.Id, "A.1", "Old Name", 2, 500)
	handler := HandlePatchSection(app)
	form := url.Values{}
	form.Set("name", "New Name")
	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/estimates/%s/sections/%s", est.Id, section.Id), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetPathValue("id", est.Id)
	req.SetPathValue("sectionId", section.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	updated, _ := app.FindRecordById("estimate_sections", section.Id)
	if updated.GetString("name") != "New Name" {
		t.Errorf("name not updated, got %q", updated.GetString("name"))
	}
}

func TestHandlePatchSubsection_NegativeQuantityRejected(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Negative Patch Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	section := testhelpers.CreateTestSection(t, app, group.Id, "A.1", "Clearing", 2, 500)
	subsection := testhelpers.CreateTestSubsection(t, app, section.Id, "A.1.1", "Crew", 4, 250)
	handler := HandlePatchSubsection(app)
	form := url.Values{}
	form.Set("quantity", "-5")
	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/estimates/%s/subsections/%s", est.Id, subsection.Id), strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetPathValue("id", est.Id)
	req.SetPathValue("subsectionId", subsection.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != 400 {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	// Record untouched
	updated, _ := app.FindRecordById("estimate_subsections", subsection.Id)
	if updated.GetFloat("quantity") != 4 {
		t.Errorf("quantity changed to %v after rejected patch", updated.GetFloat("quantity"))
	}
}

func TestHandlePatchGroup_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Patch NF Estimate")
	handler := HandlePatchGroup(app)
	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/estimates/%s/groups/nonexistent", est.Id), nil)
	req.SetPathValue("id", est.Id)
	req.SetPathValue("groupId", "nonexistent")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != 404 {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleDeleteSubsection_RestoresSectionLeafFormula(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Delete Subsection Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	section := testhelpers.CreateTestSection(t, app, group.Id, "A.1", "Clearing", 2, 500)
	subsection := testhelpers.CreateTestSubsection(t, app, section.Id, "A.1.1", "Crew", 4, 250)
	handler := HandleDeleteSubsection(app)
	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/estimates/%s/subsections/%s", est.Id, subsection.Id), nil)
	req.SetPathValue("id", est.Id)
	req.SetPathValue("subsectionId", subsection.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if _, err := app.FindRecordById("estimate_subsections", subsection.Id); err == nil {
		t.Error("expected subsection to be deleted")
	}
	// With no children left the section falls back to its own 2 * 500.
	updatedSection, _ := app.FindRecordById("estimate_sections", section.Id)
	if math.Abs(updatedSection.GetFloat("amount")-1000) > 0.001 {
		t.Errorf("section amount = %v, want 1000", updatedSection.GetFloat("amount"))
	}
	updatedGroup, _ := app.FindRecordById("estimate_groups", group.Id)
	if math.Abs(updatedGroup.GetFloat("amount")-1000) > 0.001 {
		t.Errorf("group amount = %v, want 1000", updatedGroup.GetFloat("amount"))
	}
}

func TestHandleDeleteSection_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Delete Section Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	section := testhelpers.CreateTestSection(t, app, group.Id, "A.1", "Clearing", 2, 500)
	testhelpers.CreateTestSubsection(t, app, section.Id, "A.1.1", "Crew", 4, 250)
	handler := HandleDeleteSection(app)
	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/estimates/%s/sections/%s", est.Id, section.Id), nil)
	req.SetPathValue("id", est.Id)
	req.SetPathValue("sectionId", section.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if _, err := app.FindRecordById("estimate_sections", section.Id); err == nil {
		t.Error("expected section to be deleted")
	}
	updatedGroup, _ := app.FindRecordById("estimate_groups", group.Id)
	if updatedGroup.GetFloat("amount") != 0 {
		t.Errorf("group amount = %v, want 0", updatedGroup.GetFloat("amount"))
	}
}

func TestHandleDeleteGroup_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Delete Group Estimate")
	group := testhelpers.CreateTestGroup(t, app, est.Id, "A", "Sitework")
	handler := HandleDeleteGroup(app)
	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/estimates/%s/groups/%s", est.Id, group.Id), nil)
	req.SetPathValue("id", est.Id)
	req.SetPathValue("groupId", group.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if _, err := app.FindRecordById("estimate_groups", group.Id); err == nil {
		t.Error("expected group to be deleted")
	}
}

func TestHandleDeleteGroup_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	est := testhelpers.CreateTestEstimate(t, app, "Delete NF Estimate")
	handler := HandleDeleteGroup(app)
	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/estimates/%s/groups/nonexistent", est.Id), nil)
	req.SetPathValue("id", est.Id)
	req.SetPathValue("groupId", "nonexistent")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)
	if err := handler(e); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != 404 {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
