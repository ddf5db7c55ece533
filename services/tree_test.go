package services

import (
	"errors"
	"testing"
)

func TestFindByID(t *testing.T) {
	est := buildTestTree()

	if g := est.FindGroup("g1"); g == nil || g.Code != "A" {
		t.Errorf("FindGroup(g1) = %v, want group A", g)
	}
	if g := est.FindGroup("missing"); g != nil {
		t.Errorf("FindGroup(missing) = %v, want nil", g)
	}

	g, s := est.FindSection("s2")
	if s == nil || s.Code != "A.2" {
		t.Fatalf("FindSection(s2) = %v, want section A.2", s)
	}
	if g.ID != "g1" {
		t.Errorf("FindSection(s2) group = %s, want g1", g.ID)
	}

	g, s, ss := est.FindSubsection("ss3")
	if ss == nil || ss.Code != "A.2.1" {
		t.Fatalf("FindSubsection(ss3) = %v, want A.2.1", ss)
	}
	if g.ID != "g1" || s.ID != "s2" {
		t.Errorf("FindSubsection(ss3) ancestors = %s/%s, want g1/s2", g.ID, s.ID)
	}
}

func TestFindByCode(t *testing.T) {
	est := buildTestTree()

	if g := est.FindGroupByCode("A"); g == nil || g.ID != "g1" {
		t.Errorf("FindGroupByCode(A) = %v, want g1", g)
	}
	if _, s := est.FindSectionByCode("A.1"); s == nil || s.ID != "s1" {
		t.Errorf("FindSectionByCode(A.1) = %v, want s1", s)
	}
	if _, _, ss := est.FindSubsectionByCode("A.1.2"); ss == nil || ss.ID != "ss2" {
		t.Errorf("FindSubsectionByCode(A.1.2) = %v, want ss2", ss)
	}
	if _, s := est.FindSectionByCode("B.1"); s != nil {
		t.Errorf("FindSectionByCode(B.1) = %v, want nil", s)
	}
}

func TestHasCode(t *testing.T) {
	est := buildTestTree()

	for _, code := range []string{"A", "A.1", "A.2", "A.1.1", "A.2.1"} {
		if !est.HasCode(code) {
			t.Errorf("HasCode(%q) = false, want true", code)
		}
	}
	if est.HasCode("B") || est.HasCode("A.3") {
		t.Error("HasCode reported codes that are not in the tree")
	}
}

func TestAppendGroup_Violations(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"duplicate code", "A"},
		{"wrong depth", "B.1"},
		{"malformed code", "B..1"},
		{"empty code", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := buildTestTree()
			before := len(est.Groups)

			err := est.AppendGroup(Group{ID: "gx", Code: tt.code})
			var sv *StructuralViolationError
			if !errors.As(err, &sv) {
				t.Fatalf("AppendGroup(%q) error = %v, want *StructuralViolationError", tt.code, err)
			}
			if len(est.Groups) != before {
				t.Error("rejected insert mutated the tree")
			}
		})
	}
}

func TestAppendSection(t *testing.T) {
	est := buildTestTree()

	if err := est.AppendSection("g1", Section{ID: "s3", Code: "A.3", Name: "Paving"}); err != nil {
		t.Fatalf("AppendSection: %v", err)
	}
	if _, s := est.FindSection("s3"); s == nil {
		t.Fatal("appended section not found")
	}

	// Parent prefix mismatch.
	err := est.AppendSection("g1", Section{ID: "s4", Code: "B.1"})
	var sv *StructuralViolationError
	if !errors.As(err, &sv) {
		t.Errorf("prefix mismatch error = %v, want *StructuralViolationError", err)
	}

	// Unknown parent id.
	err = est.AppendSection("missing", Section{ID: "s5", Code: "A.4"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("unknown group error = %v, want *NotFoundError", err)
	}
}

func TestAppendSubsection(t *testing.T) {
	est := buildTestTree()

	if err := est.AppendSubsection("g1", "s2", Subsection{ID: "ss4", Code: "A.2.2"}); err != nil {
		t.Fatalf("AppendSubsection: %v", err)
	}

	// Code must extend the section, not just the group.
	err := est.AppendSubsection("g1", "s2", Subsection{ID: "ss5", Code: "A.1.3"})
	var sv *StructuralViolationError
	if !errors.As(err, &sv) {
		t.Errorf("wrong parent prefix error = %v, want *StructuralViolationError", err)
	}

	// Duplicate code anywhere in the tree is rejected.
	err = est.AppendSubsection("g1", "s2", Subsection{ID: "ss6", Code: "A.2.1"})
	if !errors.As(err, &sv) {
		t.Errorf("duplicate code error = %v, want *StructuralViolationError", err)
	}

	err = est.AppendSubsection("g1", "missing", Subsection{ID: "ss7", Code: "A.2.3"})
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("unknown section error = %v, want *NotFoundError", err)
	}
}
