package services

import "time"

// Subsection is a leaf line item. Its amount is always quantity * rate
// (negatives clamped to zero).
type Subsection struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// Section groups subsections. With children its amount is their sum;
// a childless section falls back to its own quantity * rate.
type Section struct {
	ID          string       `json:"id"`
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Quantity    float64      `json:"quantity"`
	Unit        string       `json:"unit"`
	Rate        float64      `json:"rate"`
	Amount      float64      `json:"amount"`
	Subsections []Subsection `json:"subsections"`
}

// Group is the top hierarchy level. Amount rules mirror Section.
type Group struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Quantity    float64   `json:"quantity"`
	Unit        string    `json:"unit"`
	Rate        float64   `json:"rate"`
	Amount      float64   `json:"amount"`
	Sections    []Section `json:"sections"`
}

// EstimateData is a full cost estimate: metadata plus the group tree.
type EstimateData struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ProjectID   string    `json:"project_id"`
	ClientID    string    `json:"client_id"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Notes       string    `json:"notes"`
	Groups      []Group   `json:"groups"`
}

// ── Lookup ───────────────────────────────────────────────────────────

// FindGroup returns the group with the given id, or nil.
func (e *EstimateData) FindGroup(id string) *Group {
	for i := range e.Groups {
		if e.Groups[i].ID == id {
			return &e.Groups[i]
		}
	}
	return nil
}

// FindSection returns the section with the given id and its owning group.
func (e *EstimateData) FindSection(id string) (*Group, *Section) {
	for i := range e.Groups {
		g := &e.Groups[i]
		for j := range g.Sections {
			if g.Sections[j].ID == id {
				return g, &g.Sections[j]
			}
		}
	}
	return nil, nil
}

// FindSubsection returns the subsection with the given id and its ancestors.
func (e *EstimateData) FindSubsection(id string) (*Group, *Section, *Subsection) {
	for i := range e.Groups {
		g := &e.Groups[i]
		for j := range g.Sections {
			s := &g.Sections[j]
			for k := range s.Subsections {
				if s.Subsections[k].ID == id {
					return g, s, &s.Subsections[k]
				}
			}
		}
	}
	return nil, nil, nil
}

// FindGroupByCode returns the group with the given code, or nil.
func (e *EstimateData) FindGroupByCode(code string) *Group {
	for i := range e.Groups {
		if e.Groups[i].Code == code {
			return &e.Groups[i]
		}
	}
	return nil
}

// FindSectionByCode returns the section with the given code and its owning group.
func (e *EstimateData) FindSectionByCode(code string) (*Group, *Section) {
	g := e.FindGroupByCode(ParentOf(code))
	if g == nil {
		return nil, nil
	}
	for j := range g.Sections {
		if g.Sections[j].Code == code {
			return g, &g.Sections[j]
		}
	}
	return nil, nil
}

// FindSubsectionByCode returns the subsection with the given code and its ancestors.
func (e *EstimateData) FindSubsectionByCode(code string) (*Group, *Section, *Subsection) {
	g, s := e.FindSectionByCode(ParentOf(code))
	if s == nil {
		return nil, nil, nil
	}
	for k := range s.Subsections {
		if s.Subsections[k].Code == code {
			return g, s, &s.Subsections[k]
		}
	}
	return nil, nil, nil
}

// HasCode reports whether any node in the tree carries the given code.
// Codes are unique tree-wide, not just among siblings.
func (e *EstimateData) HasCode(code string) bool {
	for i := range e.Groups {
		g := &e.Groups[i]
		if g.Code == code {
			return true
		}
		for j := range g.Sections {
			s := &g.Sections[j]
			if s.Code == code {
				return true
			}
			for k := range s.Subsections {
				if s.Subsections[k].Code == code {
					return true
				}
			}
		}
	}
	return false
}

// ── Inserts ──────────────────────────────────────────────────────────
//
// All inserts validate the structural invariants up front and reject with a
// StructuralViolationError before touching the tree, so a failed insert never
// leaves a partial mutation behind.

// AppendGroup adds a group to the tree. The code must be a single segment and
// unique across the tree.
func (e *EstimateData) AppendGroup(g Group) error {
	if err := e.checkInsert(g.Code, 1, ""); err != nil {
		return err
	}
	e.Groups = append(e.Groups, g)
	return nil
}

// AppendSection adds a section under the group with the given id. The code
// must have two segments and be prefixed by the parent group's code.
func (e *EstimateData) AppendSection(groupID string, s Section) error {
	g := e.FindGroup(groupID)
	if g == nil {
		return &NotFoundError{ID: groupID}
	}
	if err := e.checkInsert(s.Code, 2, g.Code); err != nil {
		return err
	}
	g.Sections = append(g.Sections, s)
	return nil
}

// AppendSubsection adds a subsection under the section with the given id.
func (e *EstimateData) AppendSubsection(groupID, sectionID string, ss Subsection) error {
	g := e.FindGroup(groupID)
	if g == nil {
		return &NotFoundError{ID: groupID}
	}
	var s *Section
	for j := range g.Sections {
		if g.Sections[j].ID == sectionID {
			s = &g.Sections[j]
			break
		}
	}
	if s == nil {
		return &NotFoundError{ID: sectionID}
	}
	if err := e.checkInsert(ss.Code, 3, s.Code); err != nil {
		return err
	}
	s.Subsections = append(s.Subsections, ss)
	return nil
}

// checkInsert validates code depth, parent prefix and tree-wide uniqueness.
func (e *EstimateData) checkInsert(code string, wantDepth int, parentCode string) error {
	depth, err := DepthOf(code)
	if err != nil {
		return &StructuralViolationError{Code: code, Reason: err.Error()}
	}
	if depth != wantDepth {
		return &StructuralViolationError{
			Code:   code,
			Reason: "expected a depth-" + depthLabel(wantDepth) + " code",
		}
	}
	if parentCode != "" && ParentOf(code) != parentCode {
		return &StructuralViolationError{
			Code:   code,
			Reason: "code does not extend parent code " + parentCode,
		}
	}
	if e.HasCode(code) {
		return &StructuralViolationError{Code: code, Reason: "code already exists in this estimate"}
	}
	return nil
}

func depthLabel(depth int) string {
	switch depth {
	case 1:
		return "1 (group)"
	case 2:
		return "2 (section)"
	default:
		return "3 (subsection)"
	}
}
