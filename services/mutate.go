package services

import (
	"math"

	"github.com/google/uuid"
)

// Patch is a single typed field edit applied through UpdateNode. The closed
// set of variants keeps invalid field/value combinations unrepresentable.
type Patch interface {
	isPatch()
}

type SetName string
type SetDescription string
type SetUnit string
type SetQuantity float64
type SetRate float64

func (SetName) isPatch()        {}
func (SetDescription) isPatch() {}
func (SetUnit) isPatch()        {}
func (SetQuantity) isPatch()    {}
func (SetRate) isPatch()        {}

// validatePatches rejects negative or non-finite numeric values before any
// mutation happens, keeping UpdateNode atomic.
func validatePatches(patches []Patch) error {
	for _, p := range patches {
		switch v := p.(type) {
		case SetQuantity:
			if err := checkNumeric("quantity", float64(v)); err != nil {
				return err
			}
		case SetRate:
			if err := checkNumeric("rate", float64(v)); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkNumeric(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidFieldError{Field: field, Reason: "value is not a finite number"}
	}
	if v < 0 {
		return &InvalidFieldError{Field: field, Reason: "value must not be negative"}
	}
	return nil
}

func applyPatches(name, description, unit *string, quantity, rate *float64, patches []Patch) {
	for _, p := range patches {
		switch v := p.(type) {
		case SetName:
			*name = string(v)
		case SetDescription:
			*description = string(v)
		case SetUnit:
			*unit = string(v)
		case SetQuantity:
			*quantity = float64(v)
		case SetRate:
			*rate = float64(v)
		}
	}
}

// UpdateNode applies the patches to the node with the given id at any level,
// then recomputes that node and its ancestor chain. It returns the ids of the
// nodes whose amount may have changed, leaf first. On validation failure or an
// unknown id the tree is left exactly as it was.
func UpdateNode(e *EstimateData, nodeID string, patches ...Patch) ([]string, error) {
	if err := validatePatches(patches); err != nil {
		return nil, err
	}

	if g := e.FindGroup(nodeID); g != nil {
		applyPatches(&g.Name, &g.Description, &g.Unit, &g.Quantity, &g.Rate, patches)
		if err := RecomputePath(e, g.ID, "", ""); err != nil {
			return nil, err
		}
		return []string{g.ID}, nil
	}

	if g, s := e.FindSection(nodeID); s != nil {
		applyPatches(&s.Name, &s.Description, &s.Unit, &s.Quantity, &s.Rate, patches)
		if err := RecomputePath(e, g.ID, s.ID, ""); err != nil {
			return nil, err
		}
		return []string{s.ID, g.ID}, nil
	}

	if g, s, ss := e.FindSubsection(nodeID); ss != nil {
		applyPatches(&ss.Name, &ss.Description, &ss.Unit, &ss.Quantity, &ss.Rate, patches)
		if err := RecomputePath(e, g.ID, s.ID, ss.ID); err != nil {
			return nil, err
		}
		return []string{ss.ID, s.ID, g.ID}, nil
	}

	return nil, &NotFoundError{ID: nodeID}
}

// AddGroup appends a new empty group with an auto-allocated top-level code.
func AddGroup(e *EstimateData) (*Group, error) {
	codes := make([]string, len(e.Groups))
	for i := range e.Groups {
		codes[i] = e.Groups[i].Code
	}

	g := Group{
		ID:   uuid.NewString(),
		Code: NextGroupCode(codes),
	}
	if err := e.AppendGroup(g); err != nil {
		return nil, err
	}
	added := &e.Groups[len(e.Groups)-1]
	if err := RecomputePath(e, added.ID, "", ""); err != nil {
		return nil, err
	}
	return added, nil
}

// AddSection appends a new empty section under the given group, allocating
// the next sibling code and recomputing the ancestor chain.
func AddSection(e *EstimateData, groupID string) (*Section, error) {
	g := e.FindGroup(groupID)
	if g == nil {
		return nil, &NotFoundError{ID: groupID}
	}

	codes := make([]string, len(g.Sections))
	for i := range g.Sections {
		codes[i] = g.Sections[i].Code
	}

	s := Section{
		ID:   uuid.NewString(),
		Code: NextChildCode(g.Code, codes),
	}
	if err := e.AppendSection(groupID, s); err != nil {
		return nil, err
	}
	added := &g.Sections[len(g.Sections)-1]
	if err := RecomputePath(e, g.ID, added.ID, ""); err != nil {
		return nil, err
	}
	return added, nil
}

// AddSubsection appends a new empty subsection under the given section.
func AddSubsection(e *EstimateData, groupID, sectionID string) (*Subsection, error) {
	g := e.FindGroup(groupID)
	if g == nil {
		return nil, &NotFoundError{ID: groupID}
	}
	var s *Section
	for j := range g.Sections {
		if g.Sections[j].ID == sectionID {
			s = &g.Sections[j]
			break
		}
	}
	if s == nil {
		return nil, &NotFoundError{ID: sectionID}
	}

	codes := make([]string, len(s.Subsections))
	for i := range s.Subsections {
		codes[i] = s.Subsections[i].Code
	}

	ss := Subsection{
		ID:   uuid.NewString(),
		Code: NextChildCode(s.Code, codes),
	}
	if err := e.AppendSubsection(groupID, sectionID, ss); err != nil {
		return nil, err
	}
	added := &s.Subsections[len(s.Subsections)-1]
	if err := RecomputePath(e, g.ID, s.ID, added.ID); err != nil {
		return nil, err
	}
	return added, nil
}

// DeleteNode removes the node with the given id (descendants cascade with it)
// and recomputes the remaining ancestor chain. It returns the ids of the
// ancestors whose amount was refreshed, leaf first. Deleting a group leaves
// no ancestors to refresh, so the returned list is empty.
func DeleteNode(e *EstimateData, nodeID string) ([]string, error) {
	for i := range e.Groups {
		if e.Groups[i].ID == nodeID {
			e.Groups = append(e.Groups[:i], e.Groups[i+1:]...)
			return []string{}, nil
		}
	}

	for i := range e.Groups {
		g := &e.Groups[i]
		for j := range g.Sections {
			if g.Sections[j].ID == nodeID {
				g.Sections = append(g.Sections[:j], g.Sections[j+1:]...)
				if err := RecomputePath(e, g.ID, "", ""); err != nil {
					return nil, err
				}
				return []string{g.ID}, nil
			}
		}
	}

	for i := range e.Groups {
		g := &e.Groups[i]
		for j := range g.Sections {
			s := &g.Sections[j]
			for k := range s.Subsections {
				if s.Subsections[k].ID == nodeID {
					s.Subsections = append(s.Subsections[:k], s.Subsections[k+1:]...)
					if err := RecomputePath(e, g.ID, s.ID, ""); err != nil {
						return nil, err
					}
					return []string{s.ID, g.ID}, nil
				}
			}
		}
	}

	return nil, &NotFoundError{ID: nodeID}
}
