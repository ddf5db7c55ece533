package services

// The aggregation engine is the only writer of non-leaf amounts. Rollup from
// children is authoritative whenever children exist; a childless section or
// group falls back to the leaf rule (own quantity * rate).

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// CalcSubsectionAmount computes a leaf amount. Negative inputs are clamped to
// zero rather than rejected, matching lenient numeric-input behavior.
func CalcSubsectionAmount(quantity, rate float64) float64 {
	return clampNonNegative(quantity) * clampNonNegative(rate)
}

// CalcSectionAmount computes a section amount from its subsection amounts,
// falling back to quantity * rate when there are no subsections.
func CalcSectionAmount(subsectionAmounts []float64, quantity, rate float64) float64 {
	if len(subsectionAmounts) > 0 {
		var sum float64
		for _, a := range subsectionAmounts {
			sum += a
		}
		return sum
	}
	return CalcSubsectionAmount(quantity, rate)
}

// CalcGroupAmount computes a group amount from its section amounts, falling
// back to quantity * rate when there are no sections.
func CalcGroupAmount(sectionAmounts []float64, quantity, rate float64) float64 {
	if len(sectionAmounts) > 0 {
		var sum float64
		for _, a := range sectionAmounts {
			sum += a
		}
		return sum
	}
	return CalcSubsectionAmount(quantity, rate)
}

// RecomputeSubsection refreshes a leaf's amount in place.
func RecomputeSubsection(ss *Subsection) {
	ss.Amount = CalcSubsectionAmount(ss.Quantity, ss.Rate)
}

// RecomputeSection refreshes a section and all its leaves bottom-up.
func RecomputeSection(s *Section) {
	for i := range s.Subsections {
		RecomputeSubsection(&s.Subsections[i])
	}
	s.Amount = CalcSectionAmount(subsectionAmounts(s), s.Quantity, s.Rate)
}

// RecomputeGroup refreshes a group and its whole subtree bottom-up.
func RecomputeGroup(g *Group) {
	for i := range g.Sections {
		RecomputeSection(&g.Sections[i])
	}
	g.Amount = CalcGroupAmount(sectionAmounts(g), g.Quantity, g.Rate)
}

// RecomputeTree runs one full bottom-up pass over the estimate. Used once by
// the import parser after the tree is built; mutations use RecomputePath.
func RecomputeTree(e *EstimateData) {
	for i := range e.Groups {
		RecomputeGroup(&e.Groups[i])
	}
}

// RecomputePath recomputes amounts along one ancestor chain after a single
// node changed, without rescanning the rest of the tree. sectionID and
// subsectionID may be empty when the edit happened higher up.
func RecomputePath(e *EstimateData, groupID, sectionID, subsectionID string) error {
	g := e.FindGroup(groupID)
	if g == nil {
		return &NotFoundError{ID: groupID}
	}

	if sectionID != "" {
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

		if subsectionID != "" {
			var ss *Subsection
			for k := range s.Subsections {
				if s.Subsections[k].ID == subsectionID {
					ss = &s.Subsections[k]
					break
				}
			}
			if ss == nil {
				return &NotFoundError{ID: subsectionID}
			}
			RecomputeSubsection(ss)
		}

		s.Amount = CalcSectionAmount(subsectionAmounts(s), s.Quantity, s.Rate)
	}

	g.Amount = CalcGroupAmount(sectionAmounts(g), g.Quantity, g.Rate)
	return nil
}

func subsectionAmounts(s *Section) []float64 {
	if len(s.Subsections) == 0 {
		return nil
	}
	amounts := make([]float64, len(s.Subsections))
	for i := range s.Subsections {
		amounts[i] = s.Subsections[i].Amount
	}
	return amounts
}

func sectionAmounts(g *Group) []float64 {
	if len(g.Sections) == 0 {
		return nil
	}
	amounts := make([]float64, len(g.Sections))
	for i := range g.Sections {
		amounts[i] = g.Sections[i].Amount
	}
	return amounts
}

// EstimateTotals summarizes an estimate for list views and exports.
type EstimateTotals struct {
	TotalAmount     float64 `json:"total_amount"`
	GroupCount      int     `json:"group_count"`
	SectionCount    int     `json:"section_count"`
	SubsectionCount int     `json:"subsection_count"`
}

// CalcEstimateTotals sums group amounts and counts nodes per level.
func CalcEstimateTotals(e *EstimateData) EstimateTotals {
	var totals EstimateTotals
	for i := range e.Groups {
		g := &e.Groups[i]
		totals.TotalAmount += g.Amount
		totals.GroupCount++
		totals.SectionCount += len(g.Sections)
		for j := range g.Sections {
			totals.SubsectionCount += len(g.Sections[j].Subsections)
		}
	}
	return totals
}
