package services

// ExportRow is one flattened line of an estimate for tabular output.
// Level is 0 for groups, 1 for sections, 2 for subsections.
type ExportRow struct {
	Level       int
	Code        string
	Name        string
	Description string
	Quantity    float64
	Unit        string
	Rate        float64
	Amount      float64
}

// ExportData carries everything the Excel writer needs.
type ExportData struct {
	Title       string
	ProjectID   string
	ClientID    string
	Status      string
	Date        string
	Rows        []ExportRow
	TotalAmount float64
}

// BuildExportData flattens an estimate tree into leveled rows in stored
// order, with the grand total from the aggregation engine.
func BuildExportData(e *EstimateData) ExportData {
	var rows []ExportRow

	for i := range e.Groups {
		g := &e.Groups[i]
		rows = append(rows, ExportRow{
			Level:       0,
			Code:        g.Code,
			Name:        g.Name,
			Description: g.Description,
			Quantity:    g.Quantity,
			Unit:        g.Unit,
			Rate:        g.Rate,
			Amount:      g.Amount,
		})
		for j := range g.Sections {
			s := &g.Sections[j]
			rows = append(rows, ExportRow{
				Level:       1,
				Code:        s.Code,
				Name:        s.Name,
				Description: s.Description,
				Quantity:    s.Quantity,
				Unit:        s.Unit,
				Rate:        s.Rate,
				Amount:      s.Amount,
			})
			for k := range s.Subsections {
				ss := &s.Subsections[k]
				rows = append(rows, ExportRow{
					Level:       2,
					Code:        ss.Code,
					Name:        ss.Name,
					Description: ss.Description,
					Quantity:    ss.Quantity,
					Unit:        ss.Unit,
					Rate:        ss.Rate,
					Amount:      ss.Amount,
				})
			}
		}
	}

	date := ""
	if !e.Date.IsZero() {
		date = e.Date.Format("02 Jan 2006")
	}

	return ExportData{
		Title:       e.Name,
		ProjectID:   e.ProjectID,
		ClientID:    e.ClientID,
		Status:      e.Status,
		Date:        date,
		Rows:        rows,
		TotalAmount: CalcEstimateTotals(e).TotalAmount,
	}
}
