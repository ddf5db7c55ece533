package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// templateColumn describes one header of the import template.
type templateColumn struct {
	label    string
	required bool
	width    float64
}

// Metadata columns (EstimateName onward) are read from the first data row only.
var templateColumns = []templateColumn{
	{label: "Code", required: true, width: 12},
	{label: "Name", required: true, width: 30},
	{label: "Description", width: 40},
	{label: "Quantity", width: 12},
	{label: "Unit", width: 10},
	{label: "Rate", width: 12},
	{label: "Amount", width: 14},
	{label: "EstimateName", width: 24},
	{label: "ProjectId", width: 16},
	{label: "ClientId", width: 16},
	{label: "Date", width: 14},
	{label: "Notes", width: 30},
}

// GenerateImportTemplate creates a downloadable .xlsx template with the
// columns the import parser understands, a unit dropdown and a few example
// rows showing the dotted code hierarchy.
func GenerateImportTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Estimate"
	defaultSheet := f.GetSheetName(0)
	f.SetSheetName(defaultSheet, sheetName)

	requiredHeaderStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})

	optionalHeaderStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})

	columns := columnLetters(len(templateColumns))
	for i, col := range templateColumns {
		cell := fmt.Sprintf("%s1", columns[i])

		headerText := col.label
		if col.required {
			headerText += " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.required {
			f.SetCellStyle(sheetName, cell, cell, requiredHeaderStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, optionalHeaderStyle)
		}
		f.SetColWidth(sheetName, columns[i], columns[i], col.width)
	}

	// Unit dropdown on the Unit column. Units stay free text on import; the
	// dropdown is a suggestion, not validation the parser enforces.
	for i, col := range templateColumns {
		if col.label != "Unit" {
			continue
		}
		letter := columns[i]
		dv := excelize.NewDataValidation(true)
		dv.Sqref = fmt.Sprintf("%s2:%s1048576", letter, letter)
		dv.SetDropList(UnitOptions)
		f.AddDataValidation(sheetName, dv)
	}

	// Example rows: one group, one section, one subsection.
	examples := [][]any{
		{"A", "Sitework", "General site preparation", 1, "LS", 0, ""},
		{"A.1", "Clearing and Grubbing", "", 2, "DAY", 500, ""},
		{"A.1.1", "Crew and equipment", "", 4, "HR", 250, ""},
	}
	for r, example := range examples {
		for c, v := range example {
			cell := fmt.Sprintf("%s%d", columns[c], r+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	// Freeze header row.
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

// columnLetters returns the first n spreadsheet column letters (A, B, ... Z, AA, ...).
func columnLetters(n int) []string {
	letters := make([]string, n)
	for i := 0; i < n; i++ {
		name, _ := excelize.ColumnNumberToName(i + 1)
		letters[i] = name
	}
	return letters
}
