package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// MaxImportRows caps how many data rows a single import may carry. The parser
// materializes the full row list and tree before aggregating, so unbounded
// input means unbounded memory.
const MaxImportRows = 10000

// Warning kinds recorded for rows that were skipped without aborting the import.
const (
	WarningInvalidRow = "InvalidRow"
	WarningOrphanRow  = "OrphanRow"
)

// Warning describes one skipped import row.
type Warning struct {
	Kind     string `json:"kind"`
	RowIndex int    `json:"row_index"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
}

// ImportResult is the outcome of a successful import: a consistent estimate
// tree plus the warnings collected along the way.
type ImportResult struct {
	Estimate *EstimateData `json:"estimate"`
	Warnings []Warning     `json:"warnings"`
}

// importColumns maps recognized header labels (lowercased) to row keys.
// Code/Name/Description/Quantity/Unit/Rate/Amount are per-row; the estimate
// metadata columns are read from the first data row only.
var importColumns = map[string]string{
	"code":          "code",
	"name":          "name",
	"description":   "description",
	"quantity":      "quantity",
	"qty":           "quantity",
	"unit":          "unit",
	"uom":           "unit",
	"rate":          "rate",
	"amount":        "amount",
	"estimatename":  "estimate_name",
	"estimate name": "estimate_name",
	"projectid":     "project_id",
	"project id":    "project_id",
	"clientid":      "client_id",
	"client id":     "client_id",
	"date":          "date",
	"notes":         "notes",
}

// ParseEstimateFile reads an uploaded .csv or .xlsx file into row maps keyed
// by the canonical column names. The first sheet of a workbook is used.
// Empty or unreadable input fails with ErrMalformedFile; input over
// MaxImportRows fails with ErrTooLarge.
func ParseEstimateFile(file io.Reader, fileName string) ([]map[string]string, error) {
	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = parseCSV(file)
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = parseExcel(file)
	default:
		return nil, fmt.Errorf("%w: unsupported file format %q, must be .csv or .xlsx", ErrMalformedFile, fileName)
	}
	if err != nil {
		return nil, err
	}
	if len(dataRows) > MaxImportRows {
		return nil, fmt.Errorf("%w: %d rows, limit is %d", ErrTooLarge, len(dataRows), MaxImportRows)
	}

	columnKeys := mapHeaders(headers)

	rows := make([]map[string]string, 0, len(dataRows))
	for _, raw := range dataRows {
		row := make(map[string]string)
		for colIdx, key := range columnKeys {
			if key == "" {
				continue
			}
			value := ""
			if colIdx < len(raw) {
				value = strings.TrimSpace(raw[colIdx])
			}
			row[key] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("%w: need a header row and at least one data row", ErrMalformedFile)
	}
	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%w: need a header row and at least one data row", ErrMalformedFile)
	}
	return rows[0], rows[1:], nil
}

// mapHeaders maps uploaded column headers to canonical row keys. Unrecognized
// columns are ignored. A trailing " *" (added by the template for required
// columns) is stripped before matching.
func mapHeaders(headers []string) []string {
	mapped := make([]string, len(headers))
	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		norm = strings.TrimSpace(strings.TrimSuffix(norm, "*"))
		mapped[i] = importColumns[norm]
	}
	return mapped
}

// BuildEstimate reconstructs an estimate tree from ordered flat rows in a
// single forward pass. Rows without Code or Name are skipped with an
// InvalidRow warning; section and subsection rows whose parent has not been
// seen yet are skipped with an OrphanRow warning (there is no second pass for
// late parents). Any Amount column value is ignored so the final tree always
// satisfies the rollup invariant. The bulk aggregation pass runs exactly once
// at the end.
func BuildEstimate(rows []map[string]string) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrMalformedFile)
	}
	if len(rows) > MaxImportRows {
		return nil, fmt.Errorf("%w: %d rows, limit is %d", ErrTooLarge, len(rows), MaxImportRows)
	}

	est := &EstimateData{
		ID:     uuid.NewString(),
		Date:   time.Now(),
		Status: StatusDraft,
		Groups: []Group{},
	}

	// Row 0 may carry estimate metadata. A date that fails to parse keeps
	// the default silently.
	meta := rows[0]
	if v := meta["estimate_name"]; v != "" {
		est.Name = v
	}
	if v := meta["project_id"]; v != "" {
		est.ProjectID = v
	}
	if v := meta["client_id"]; v != "" {
		est.ClientID = v
	}
	if v := meta["description"]; v != "" {
		est.Description = v
	}
	if v := meta["notes"]; v != "" {
		est.Notes = v
	}
	if v := meta["date"]; v != "" {
		if t, ok := parseImportDate(v); ok {
			est.Date = t
		}
	}

	var warnings []Warning
	warn := func(kind string, rowIdx int, code, message string) {
		warnings = append(warnings, Warning{Kind: kind, RowIndex: rowIdx, Code: code, Message: message})
	}

	// Transient code -> id registries, alive only for this pass.
	groupIDByCode := make(map[string]string)
	sectionIDByCode := make(map[string]string)
	sectionGroupID := make(map[string]string)

	for i, row := range rows {
		code := strings.TrimSpace(row["code"])
		name := strings.TrimSpace(row["name"])
		if code == "" || name == "" {
			warn(WarningInvalidRow, i, code, "row is missing Code or Name")
			continue
		}

		depth, err := DepthOf(code)
		if err != nil {
			// Malformed codes are treated the same as missing fields.
			warn(WarningInvalidRow, i, code, err.Error())
			continue
		}

		quantity := parseFloatDefault(row["quantity"], 1)
		rate := parseFloatDefault(row["rate"], 0)
		// row["amount"] is never trusted; amounts are recomputed below.

		switch depth {
		case 1:
			g := Group{
				ID:          uuid.NewString(),
				Code:        code,
				Name:        name,
				Description: row["description"],
				Quantity:    quantity,
				Unit:        row["unit"],
				Rate:        rate,
			}
			if err := est.AppendGroup(g); err != nil {
				warn(WarningInvalidRow, i, code, err.Error())
				continue
			}
			groupIDByCode[code] = g.ID

		case 2:
			parentID, ok := groupIDByCode[ParentOf(code)]
			if !ok {
				warn(WarningOrphanRow, i, code, "no group "+ParentOf(code)+" before this row")
				continue
			}
			s := Section{
				ID:          uuid.NewString(),
				Code:        code,
				Name:        name,
				Description: row["description"],
				Quantity:    quantity,
				Unit:        row["unit"],
				Rate:        rate,
			}
			if err := est.AppendSection(parentID, s); err != nil {
				warn(WarningInvalidRow, i, code, err.Error())
				continue
			}
			sectionIDByCode[code] = s.ID
			sectionGroupID[code] = parentID

		case 3:
			parentCode := ParentOf(code)
			parentID, ok := sectionIDByCode[parentCode]
			if !ok {
				warn(WarningOrphanRow, i, code, "no section "+parentCode+" before this row")
				continue
			}
			ss := Subsection{
				ID:          uuid.NewString(),
				Code:        code,
				Name:        name,
				Description: row["description"],
				Quantity:    quantity,
				Unit:        row["unit"],
				Rate:        rate,
			}
			if err := est.AppendSubsection(sectionGroupID[parentCode], parentID, ss); err != nil {
				warn(WarningInvalidRow, i, code, err.Error())
				continue
			}
		}
	}

	RecomputeTree(est)

	return &ImportResult{Estimate: est, Warnings: warnings}, nil
}

// parseFloatDefault parses a numeric cell, returning def when the cell is
// empty or not a number.
func parseFloatDefault(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

// importDateLayouts are tried in order by parseImportDate.
var importDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// parseImportDate is the best-effort date parser for the metadata row.
func parseImportDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
