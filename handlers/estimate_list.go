package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimatecreation/services"
)

// EstimateSummary is one row of the estimate list response.
type EstimateSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ProjectID   string  `json:"project_id"`
	ClientID    string  `json:"client_id"`
	Status      string  `json:"status"`
	Date        string  `json:"date"`
	TotalAmount float64 `json:"total_amount"`
	GroupCount  int     `json:"group_count"`
}

// HandleEstimateList returns all estimates with their computed totals.
func HandleEstimateList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		records, err := app.FindRecordsByFilter("estimates", "id != ''", "-created", 0, 0)
		if err != nil {
			log.Printf("estimate_list: failed to query estimates: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		summaries := make([]EstimateSummary, 0, len(records))
		for _, record := range records {
			data, err := loadEstimateData(app, record.Id)
			if err != nil {
				log.Printf("estimate_list: failed to load estimate %s: %v", record.Id, err)
				continue
			}
			totals := services.CalcEstimateTotals(&data)

			date := ""
			if dt := record.GetDateTime("date"); !dt.IsZero() {
				date = dt.Time().Format("2006-01-02")
			}

			summaries = append(summaries, EstimateSummary{
				ID:          record.Id,
				Name:        record.GetString("name"),
				ProjectID:   record.GetString("project_id"),
				ClientID:    record.GetString("client_id"),
				Status:      record.GetString("status"),
				Date:        date,
				TotalAmount: totals.TotalAmount,
				GroupCount:  totals.GroupCount,
			})
		}

		return e.JSON(http.StatusOK, map[string]any{"estimates": summaries})
	}
}
