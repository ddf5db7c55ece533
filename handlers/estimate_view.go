package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimatecreation/services"
)

// HandleEstimateView returns the full estimate tree plus computed totals.
func HandleEstimateView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		if estimateID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing estimate ID")
		}

		data, err := loadEstimateData(app, estimateID)
		if err != nil {
			log.Printf("estimate_view: %v", err)
			return ErrorToast(e, http.StatusNotFound, "Estimate not found")
		}

		totals := services.CalcEstimateTotals(&data)
		return e.JSON(http.StatusOK, map[string]any{
			"estimate": data,
			"totals":   totals,
		})
	}
}
