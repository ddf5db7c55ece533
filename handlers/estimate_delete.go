package handlers

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// HandleEstimateDelete deletes an estimate. PocketBase cascade deletes the
// whole group/section/subsection tree underneath it.
func HandleEstimateDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		if estimateID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing estimate ID")
		}

		record, err := app.FindRecordById("estimates", estimateID)
		if err != nil {
			log.Printf("estimate_delete: not found %s: %v", estimateID, err)
			return ErrorToast(e, http.StatusNotFound, "Estimate not found")
		}

		if err := app.Delete(record); err != nil {
			log.Printf("estimate_delete: error deleting %s: %v", estimateID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Estimate deleted")
		return e.JSON(http.StatusOK, map[string]string{"deleted": estimateID})
	}
}
