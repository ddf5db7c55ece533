package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// HandleEstimateUpdate updates estimate metadata fields from posted form values.
// Only the fields present in the form are touched.
func HandleEstimateUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		if estimateID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing estimate ID")
		}

		record, err := app.FindRecordById("estimates", estimateID)
		if err != nil {
			log.Printf("estimate_update: not found %s: %v", estimateID, err)
			return ErrorToast(e, http.StatusNotFound, "Estimate not found")
		}

		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		updated := false
		for key, values := range e.Request.Form {
			if len(values) == 0 {
				continue
			}
			val := values[0]
			switch key {
			case "name":
				if strings.TrimSpace(val) == "" {
					return ErrorToast(e, http.StatusBadRequest, "Estimate name is required")
				}
				record.Set("name", val)
				updated = true
			case "project_id":
				record.Set("project_id", val)
				updated = true
			case "client_id":
				record.Set("client_id", val)
				updated = true
			case "date":
				record.Set("date", val)
				updated = true
			case "status":
				if !validStatus(val) {
					return ErrorToast(e, http.StatusBadRequest, "Invalid status")
				}
				record.Set("status", val)
				updated = true
			case "description":
				record.Set("description", val)
				updated = true
			case "notes":
				record.Set("notes", val)
				updated = true
			}
		}

		if updated {
			if err := app.Save(record); err != nil {
				log.Printf("estimate_update: failed to save %s: %v", estimateID, err)
				return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
		}

		SetToast(e, "info", "Estimate saved")
		return e.JSON(http.StatusOK, map[string]string{"id": record.Id})
	}
}
