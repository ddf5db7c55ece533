package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimatecreation/services"
)

// HandleEstimateCreate creates a new empty estimate from posted form fields.
func HandleEstimateCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseForm(); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
		}

		name := strings.TrimSpace(e.Request.FormValue("name"))
		if name == "" {
			return ErrorToast(e, http.StatusBadRequest, "Estimate name is required")
		}

		status := e.Request.FormValue("status")
		if status == "" {
			status = services.StatusDraft
		}
		if !validStatus(status) {
			return ErrorToast(e, http.StatusBadRequest, "Invalid status")
		}

		col, err := app.FindCollectionByNameOrId("estimates")
		if err != nil {
			log.Printf("estimate_create: collection not found: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		record := core.NewRecord(col)
		record.Set("name", name)
		record.Set("project_id", e.Request.FormValue("project_id"))
		record.Set("client_id", e.Request.FormValue("client_id"))
		record.Set("date", e.Request.FormValue("date"))
		record.Set("status", status)
		record.Set("description", e.Request.FormValue("description"))
		record.Set("notes", e.Request.FormValue("notes"))

		if err := app.Save(record); err != nil {
			log.Printf("estimate_create: failed to save: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Estimate created")
		return e.JSON(http.StatusCreated, map[string]string{"id": record.Id})
	}
}

func validStatus(status string) bool {
	for _, s := range services.StatusOptions {
		if s == status {
			return true
		}
	}
	return false
}
