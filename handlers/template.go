package handlers

import (
	"fmt"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimatecreation/services"
)

// HandleTemplateDownload serves the blank import template with headers,
// example rows and the unit dropdown.
// Route: GET /estimates/import/template
func HandleTemplateDownload(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateImportTemplate()
		if err != nil {
			log.Printf("template_download: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		e.Response.Header().Set("Content-Type",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s"`, "Estimate_Import_Template.xlsx"))
		e.Response.Write(xlsxBytes)
		return nil
	}
}
