package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimatecreation/services"
)

// HandleEstimateImport receives a CSV or Excel upload, builds an estimate
// tree from it and persists the result as new records. Row-level problems
// are reported as warnings alongside the created estimate id.
// Route: POST /estimates/import
func HandleEstimateImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		// Parse multipart form (max 10MB)
		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		rows, err := services.ParseEstimateFile(file, header.Filename)
		if err != nil {
			log.Printf("estimate_import: parse %s: %v", header.Filename, err)
			switch {
			case errors.Is(err, services.ErrTooLarge):
				return ErrorToast(e, http.StatusRequestEntityTooLarge, "File has too many rows")
			case errors.Is(err, services.ErrMalformedFile):
				return ErrorToast(e, http.StatusBadRequest, "File could not be read. Please check the format and try again.")
			default:
				return ErrorToast(e, http.StatusBadRequest, err.Error())
			}
		}

		result, err := services.BuildEstimate(rows)
		if err != nil {
			log.Printf("estimate_import: build: %v", err)
			switch {
			case errors.Is(err, services.ErrTooLarge):
				return ErrorToast(e, http.StatusRequestEntityTooLarge, "File has too many rows")
			case errors.Is(err, services.ErrMalformedFile):
				return ErrorToast(e, http.StatusBadRequest, "File could not be read. Please check the format and try again.")
			default:
				return ErrorToast(e, http.StatusBadRequest, err.Error())
			}
		}

		estimateID, err := saveImportedEstimate(app, result.Estimate)
		if err != nil {
			log.Printf("estimate_import: save: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		if len(result.Warnings) > 0 {
			SetToast(e, "warning", "Estimate imported with warnings")
		} else {
			SetToast(e, "success", "Estimate imported")
		}

		return e.JSON(http.StatusCreated, map[string]any{
			"id":       estimateID,
			"warnings": result.Warnings,
		})
	}
}
