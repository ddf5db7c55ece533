package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimatecreation/services"
)

// parsePatches converts posted form values into typed patches. Unparsable
// numeric values are skipped; range validation happens in services.UpdateNode.
func parsePatches(form map[string][]string) []services.Patch {
	var patches []services.Patch
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		val := values[0]
		switch key {
		case "name":
			patches = append(patches, services.SetName(val))
		case "description":
			patches = append(patches, services.SetDescription(val))
		case "unit":
			patches = append(patches, services.SetUnit(val))
		case "quantity":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				patches = append(patches, services.SetQuantity(f))
			}
		case "rate":
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				patches = append(patches, services.SetRate(f))
			}
		}
	}
	return patches
}

// serviceError maps typed service errors to HTTP error responses.
func serviceError(e *core.RequestEvent, err error) error {
	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		return ErrorToast(e, http.StatusNotFound, "Item not found")
	}
	var invalidField *services.InvalidFieldError
	if errors.As(err, &invalidField) {
		return ErrorToast(e, http.StatusBadRequest, invalidField.Error())
	}
	var violation *services.StructuralViolationError
	if errors.As(err, &violation) {
		return ErrorToast(e, http.StatusBadRequest, violation.Error())
	}
	return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
}

// HandleAddGroup creates a new empty group with the next available top-level code.
func HandleAddGroup(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		if estimateID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing estimate ID")
		}

		data, err := loadEstimateData(app, estimateID)
		if err != nil {
			log.Printf("add_group: %v", err)
			return ErrorToast(e, http.StatusNotFound, "Estimate not found")
		}

		group, err := services.AddGroup(&data)
		if err != nil {
			log.Printf("add_group: %v", err)
			return serviceError(e, err)
		}
		group.Name = "New Group"

		col, err := app.FindCollectionByNameOrId("estimate_groups")
		if err != nil {
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		record := core.NewRecord(col)
		record.Set("estimate", estimateID)
		record.Set("sort_order", len(data.Groups))
		record.Set("code", group.Code)
		record.Set("name", group.Name)
		record.Set("quantity", 0)
		record.Set("rate", 0)
		record.Set("amount", 0)

		if err := app.Save(record); err != nil {
			log.Printf("add_group: error creating record: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Group added")
		return e.JSON(http.StatusCreated, map[string]string{
			"id":   record.Id,
			"code": group.Code,
		})
	}
}

// HandleAddSection creates a new empty section under a group.
func HandleAddSection(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		groupID := e.Request.PathValue("groupId")
		if estimateID == "" || groupID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing required IDs")
		}

		data, err := loadEstimateData(app, estimateID)
		if err != nil {
			log.Printf("add_section: %v", err)
			return ErrorToast(e, http.StatusNotFound, "Estimate not found")
		}

		section, err := services.AddSection(&data, groupID)
		if err != nil {
			log.Printf("add_section: %v", err)
			return serviceError(e, err)
		}
		section.Name = "New Section"

		col, err := app.FindCollectionByNameOrId("estimate_sections")
		if err != nil {
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		group := data.FindGroup(groupID)
		record := core.NewRecord(col)
		record.Set("group", groupID)
		record.Set("sort_order", len(group.Sections))
		record.Set("code", section.Code)
		record.Set("name", section.Name)
		record.Set("quantity", 0)
		record.Set("rate", 0)
		record.Set("amount", 0)

		if err := app.Save(record); err != nil {
			log.Printf("add_section: error creating record: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		// Adding an empty section can flip the parent group from the leaf
		// formula to a child sum, so refresh the stored group amount.
		if err := persistNode(app, &data, groupID); err != nil {
			log.Printf("add_section: failed to refresh group %s: %v", groupID, err)
		}

		SetToast(e, "success", "Section added")
		return e.JSON(http.StatusCreated, map[string]string{
			"id":   record.Id,
			"code": section.Code,
		})
	}
}

// HandleAddSubsection creates a new empty subsection under a section.
func HandleAddSubsection(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		groupID := e.Request.PathValue("groupId")
		sectionID := e.Request.PathValue("sectionId")
		if estimateID == "" || groupID == "" || sectionID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing required IDs")
		}

		data, err := loadEstimateData(app, estimateID)
		if err != nil {
			log.Printf("add_subsection: %v", err)
			return ErrorToast(e, http.StatusNotFound, "Estimate not found")
		}

		subsection, err := services.AddSubsection(&data, groupID, sectionID)
		if err != nil {
			log.Printf("add_subsection: %v", err)
			return serviceError(e, err)
		}
		subsection.Name = "New Subsection"

		col, err := app.FindCollectionByNameOrId("estimate_subsections")
		if err != nil {
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		_, section := data.FindSection(sectionID)
		record := core.NewRecord(col)
		record.Set("section", sectionID)
		record.Set("sort_order", len(section.Subsections))
		record.Set("code", subsection.Code)
		record.Set("name", subsection.Name)
		record.Set("quantity", 0)
		record.Set("rate", 0)
		record.Set("amount", 0)

		if err := app.Save(record); err != nil {
			log.Printf("add_subsection: error creating record: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		// The parent section switches to summing children; write back the
		// refreshed section and group amounts.
		persistNodes(app, &data, []string{sectionID, groupID})

		SetToast(e, "success", "Subsection added")
		return e.JSON(http.StatusCreated, map[string]string{
			"id":   record.Id,
			"code": subsection.Code,
		})
	}
}

// patchNode applies form patches to the node with the given record id and
// persists every node whose amount changed. Shared by all three patch handlers.
func patchNode(app *pocketbase.PocketBase, e *core.RequestEvent, estimateID, nodeID string) error {
	if err := e.Request.ParseForm(); err != nil {
		return ErrorToast(e, http.StatusBadRequest, "Invalid form data")
	}

	data, err := loadEstimateData(app, estimateID)
	if err != nil {
		log.Printf("patch_node: %v", err)
		return ErrorToast(e, http.StatusNotFound, "Estimate not found")
	}

	patches := parsePatches(e.Request.Form)
	affected, err := services.UpdateNode(&data, nodeID, patches...)
	if err != nil {
		log.Printf("patch_node: update %s: %v", nodeID, err)
		return serviceError(e, err)
	}

	persistNodes(app, &data, affected)

	SetToast(e, "info", "Item saved")
	e.Response.Header().Set("Content-Type", "application/json")
	return e.String(http.StatusOK, fmt.Sprintf(`{"amount": %.2f}`, nodeAmount(&data, nodeID)))
}

// HandlePatchGroup updates individual fields on a group.
func HandlePatchGroup(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		groupID := e.Request.PathValue("groupId")
		if estimateID == "" || groupID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing required IDs")
		}
		return patchNode(app, e, estimateID, groupID)
	}
}

// HandlePatchSection updates individual fields on a section and recalculates
// the ancestor chain.
func HandlePatchSection(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		sectionID := e.Request.PathValue("sectionId")
		if estimateID == "" || sectionID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing required IDs")
		}
		return patchNode(app, e, estimateID, sectionID)
	}
}

// HandlePatchSubsection updates individual fields on a subsection and
// recalculates the ancestor chain.
func HandlePatchSubsection(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		subsectionID := e.Request.PathValue("subsectionId")
		if estimateID == "" || subsectionID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing required IDs")
		}
		return patchNode(app, e, estimateID, subsectionID)
	}
}

// deleteNode removes the record for the node with the given id (PocketBase
// cascade handles descendants) and persists the recomputed ancestor amounts.
func deleteNode(app *pocketbase.PocketBase, e *core.RequestEvent, estimateID, collection, nodeID string) error {
	record, err := app.FindRecordById(collection, nodeID)
	if err != nil {
		log.Printf("delete_node: not found %s: %v", nodeID, err)
		return ErrorToast(e, http.StatusNotFound, "Item not found")
	}

	data, err := loadEstimateData(app, estimateID)
	if err != nil {
		log.Printf("delete_node: %v", err)
		return ErrorToast(e, http.StatusNotFound, "Estimate not found")
	}

	affected, err := services.DeleteNode(&data, nodeID)
	if err != nil {
		log.Printf("delete_node: %v", err)
		return serviceError(e, err)
	}

	if err := app.Delete(record); err != nil {
		log.Printf("delete_node: error deleting %s: %v", nodeID, err)
		return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}

	persistNodes(app, &data, affected)

	SetToast(e, "success", "Item deleted")
	return e.JSON(http.StatusOK, map[string]string{"deleted": nodeID})
}

// HandleDeleteGroup deletes a group (cascade deletes its sections and subsections).
func HandleDeleteGroup(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		groupID := e.Request.PathValue("groupId")
		if estimateID == "" || groupID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing required IDs")
		}
		return deleteNode(app, e, estimateID, "estimate_groups", groupID)
	}
}

// HandleDeleteSection deletes a section (cascade deletes its subsections)
// and refreshes the parent group amount.
func HandleDeleteSection(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		sectionID := e.Request.PathValue("sectionId")
		if estimateID == "" || sectionID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing required IDs")
		}
		return deleteNode(app, e, estimateID, "estimate_sections", sectionID)
	}
}

// HandleDeleteSubsection deletes a subsection and refreshes the parent chain.
func HandleDeleteSubsection(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		estimateID := e.Request.PathValue("id")
		subsectionID := e.Request.PathValue("subsectionId")
		if estimateID == "" || subsectionID == "" {
			return ErrorToast(e, http.StatusBadRequest, "Missing required IDs")
		}
		return deleteNode(app, e, estimateID, "estimate_subsections", subsectionID)
	}
}
