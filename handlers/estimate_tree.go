package handlers

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimatecreation/services"
)

// loadEstimateData fetches an estimate and its full group/section/subsection
// tree into a services.EstimateData. Record ids double as node ids so the
// services mutation API can address records directly.
func loadEstimateData(app *pocketbase.PocketBase, estimateID string) (services.EstimateData, error) {
	estimateRecord, err := app.FindRecordById("estimates", estimateID)
	if err != nil {
		return services.EstimateData{}, fmt.Errorf("estimate not found: %w", err)
	}

	data := services.EstimateData{
		ID:          estimateRecord.Id,
		Name:        estimateRecord.GetString("name"),
		ProjectID:   estimateRecord.GetString("project_id"),
		ClientID:    estimateRecord.GetString("client_id"),
		Date:        estimateRecord.GetDateTime("date").Time(),
		Status:      estimateRecord.GetString("status"),
		Description: estimateRecord.GetString("description"),
		Notes:       estimateRecord.GetString("notes"),
	}

	groupRecords, err := app.FindRecordsByFilter("estimate_groups",
		"estimate = {:id}", "sort_order", 0, 0, map[string]any{"id": estimateID})
	if err != nil {
		groupRecords = nil
	}

	for _, gr := range groupRecords {
		group := services.Group{
			ID:          gr.Id,
			Code:        gr.GetString("code"),
			Name:        gr.GetString("name"),
			Description: gr.GetString("description"),
			Quantity:    gr.GetFloat("quantity"),
			Unit:        gr.GetString("unit"),
			Rate:        gr.GetFloat("rate"),
			Amount:      gr.GetFloat("amount"),
		}

		sectionRecords, err := app.FindRecordsByFilter("estimate_sections",
			"group = {:id}", "sort_order", 0, 0, map[string]any{"id": gr.Id})
		if err != nil {
			sectionRecords = nil
		}

		for _, sr := range sectionRecords {
			section := services.Section{
				ID:          sr.Id,
				Code:        sr.GetString("code"),
				Name:        sr.GetString("name"),
				Description: sr.GetString("description"),
				Quantity:    sr.GetFloat("quantity"),
				Unit:        sr.GetString("unit"),
				Rate:        sr.GetFloat("rate"),
				Amount:      sr.GetFloat("amount"),
			}

			subsectionRecords, err := app.FindRecordsByFilter("estimate_subsections",
				"section = {:id}", "sort_order", 0, 0, map[string]any{"id": sr.Id})
			if err != nil {
				subsectionRecords = nil
			}

			for _, ssr := range subsectionRecords {
				section.Subsections = append(section.Subsections, services.Subsection{
					ID:          ssr.Id,
					Code:        ssr.GetString("code"),
					Name:        ssr.GetString("name"),
					Description: ssr.GetString("description"),
					Quantity:    ssr.GetFloat("quantity"),
					Unit:        ssr.GetString("unit"),
					Rate:        ssr.GetFloat("rate"),
					Amount:      ssr.GetFloat("amount"),
				})
			}

			group.Sections = append(group.Sections, section)
		}

		data.Groups = append(data.Groups, group)
	}

	// Stored amounts can lag behind manual edits; derive them fresh so every
	// consumer works off consistent rollups.
	services.RecomputeTree(&data)

	return data, nil
}

// persistNode writes a single node's fields and amount back to its record.
// The node id must be a record id from loadEstimateData.
func persistNode(app *pocketbase.PocketBase, data *services.EstimateData, nodeID string) error {
	if g := data.FindGroup(nodeID); g != nil {
		record, err := app.FindRecordById("estimate_groups", nodeID)
		if err != nil {
			return err
		}
		record.Set("name", g.Name)
		record.Set("description", g.Description)
		record.Set("quantity", g.Quantity)
		record.Set("unit", g.Unit)
		record.Set("rate", g.Rate)
		record.Set("amount", g.Amount)
		return app.Save(record)
	}

	if _, s := data.FindSection(nodeID); s != nil {
		record, err := app.FindRecordById("estimate_sections", nodeID)
		if err != nil {
			return err
		}
		record.Set("name", s.Name)
		record.Set("description", s.Description)
		record.Set("quantity", s.Quantity)
		record.Set("unit", s.Unit)
		record.Set("rate", s.Rate)
		record.Set("amount", s.Amount)
		return app.Save(record)
	}

	if _, _, ss := data.FindSubsection(nodeID); ss != nil {
		record, err := app.FindRecordById("estimate_subsections", nodeID)
		if err != nil {
			return err
		}
		record.Set("name", ss.Name)
		record.Set("description", ss.Description)
		record.Set("quantity", ss.Quantity)
		record.Set("unit", ss.Unit)
		record.Set("rate", ss.Rate)
		record.Set("amount", ss.Amount)
		return app.Save(record)
	}

	return fmt.Errorf("node %s not in tree", nodeID)
}

// persistNodes writes back every node in ids, logging but not aborting on
// individual failures so a partial rollup update still lands.
func persistNodes(app *pocketbase.PocketBase, data *services.EstimateData, ids []string) {
	for _, id := range ids {
		if err := persistNode(app, data, id); err != nil {
			log.Printf("persist_nodes: failed to save %s: %v", id, err)
		}
	}
}

// nodeAmount returns the current amount of the node with the given id.
func nodeAmount(data *services.EstimateData, nodeID string) float64 {
	if g := data.FindGroup(nodeID); g != nil {
		return g.Amount
	}
	if _, s := data.FindSection(nodeID); s != nil {
		return s.Amount
	}
	if _, _, ss := data.FindSubsection(nodeID); ss != nil {
		return ss.Amount
	}
	return 0
}

// saveImportedEstimate persists a freshly built estimate tree as new records
// and returns the created estimate record id.
func saveImportedEstimate(app *pocketbase.PocketBase, data *services.EstimateData) (string, error) {
	estimatesCol, err := app.FindCollectionByNameOrId("estimates")
	if err != nil {
		return "", fmt.Errorf("collection not found: %w", err)
	}
	groupsCol, err := app.FindCollectionByNameOrId("estimate_groups")
	if err != nil {
		return "", fmt.Errorf("collection not found: %w", err)
	}
	sectionsCol, err := app.FindCollectionByNameOrId("estimate_sections")
	if err != nil {
		return "", fmt.Errorf("collection not found: %w", err)
	}
	subsectionsCol, err := app.FindCollectionByNameOrId("estimate_subsections")
	if err != nil {
		return "", fmt.Errorf("collection not found: %w", err)
	}

	estimateRecord := core.NewRecord(estimatesCol)
	estimateRecord.Set("name", data.Name)
	estimateRecord.Set("project_id", data.ProjectID)
	estimateRecord.Set("client_id", data.ClientID)
	estimateRecord.Set("date", data.Date.Format("2006-01-02"))
	estimateRecord.Set("status", data.Status)
	estimateRecord.Set("description", data.Description)
	estimateRecord.Set("notes", data.Notes)
	if err := app.Save(estimateRecord); err != nil {
		return "", fmt.Errorf("failed to save estimate: %w", err)
	}

	for gi := range data.Groups {
		g := &data.Groups[gi]
		groupRecord := core.NewRecord(groupsCol)
		groupRecord.Set("estimate", estimateRecord.Id)
		groupRecord.Set("sort_order", gi+1)
		groupRecord.Set("code", g.Code)
		groupRecord.Set("name", g.Name)
		groupRecord.Set("description", g.Description)
		groupRecord.Set("quantity", g.Quantity)
		groupRecord.Set("unit", g.Unit)
		groupRecord.Set("rate", g.Rate)
		groupRecord.Set("amount", g.Amount)
		if err := app.Save(groupRecord); err != nil {
			return "", fmt.Errorf("failed to save group %s: %w", g.Code, err)
		}

		for si := range g.Sections {
			s := &g.Sections[si]
			sectionRecord := core.NewRecord(sectionsCol)
			sectionRecord.Set("group", groupRecord.Id)
			sectionRecord.Set("sort_order", si+1)
			sectionRecord.Set("code", s.Code)
			sectionRecord.Set("name", s.Name)
			sectionRecord.Set("description", s.Description)
			sectionRecord.Set("quantity", s.Quantity)
			sectionRecord.Set("unit", s.Unit)
			sectionRecord.Set("rate", s.Rate)
			sectionRecord.Set("amount", s.Amount)
			if err := app.Save(sectionRecord); err != nil {
				return "", fmt.Errorf("failed to save section %s: %w", s.Code, err)
			}

			for ssi := range s.Subsections {
				ss := &s.Subsections[ssi]
				subsectionRecord := core.NewRecord(subsectionsCol)
				subsectionRecord.Set("section", sectionRecord.Id)
				subsectionRecord.Set("sort_order", ssi+1)
				subsectionRecord.Set("code", ss.Code)
				subsectionRecord.Set("name", ss.Name)
				subsectionRecord.Set("description", ss.Description)
				subsectionRecord.Set("quantity", ss.Quantity)
				subsectionRecord.Set("unit", ss.Unit)
				subsectionRecord.Set("rate", ss.Rate)
				subsectionRecord.Set("amount", ss.Amount)
				if err := app.Save(subsectionRecord); err != nil {
					return "", fmt.Errorf("failed to save subsection %s: %w", ss.Code, err)
				}
			}
		}
	}

	return estimateRecord.Id, nil
}
