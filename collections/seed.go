package collections

import (
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimatecreation/services"
)

type subsectionDef struct {
	code     string
	name     string
	quantity float64
	unit     string
	rate     float64
}

type sectionDef struct {
	code        string
	name        string
	quantity    float64
	unit        string
	rate        float64
	subsections []subsectionDef
}

type groupDef struct {
	code     string
	name     string
	sections []sectionDef
}

var seedGroups = []groupDef{
	{
		code: "A",
		name: "Sitework",
		sections: []sectionDef{
			{
				code: "A.1", name: "Clearing and Grubbing",
				subsections: []subsectionDef{
					{code: "A.1.1", name: "Tree Removal", quantity: 12, unit: "EA", rate: 350},
					{code: "A.1.2", name: "Stump Grinding", quantity: 12, unit: "EA", rate: 120},
				},
			},
			{
				code: "A.2", name: "Rough Grading",
				quantity: 4500, unit: "SY", rate: 2.25,
			},
		},
	},
	{
		code: "B",
		name: "Concrete",
		sections: []sectionDef{
			{
				code: "B.1", name: "Foundations",
				subsections: []subsectionDef{
					{code: "B.1.1", name: "Footings", quantity: 85, unit: "CY", rate: 425},
					{code: "B.1.2", name: "Stem Walls", quantity: 60, unit: "CY", rate: 510},
				},
			},
		},
	},
}

// Seed inserts a sample estimate with a small group/section/subsection tree so
// a fresh database has something to look at. It skips silently when any
// estimate already exists, so it is safe to call on every startup.
func Seed(app *pocketbase.PocketBase) error {
	estimatesCol, err := app.FindCollectionByNameOrId("estimates")
	if err != nil {
		return fmt.Errorf("estimates collection not found: %w", err)
	}
	existing, err := app.FindAllRecords(estimatesCol)
	if err != nil {
		return fmt.Errorf("failed to query estimates: %w", err)
	}
	if len(existing) > 0 {
		log.Printf("seed: estimates already present, skipping")
		return nil
	}

	groupsCol, err := app.FindCollectionByNameOrId("estimate_groups")
	if err != nil {
		return fmt.Errorf("estimate_groups collection not found: %w", err)
	}
	sectionsCol, err := app.FindCollectionByNameOrId("estimate_sections")
	if err != nil {
		return fmt.Errorf("estimate_sections collection not found: %w", err)
	}
	subsectionsCol, err := app.FindCollectionByNameOrId("estimate_subsections")
	if err != nil {
		return fmt.Errorf("estimate_subsections collection not found: %w", err)
	}

	estimate := core.NewRecord(estimatesCol)
	estimate.Set("name", "Sample Estimate")
	estimate.Set("project_id", "PRJ-1001")
	estimate.Set("client_id", "CL-204")
	estimate.Set("date", time.Now().Format("2006-01-02"))
	estimate.Set("status", services.StatusDraft)
	estimate.Set("description", "Seeded example showing the group/section/subsection hierarchy.")
	if err := app.Save(estimate); err != nil {
		return fmt.Errorf("failed to save estimate: %w", err)
	}

	for gi, gd := range seedGroups {
		groupAmount := 0.0
		group := core.NewRecord(groupsCol)
		group.Set("estimate", estimate.Id)
		group.Set("sort_order", gi+1)
		group.Set("code", gd.code)
		group.Set("name", gd.name)
		if err := app.Save(group); err != nil {
			return fmt.Errorf("failed to save group %s: %w", gd.code, err)
		}

		for si, sd := range gd.sections {
			section := core.NewRecord(sectionsCol)
			section.Set("group", group.Id)
			section.Set("sort_order", si+1)
			section.Set("code", sd.code)
			section.Set("name", sd.name)
			section.Set("quantity", sd.quantity)
			section.Set("unit", sd.unit)
			section.Set("rate", sd.rate)
			if err := app.Save(section); err != nil {
				return fmt.Errorf("failed to save section %s: %w", sd.code, err)
			}

			subsectionAmounts := make([]float64, 0, len(sd.subsections))
			for ssi, ssd := range sd.subsections {
				amount := services.CalcSubsectionAmount(ssd.quantity, ssd.rate)
				subsection := core.NewRecord(subsectionsCol)
				subsection.Set("section", section.Id)
				subsection.Set("sort_order", ssi+1)
				subsection.Set("code", ssd.code)
				subsection.Set("name", ssd.name)
				subsection.Set("quantity", ssd.quantity)
				subsection.Set("unit", ssd.unit)
				subsection.Set("rate", ssd.rate)
				subsection.Set("amount", amount)
				if err := app.Save(subsection); err != nil {
					return fmt.Errorf("failed to save subsection %s: %w", ssd.code, err)
				}
				subsectionAmounts = append(subsectionAmounts, amount)
			}

			sectionAmount := services.CalcSectionAmount(subsectionAmounts, sd.quantity, sd.rate)
			section.Set("amount", sectionAmount)
			if err := app.Save(section); err != nil {
				return fmt.Errorf("failed to update section %s amount: %w", sd.code, err)
			}
			groupAmount += sectionAmount
		}

		group.Set("amount", groupAmount)
		if err := app.Save(group); err != nil {
			return fmt.Errorf("failed to update group %s amount: %w", gd.code, err)
		}
	}

	log.Printf("seed: created sample estimate %s", estimate.Id)
	return nil
}
