package collections

import (
	"log"
	"math"

	"github.com/pocketbase/pocketbase"

	"estimatecreation/services"
)

// ReconcileAmounts recomputes every stored amount from the leaves up and
// rewrites any record whose persisted amount drifted from the derived value.
// Runs once at startup so manual database edits cannot leave stale rollups.
func ReconcileAmounts(app *pocketbase.PocketBase) {
	estimates, err := app.FindRecordsByFilter("estimates", "id != ''", "created", 0, 0)
	if err != nil {
		log.Printf("reconcile: failed to list estimates: %v", err)
		return
	}

	fixed := 0
	for _, estimate := range estimates {
		groups, err := app.FindRecordsByFilter("estimate_groups",
			"estimate = {:id}", "sort_order", 0, 0, map[string]any{"id": estimate.Id})
		if err != nil {
			log.Printf("reconcile: failed to list groups for estimate %s: %v", estimate.Id, err)
			continue
		}

		for _, group := range groups {
			sections, err := app.FindRecordsByFilter("estimate_sections",
				"group = {:id}", "sort_order", 0, 0, map[string]any{"id": group.Id})
			if err != nil {
				log.Printf("reconcile: failed to list sections for group %s: %v", group.Id, err)
				continue
			}

			sectionAmounts := make([]float64, 0, len(sections))
			for _, section := range sections {
				subsections, err := app.FindRecordsByFilter("estimate_subsections",
					"section = {:id}", "sort_order", 0, 0, map[string]any{"id": section.Id})
				if err != nil {
					log.Printf("reconcile: failed to list subsections for section %s: %v", section.Id, err)
					continue
				}

				subsectionAmounts := make([]float64, 0, len(subsections))
				for _, subsection := range subsections {
					amount := services.CalcSubsectionAmount(
						subsection.GetFloat("quantity"), subsection.GetFloat("rate"))
					if drifted(subsection.GetFloat("amount"), amount) {
						subsection.Set("amount", amount)
						if err := app.Save(subsection); err != nil {
							log.Printf("reconcile: failed to save subsection %s: %v", subsection.Id, err)
							continue
						}
						fixed++
					}
					subsectionAmounts = append(subsectionAmounts, amount)
				}

				amount := services.CalcSectionAmount(subsectionAmounts,
					section.GetFloat("quantity"), section.GetFloat("rate"))
				if drifted(section.GetFloat("amount"), amount) {
					section.Set("amount", amount)
					if err := app.Save(section); err != nil {
						log.Printf("reconcile: failed to save section %s: %v", section.Id, err)
						continue
					}
					fixed++
				}
				sectionAmounts = append(sectionAmounts, amount)
			}

			amount := services.CalcGroupAmount(sectionAmounts,
				group.GetFloat("quantity"), group.GetFloat("rate"))
			if drifted(group.GetFloat("amount"), amount) {
				group.Set("amount", amount)
				if err := app.Save(group); err != nil {
					log.Printf("reconcile: failed to save group %s: %v", group.Id, err)
					continue
				}
				fixed++
			}
		}
	}

	if fixed > 0 {
		log.Printf("reconcile: corrected %d stale amounts", fixed)
	}
}

func drifted(stored, derived float64) bool {
	return math.Abs(stored-derived) > 0.001
}
