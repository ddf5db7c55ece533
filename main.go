package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimatecreation/collections"
	"estimatecreation/handlers"
)

func main() {
	app := pocketbase.New()

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		collections.ReconcileAmounts(app)
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── Estimate CRUD ───────────────────────────────────────
		se.Router.GET("/estimates", handlers.HandleEstimateList(app))
		se.Router.POST("/estimates", handlers.HandleEstimateCreate(app))

		// Import and template (before /estimates/{id} so "import" is not matched as an ID)
		se.Router.POST("/estimates/import", handlers.HandleEstimateImport(app))
		se.Router.GET("/estimates/import/template", handlers.HandleTemplateDownload(app))

		se.Router.GET("/estimates/{id}", handlers.HandleEstimateView(app))
		se.Router.POST("/estimates/{id}/save", handlers.HandleEstimateUpdate(app))
		se.Router.DELETE("/estimates/{id}", handlers.HandleEstimateDelete(app))

		// ── Estimate export ─────────────────────────────────────
		se.Router.GET("/estimates/{id}/export/excel", handlers.HandleEstimateExportExcel(app))

		// ── Tree edit - add nodes ───────────────────────────────
		se.Router.POST("/estimates/{id}/groups", handlers.HandleAddGroup(app))
		se.Router.POST("/estimates/{id}/groups/{groupId}/sections", handlers.HandleAddSection(app))
		se.Router.POST("/estimates/{id}/groups/{groupId}/sections/{sectionId}/subsections", handlers.HandleAddSubsection(app))

		// ── Tree edit - patch individual fields ─────────────────
		se.Router.PATCH("/estimates/{id}/groups/{groupId}", handlers.HandlePatchGroup(app))
		se.Router.PATCH("/estimates/{id}/sections/{sectionId}", handlers.HandlePatchSection(app))
		se.Router.PATCH("/estimates/{id}/subsections/{subsectionId}", handlers.HandlePatchSubsection(app))

		// ── Tree edit - delete nodes ────────────────────────────
		se.Router.DELETE("/estimates/{id}/groups/{groupId}", handlers.HandleDeleteGroup(app))
		se.Router.DELETE("/estimates/{id}/sections/{sectionId}", handlers.HandleDeleteSection(app))
		se.Router.DELETE("/estimates/{id}/subsections/{subsectionId}", handlers.HandleDeleteSubsection(app))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
