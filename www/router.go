package www

import (
	"net/http"

	"qreport/engine"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	engine   *engine.Engine
	sessions *sessionStore
	eventHub *EventHub
}

// NewRouter creates the chi router and returns it along with a stop function.
func NewRouter(eng *engine.Engine) (http.Handler, func()) {
	h := &Handlers{
		engine:   eng,
		sessions: newSessionStore(eng.AppConfig().Web.SessionSecret),
		eventHub: NewEventHub(),
	}

	h.eventHub.Start()
	h.eventHub.SetupEngineListeners(eng)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// SSE (no auth — local dashboards poll this before signing in)
	r.Get("/events", h.eventHub.HandleSSE)

	// Login/logout
	r.Post("/login", h.apiLogin)
	r.Post("/logout", h.apiLogout)

	// Everything else requires a signed-in technician.
	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)

		r.Get("/session", h.apiSession)
		r.Get("/photos/{uuid}", h.apiServePhoto)

		r.Route("/api", func(r chi.Router) {
			r.Get("/status", h.apiStatus)

			// Facilities
			r.Get("/facilities", h.apiListFacilities)
			r.Post("/facilities", h.apiCreateFacility)
			r.Get("/facilities/{id}", h.apiGetFacility)
			r.Put("/facilities/{id}", h.apiUpdateFacility)
			r.Delete("/facilities/{id}", h.apiDeleteFacility)
			r.Get("/facilities/{id}/islands", h.apiListFacilityIslands)
			r.Post("/facilities/{id}/islands", h.apiCreateIsland)

			// Islands
			r.Get("/islands", h.apiListIslands)
			r.Get("/islands/{id}", h.apiGetIsland)
			r.Put("/islands/{id}", h.apiUpdateIsland)
			r.Delete("/islands/{id}", h.apiDeleteIsland)

			// Checklist templates
			r.Get("/templates", h.apiListTemplates)
			r.Post("/templates", h.apiCreateTemplate)
			r.Put("/templates/{id}", h.apiUpdateTemplate)
			r.Delete("/templates/{id}", h.apiDeleteTemplate)

			// Check-ups
			r.Get("/checkups", h.apiListCheckUps)
			r.Post("/checkups", h.apiCreateCheckUp)
			r.Get("/checkups/{id}", h.apiGetCheckUp)
			r.Put("/checkups/{id}", h.apiUpdateCheckUp)
			r.Delete("/checkups/{id}", h.apiDeleteCheckUp)
			r.Post("/checkups/{id}/start", h.apiStartCheckUp)
			r.Post("/checkups/{id}/complete", h.apiCompleteCheckUp)
			r.Post("/checkups/{id}/archive", h.apiArchiveCheckUp)
			r.Post("/checkups/{id}/cancel", h.apiCancelCheckUp)
			r.Get("/checkups/{id}/stats", h.apiCheckUpStats)
			r.Get("/checkups/{id}/history", h.apiCheckUpHistory)
			r.Post("/checkups/{id}/items", h.apiAddItem)

			// Checklist items
			r.Put("/items/{id}/status", h.apiSetItemStatus)
			r.Post("/items/{id}/cycle", h.apiCycleItem)
			r.Put("/items/{id}/comment", h.apiSetItemComment)

			// Spare parts
			r.Get("/checkups/{id}/spare-parts", h.apiListSpareParts)
			r.Post("/checkups/{id}/spare-parts", h.apiAddSparePart)
			r.Put("/spare-parts/{id}", h.apiUpdateSparePart)
			r.Delete("/spare-parts/{id}", h.apiDeleteSparePart)

			// Photos
			r.Get("/checkups/{id}/photos", h.apiListPhotos)
			r.Post("/checkups/{id}/photos", h.apiUploadPhoto)
			r.Put("/photos/{id}/caption", h.apiUpdatePhotoCaption)
			r.Delete("/photos/{id}", h.apiDeletePhoto)

			// Exports
			r.Get("/checkups/{id}/exports", h.apiListExports)
			r.Post("/checkups/{id}/exports", h.apiCreateExport)
			r.Get("/exports/{id}", h.apiGetExport)
			r.Post("/exports/{id}/retry", h.apiRetryExport)
			r.Get("/exports/{id}/download", h.apiDownloadExport)

			// Backups
			r.Get("/backups", h.apiListBackups)
			r.Post("/backups", h.apiCreateBackup)
			r.Get("/backups/{id}/download", h.apiDownloadBackup)

			// Technicians and config
			r.Get("/technicians", h.apiListTechnicians)
			r.Post("/technicians", h.apiCreateTechnician)
			r.Post("/config/password", h.apiChangePassword)
			r.Put("/config/messaging", h.apiUpdateMessaging)
			r.Put("/config/notify", h.apiUpdateNotify)
			r.Put("/config/web", h.apiUpdateWeb)
		})
	})

	return r, func() {
		h.eventHub.Stop()
	}
}
