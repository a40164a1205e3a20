package quotations

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers quotation endpoints. pdfLimit throttles document
// rendering and may be nil.
func (h *Handler) MountRoutes(r chi.Router, pdfLimit func(http.Handler) http.Handler) {
	r.Route("/quotations", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/stats", h.Stats)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Show)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Patch("/finalize", h.Finalize)
			if pdfLimit != nil {
				r.With(pdfLimit).Get("/pdf", h.PDF)
			} else {
				r.Get("/pdf", h.PDF)
			}
		})
	})
}
