package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dealhunt/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", handler(s.postV1Run))
			r.Get("/{id}/events", handler(s.getV1RunEvents))
		})

		r.Route("/opportunities", func(r chi.Router) {
			r.Get("/", handler(s.getV1Opportunities))
			r.Post("/{index}/alert", handler(s.postV1OpportunityAlert))
		})

		r.Get("/quota", handler(s.getV1Quota))
		r.Post("/memory/reset", handler(s.postV1MemoryReset))
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
