package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"innkeeper/internal/auth"
	"innkeeper/internal/observability"
	"innkeeper/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", h.Healthz)
		r.Get("/readyz", h.Readyz)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware)
			r.Use(RateLimitMiddleware(rl))

			r.With(RequireAction(auth.ActionCreateReservation)).Post("/reservations", h.CreateReservation)
			r.With(RequireAction(auth.ActionListReservations)).Get("/reservations", h.ListReservations)
			r.With(RequireAction(auth.ActionListReservations)).Get("/reservations/active", h.ListActive)
			r.With(RequireAction(auth.ActionListReservations)).Get("/reservations/{id}", h.GetReservation)
			r.With(RequireAction(auth.ActionCheckIn)).Post("/reservations/{id}/checkin", h.CheckIn)
			r.With(RequireAction(auth.ActionCheckOut)).Post("/reservations/{id}/checkout", h.CheckOut)
			r.With(RequireAction(auth.ActionCancel)).Post("/reservations/{id}/cancel", h.Cancel)
			r.With(RequireAction(auth.ActionUpdatePaymentStatus)).Patch("/reservations/{id}/payment", h.UpdatePayment)
			r.With(RequireAction(auth.ActionUpdateAmount)).Patch("/reservations/{id}/amount", h.UpdateAmount)
			r.With(RequireAction(auth.ActionManageGuests)).Post("/guests", h.RegisterGuest)
			r.With(RequireAction(auth.ActionManageGuests)).Get("/guests", h.ListGuests)
			r.With(RequireAction(auth.ActionViewOccupancy)).Get("/rooms/occupancy", h.Occupancy)
			r.With(RequireAction(auth.ActionViewReports)).Get("/reports/revenue", h.Revenue)
		})
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
