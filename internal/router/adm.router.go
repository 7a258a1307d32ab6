package router

import (
	"net/http"

	"github.com/Silver7Surfer/adminbackend/internal/handler"
	"github.com/Silver7Surfer/adminbackend/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func New(h *handler.AdminHandler, ws *handler.WSHandler, auth *middleware.Auth, reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/ws", ws.Serve)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAdmin)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Get("/{userId}", h.GetUser)
			r.Put("/{userId}", h.UpdateUser)
			r.With(auth.RequireSuperAdmin).Delete("/{userId}", h.DeleteUser)
		})

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/", h.ListWallets)
			r.Get("/{userId}", h.GetWallet)
			// Scoped admins may adjust balances for their assigned
			// users; the service enforces the assignment.
			r.Put("/{userId}/balance", h.UpdateWalletBalance)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/games", func(r chi.Router) {
				r.Get("/profiles", h.ListGameProfiles)
				r.Get("/statistics", h.GameStatistics)
				r.Get("/pending", h.PendingRequests)
				r.Post("/assign-gameid", h.AssignGameID)
				r.Post("/approve-credit", h.ApproveCredit)
				r.Post("/disapprove-credit", h.DisapproveCredit)
				r.Post("/approve-redeem", h.ApproveRedeem)
				r.Post("/disapprove-redeem", h.DisapproveRedeem)
			})

			r.Route("/withdrawals", func(r chi.Router) {
				r.Get("/pending", h.PendingWithdrawals)
				r.Post("/approve", h.ApproveWithdrawal)
				r.Post("/disapprove", h.DisapproveWithdrawal)
			})
		})
	})

	return r
}
