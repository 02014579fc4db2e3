package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"splitbill/internal/config"
	"splitbill/internal/db"
	"splitbill/internal/middleware"
	"splitbill/internal/websocket"
)

type Handler struct {
	txRunner    db.TxRunner
	cfg         config.Config
	users       UserStore
	bills       BillService
	payments    PaymentService
	settlements SettlementService
	audit       AuditStore
	hub         *websocket.Hub
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, bills BillService, payments PaymentService, settlements SettlementService, audit AuditStore, hub *websocket.Hub) *Handler {
	return &Handler{
		txRunner:    txRunner,
		cfg:         cfg,
		users:       users,
		bills:       bills,
		payments:    payments,
		settlements: settlements,
		audit:       audit,
		hub:         hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})
	router.Route("/bills", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Post("/", h.CreateBill)
		r.Get("/", h.ListBills)
		r.Get("/{id}", h.GetBill)
		r.Patch("/{id}", h.EditBill)
		r.Delete("/{id}", h.DeleteBill)
	})
	router.Route("/items", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Post("/", h.CreateItem)
		r.Get("/{id}", h.GetItem)
		r.Patch("/{id}", h.UpdateItem)
		r.Delete("/{id}", h.DeleteItem)
	})
	router.Route("/payments", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Patch("/", h.UpdatePayments)
		r.Get("/{billId}", h.PaymentSummary)
	})
	router.Route("/splits", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Get("/summary", h.SplitSummary)
		r.Get("/details/{otherUserId}", h.UserSplitDetails)
	})
	router.Route("/users", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Patch("/", h.UpdateProfile)
		r.Get("/activity", h.MyActivity)
	})
	router.Get("/ws/payments", h.WSPayments)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
