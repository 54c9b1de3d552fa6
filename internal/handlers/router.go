package handlers

import (
	"net/http"

	"github.com/AravindYuvraj/digital-wallet/internal/config"
	"github.com/AravindYuvraj/digital-wallet/internal/db"
	"github.com/AravindYuvraj/digital-wallet/internal/metrics"
	"github.com/AravindYuvraj/digital-wallet/internal/middleware"
	"github.com/AravindYuvraj/digital-wallet/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	users        UserStore
	transactions TransactionStore
	audit        AuditStore
	wallet       WalletService
	hub          *websocket.Hub
	log          *logrus.Logger
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, transactions TransactionStore, audit AuditStore, wallet WalletService, hub *websocket.Hub, log *logrus.Logger) *Handler {
	return &Handler{
		txRunner:     txRunner,
		cfg:          cfg,
		users:        users,
		transactions: transactions,
		audit:        audit,
		wallet:       wallet,
		hub:          hub,
		log:          log,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(middleware.Recover(h.log))
	router.Use(middleware.HTTPMetrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Digital Wallet API"})
	})

	router.Route("/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/", h.ListUsers)
		r.Get("/{user_id}", h.GetUser)
		r.Put("/{user_id}", h.UpdateUser)
	})

	router.Route("/wallet", func(r chi.Router) {
		r.Get("/{user_id}/balance", h.GetBalance)
		r.Post("/{user_id}/add-money", h.AddMoney)
		r.Post("/{user_id}/withdraw", h.Withdraw)
		r.Post("/{user_id}/transfer", h.Transfer)
		r.Get("/{user_id}/transactions", h.ListTransactions)
	})

	router.Get("/ws/balances", h.WSBalances)
	router.Handle("/metrics", metrics.Handler())

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
