package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"splitbill/internal/config"
	"splitbill/internal/db"
	"splitbill/internal/handlers"
	"splitbill/internal/services"
	"splitbill/internal/store"
	"splitbill/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	bills := store.NewBillStore(database)
	participants := store.NewParticipantStore(database)
	items := store.NewItemStore(database)
	splits := store.NewSplitStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	billService := services.NewBillService(txRunner, bills, participants, items, splits, users, audit)
	paymentService := services.NewPaymentService(txRunner, bills, participants, splits, audit, hub)
	settlementService := services.NewSettlementService(bills)

	handler := handlers.New(txRunner, cfg, users, billService, paymentService, settlementService, audit, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("splitbill API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
