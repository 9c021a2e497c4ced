package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/nlorenzo/facturo/internal/billing"
	billingStore "github.com/nlorenzo/facturo/internal/billing/store"
	"github.com/nlorenzo/facturo/internal/catalog"
	catalogStore "github.com/nlorenzo/facturo/internal/catalog/store"
	"github.com/nlorenzo/facturo/internal/config"
	"github.com/nlorenzo/facturo/internal/database"
	facturoHttp "github.com/nlorenzo/facturo/internal/http"
	catalogHandler "github.com/nlorenzo/facturo/internal/http/catalog"
	documentHandler "github.com/nlorenzo/facturo/internal/http/document"
	partyHandler "github.com/nlorenzo/facturo/internal/http/party"
	"github.com/nlorenzo/facturo/internal/party"
	partyStore "github.com/nlorenzo/facturo/internal/party/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		catalogService = catalog.NewService(catalogStore.New(db))
		partyService   = party.NewService(partyStore.New(db))
		billingService = billing.NewService(billingStore.New(db), catalogService, partyService)
	)

	var (
		invoicesH = documentHandler.NewHandler(billingService, billing.KindInvoice)
		ordersH   = documentHandler.NewHandler(billingService, billing.KindOrder)
		catalogH  = catalogHandler.NewHandler(catalogService)
		clientsH  = partyHandler.NewHandler(partyService)
	)

	router := facturoHttp.New(facturoHttp.Config{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}, invoicesH, ordersH, catalogH, clientsH)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "addr", server.Addr)

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
