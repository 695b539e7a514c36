package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zapcast/internal/adapters/authstore"
	"zapcast/internal/adapters/database/postgres"
	httphandler "zapcast/internal/adapters/http/handler"
	"zapcast/internal/adapters/http/router"
	"zapcast/internal/adapters/notifier"
	"zapcast/internal/adapters/waclient"
	"zapcast/internal/core/inbox"
	"zapcast/internal/core/session"
	"zapcast/platform/config"
	"zapcast/platform/db"
	"zapcast/platform/logger"
)

const (
	appName    = "zapcast"
	appVersion = "1.0.0"
)

func main() {
	printBanner()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewFromAppConfig(cfg)
	log.InfoWithFields("Starting zapcast application", map[string]interface{}{
		"version":     appVersion,
		"environment": cfg.Environment,
		"port":        cfg.Server.Port,
	})

	// Banco de dados do inbox
	log.Info("Initializing database connection...")
	var database *db.DB
	if cfg.Database.AutoMigrate {
		database, err = db.NewWithMigrations(cfg.Database.URL, log)
	} else {
		database, err = db.New(cfg.Database.URL)
	}
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to initialize database: %v", err))
	}
	defer database.Close()

	// Armazenamento do material de autenticação das sessões
	store, err := authstore.New(cfg.WhatsApp.AuthDir, log)
	if err != nil {
		log.Fatal(fmt.Sprintf("Failed to initialize auth store: %v", err))
	}

	// Ponte de ingestão de mensagens
	inboxService := inbox.NewService(
		postgres.NewContactRepository(database.DB),
		postgres.NewConversationRepository(database.DB),
		postgres.NewMessageRepository(database.DB),
		log,
	)

	// Hub de notificações em tempo real
	hub := notifier.NewHub(log, cfg.Session.AuthRejectCooldown)
	go hub.Run()

	// Orquestrador de sessões
	factory := waclient.NewFactory(cfg.WhatsApp, log)
	orchestrator := session.NewOrchestrator(
		session.NewRegistry(),
		store,
		factory,
		hub,
		inboxService,
		session.Config{
			IdleTimeout:        cfg.Session.IdleTimeout,
			ReapInterval:       cfg.Session.ReapInterval,
			StartRatePerMinute: cfg.Session.StartRatePerMinute,
		},
		log,
	)

	// Restaura as sessões persistidas antes de aceitar tráfego
	log.Info("Restoring persisted sessions...")
	orchestrator.RestoreAll(ctx)
	orchestrator.StartReaper(ctx)

	handler := router.SetupRoutes(cfg, log, router.Handlers{
		Session:   httphandler.NewSessionHandler(orchestrator, log),
		Inbox:     httphandler.NewInboxHandler(inboxService, log),
		WebSocket: httphandler.NewWebSocketHandler(hub, orchestrator, log),
	})

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)

	go func() {
		log.InfoWithFields("Starting HTTP server", map[string]interface{}{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case sig := <-sigChan:
		log.InfoWithFields("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})
	case err := <-errChan:
		log.ErrorWithFields("Application error", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Initiating graceful shutdown...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithFields("Error shutting down HTTP server", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Derruba os clientes WhatsApp; o material de autenticação permanece
	// para o restore do próximo boot
	orchestrator.DrainAll()
	cancel()

	log.Info("Application shutdown completed successfully")
}

// printBanner exibe o banner da aplicação
func printBanner() {
	banner := `
 ███████╗ █████╗ ██████╗  ██████╗ █████╗ ███████╗████████╗
 ╚══███╔╝██╔══██╗██╔══██╗██╔════╝██╔══██╗██╔════╝╚══██╔══╝
   ███╔╝ ███████║██████╔╝██║     ███████║███████╗   ██║
  ███╔╝  ██╔══██║██╔═══╝ ██║     ██╔══██║╚════██║   ██║
 ███████╗██║  ██║██║     ╚██████╗██║  ██║███████║   ██║
 ╚══════╝╚═╝  ╚═╝╚═╝      ╚═════╝╚═╝  ╚═╝╚══════╝   ╚═╝

 WhatsApp Session Connection Manager
 Version: %s`

	fmt.Printf(banner+"\n", appVersion)
}
