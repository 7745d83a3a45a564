package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-intake/api"
	"contact-intake/api/middleware"
	"contact-intake/api/services"
	embeddednats "contact-intake/pkg/services/embedded-nats"
	"contact-intake/pkg/services/workers"
	"contact-intake/pkg/shared"
)

func (a *app) initNATS() (*embeddednats.EmbeddedNATS, error) {
	cfg := embeddednats.DefaultConfig()
	cfg.DataDir = a.cfg.NATS.DataDir
	cfg.Port = a.cfg.NATS.Port

	nats, err := embeddednats.New(cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS: %w", err)
	}

	if err := nats.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedded NATS: %w", err)
	}

	if err := nats.CreateIntakeStreams(); err != nil {
		return nil, fmt.Errorf("failed to create intake streams: %w", err)
	}

	if err := nats.CreateDurableConsumer(shared.StreamContacts, shared.ConsumerContactProcessor, shared.SubjectContactsAll); err != nil {
		return nil, fmt.Errorf("failed to create consumer %s: %w", shared.ConsumerContactProcessor, err)
	}

	a.logger.Info("NATS JetStream initialized successfully")
	return nats, nil
}

func (a *app) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	dbService, err := a.openDB()
	if err != nil {
		return err
	}
	defer dbService.Close()

	if err := dbService.VerifySchema(ctx); err != nil {
		return fmt.Errorf("schema verification failed: %w", err)
	}

	var (
		events        services.EventPublisher
		nats          *embeddednats.EmbeddedNATS
		workerManager *workers.Manager
		deps          = map[string]api.HealthChecker{}
	)

	if a.cfg.NATS.Enabled {
		nats, err = a.initNATS()
		if err != nil {
			return err
		}
		events = nats
		deps["nats"] = nats

		workerManager, err = workers.NewManager(nats, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create worker manager: %w", err)
		}
		if err := workerManager.Start(); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
	}

	intake := services.NewIntakeService(dbService, a.linkOptions(), events, a.logger)

	mux := http.NewServeMux()
	handlers := api.NewHandlers(intake, a.cfg.IsProduction(), a.logger)
	handlers.RegisterRoutes(mux, a.cfg.MetricsPath, deps)

	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      middleware.CORS(middleware.RequestLogger(a.logger)(mux)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting contact intake server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}
	a.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Failed to shutdown server gracefully")
	}

	if workerManager != nil {
		if err := workerManager.Stop(); err != nil {
			a.logger.WithError(err).Warn("Failed to stop workers")
		}
	}

	if nats != nil {
		if err := nats.Shutdown(shutdownCtx); err != nil {
			a.logger.WithError(err).Warn("Failed to shutdown NATS")
		}
	}

	a.logger.Info("Server shutdown complete")
	return nil
}
