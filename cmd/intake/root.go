package main

import (
	"context"
	"fmt"

	"contact-intake/api/services"
	"contact-intake/config"
	"contact-intake/db"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "intake",
		Short:         "Contact intake service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP intake endpoint",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.serve(cmd.Context())
			},
		},
		newSubmitCmd(a),
		&cobra.Command{
			Use:   "schema",
			Short: "Create missing tables and verify the schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.schema(cmd.Context())
			},
		},
	)

	return root
}

func (a *app) load() error {
	// Load .env files if they exist
	n, err := config.LoadEnv(".env", ".env.local")
	if err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Logger()

	if n > 0 {
		a.logger.WithField("files", n).Debug("Loaded configuration from .env")
	}
	return nil
}

func (a *app) openDB() (*db.Service, error) {
	dbService, err := db.New(&db.Config{
		URL:            a.cfg.DatabaseURL,
		MaxOpenConns:   a.cfg.MaxOpenConns,
		MaxIdleConns:   a.cfg.MaxIdleConns,
		AutoInitialize: true,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}
	return dbService, nil
}

func (a *app) linkOptions() services.LinkOptions {
	return services.LinkOptions{ReusePersonLinks: a.cfg.DedupPersonOrgLinks}
}

func (a *app) schema(ctx context.Context) error {
	dbService, err := a.openDB()
	if err != nil {
		return err
	}
	defer dbService.Close()

	if err := dbService.VerifySchema(ctx); err != nil {
		return err
	}
	a.logger.Info("Schema is up to date")
	return nil
}
