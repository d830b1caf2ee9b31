package main

import (
	"fmt"
	"os"

	"inventario/config"
	"inventario/internal/db"
	"inventario/internal/logs"
	"inventario/server"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "inventario",
		Short:         "Inventario de equipos, IP y asignaciones",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (yaml/json/toml)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			var app server.App
			if err := app.Initialize(cfg); err != nil {
				return err
			}
			return app.Run()
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed the status catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logs.Init(logs.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File})
			g, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, db.PoolOptions{})
			if err != nil {
				return err
			}
			if err := db.Migrate(g); err != nil {
				return err
			}
			logs.Logger.WithField("driver", cfg.Database.Driver).Info("migrations applied")
			return nil
		},
	}

	root.AddCommand(serve, migrate)
	return root
}
