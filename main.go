package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/hoodlink/server/config"
	"github.com/hoodlink/server/routes"
	"github.com/hoodlink/server/storage"
	"github.com/hoodlink/server/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hoodlink",
		Short: "HoodLink neighborhood API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(config.Migrate)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(config.MigrateDown)
		},
	})
	return cmd
}

func migrate(run func(*gorm.DB) error) error {
	cfg := config.Load()
	conn, err := config.OpenDatabase(config.DSN(cfg), cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return run(conn)
}

func serve() error {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		return err
	}

	// Connects and applies pending goose migrations
	db := config.InitDatabase()
	// Seed migrations may have changed the directory
	utils.InvalidateByPrefix("cache:neighborhoods:")

	store, err := storage.New(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	utils.Sugar.Infow("storage ready", "driver", cfg.StorageDriver)

	r := routes.SetupRouter(db, store)

	utils.StartUploadReconciler(db, store, cfg.UploadReconcileInterval, cfg.UploadOrphanGrace)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
