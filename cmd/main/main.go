package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stock-data-service/src/app"
	"stock-data-service/src/config"
	"stock-data-service/src/logger"

	"github.com/spf13/cobra"
)

var configPath string

// rootCmd runs the stock data service.
var rootCmd = &cobra.Command{
	Use:          "stock-data-service",
	Short:        "Market data gRPC service with token authentication and health reporting",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig(configPath)
		if err != nil {
			return err
		}
		fmt.Printf("configuration OK: gRPC %s, HTTP %s, %d registered clients\n",
			cfg.GRPCAddress(), cfg.HTTPAddress(), len(cfg.Auth.Clients))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/default.yaml", "path to config file")
	rootCmd.AddCommand(validateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config from YAML file
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return err
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg, cfg.Name)
	defer appLogger.Sync()

	service, err := app.New(cfg, appLogger)
	if err != nil {
		appLogger.Critical("failed to create %s: %v", cfg.Name, err)
		return err
	}

	appLogger.Info("Press Ctrl+C to stop.")
	if err := service.Run(ctx); err != nil {
		appLogger.Critical("%s stopped with error: %v", cfg.Name, err)
		return err
	}

	appLogger.Info("shutting down...")
	return nil
}
