// Command swingctl — утилита оператора: миграции и управление ролями.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fairwaylab/swingcoach/internal/config"
	"github.com/fairwaylab/swingcoach/internal/storage/repository"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "swingctl",
	Short:         "SwingCoach operator tool",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to config file")
	rootCmd.AddCommand(migrateCmd, setRoleCmd, createAdminCmd, checkAccessCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path is not set: use --config or CONFIG_PATH")
	}
	return config.Load(configPath)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
}

// openStorage загружает конфиг и подключается к базе.
func openStorage(ctx context.Context) (*config.Config, *repository.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	dsn, err := cfg.StorageDSN()
	if err != nil {
		return nil, nil, err
	}
	store, err := repository.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}
