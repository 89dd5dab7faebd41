package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flavor-vault/internal/app"
	"flavor-vault/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "flavor-vault",
		Short:         "Recipe favorites, weekly meal plan and shopping list",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(botCmd())
	rootCmd.AddCommand(favoritesCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(shoppingCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(metricsCmd())
	rootCmd.AddCommand(metricsCleanupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openApp loads the configuration and wires the application.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.New(ctx, cfg)
}

// withApp runs fn with an opened App and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
