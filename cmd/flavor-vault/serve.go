package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"flavor-vault/internal/api"
	"flavor-vault/internal/app"
	"flavor-vault/internal/telegram"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				srv := &http.Server{
					Addr:    ":" + a.Config.Port,
					Handler: api.NewRouter(a),
				}
				return runServer(srv, "API")
			})
		},
	}
}

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				bot, err := telegram.NewBot(a.Config, a)
				if err != nil {
					return err
				}

				if a.Config.TelegramWebhookURL == "" {
					log.Println("No webhook configured, polling for updates")
					ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
					defer stop()
					bot.Poll(ctx)
					return nil
				}

				mux := http.NewServeMux()
				bot.RegisterHandlers(mux)
				srv := &http.Server{
					Addr:    ":" + a.Config.Port,
					Handler: mux,
				}
				return runServer(srv, "Telegram Bot")
			})
		},
	}
}

// runServer serves until SIGINT or SIGTERM and then shuts down gracefully.
func runServer(srv *http.Server, name string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("%s server listening on %s", name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		return err
	}

	log.Println("Server exiting")
	return nil
}
