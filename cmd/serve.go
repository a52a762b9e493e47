package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/classroomhq/faceattend/internal/handlers"
	"github.com/classroomhq/faceattend/internal/recognition"
	"github.com/classroomhq/faceattend/internal/storage"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the public check-in server",
		Long: `Serves the public capture entry point behind shareable links, QR codes
for those links, and the saved session reports.

Frames posted to /face-attendance/public are forwarded to the recognition
service without a login token.`,
		Example: `  # Start server on default port 8888
  faceattend serve

  # Serve saved reports on a custom port
  faceattend serve --port 3000 --reports ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.New()
			if dir := v.GetString("reports"); dir != "" {
				n, err := store.LoadDir(dir)
				if err != nil {
					return err
				}
				slog.Info("Loaded saved reports", "dir", dir, "count", n)
			}

			recognizer := recognition.New(v.GetString("api-url"), nil)
			handler := handlers.New(store, recognizer, v.GetString("origin"))

			// Set up routes
			mux := http.NewServeMux()
			handler.Routes(mux)

			addr := ":" + v.GetString("port")
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Faceattend server available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringP("port", "p", "8888", "Port to listen on")
	cmd.Flags().String("reports", "", "Directory of saved reports to serve")

	return cmd
}
