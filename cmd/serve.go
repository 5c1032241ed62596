package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/biogate/biogate/internal/config"
	"github.com/biogate/biogate/internal/logging"
	"github.com/biogate/biogate/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the verification API server",
	Long: `Start the biogate API server.
The server exposes bootstrap, verification and grant-gated enrollment
endpoints over HTTP. It needs the face and speaker embedding services
reachable at FACE_SERVICE_URL and VOICE_SERVICE_URL.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags, config and
// environment variables. An explicit --port flag wins over PORT.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) (int, string) {
	port := cfg.Server.Port
	if cmd.Flags().Changed("port") {
		port = mustGetInt(cmd, "port")
	}

	host := mustGetString(cmd, "host")
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logging.NewJSON(os.Stderr, slog.LevelInfo)

	svc, st, issuer, err := buildService(cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	port, host := resolveServeHostPort(cmd, cfg)
	server := web.NewServer(cfg, svc, issuer, port, host, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting biogate API on http://%s:%d\n", host, port)
	fmt.Printf("Template store backend: %s\n", cfg.Store.Backend)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
