package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/prioritiai/adapter/api"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prioritization HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.ScoreTaskHandler == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		cfg := api.DefaultServerConfig()
		switch {
		case serveAddr != "":
			cfg.Addr = serveAddr
		case app.Config != nil && app.Config.APIAddr != "":
			cfg.Addr = app.Config.APIAddr
		}

		srv := api.NewServer(cfg, app.APIHandler(), app.Health, app.MetricsHandler, Logger())

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-cmd.Context().Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to API_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
