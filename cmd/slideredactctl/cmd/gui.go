package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/clinical-imaging/slideredact/pkg/batch"
)

// NewGUICmd builds the "gui" subcommand: a minimal HTTP surface exposing
// the batch driver's progress channel, standing in for the original
// tool's full browser GUI (thumbnail rendering, directory browsing,
// template rendering), which is out of scope here.
func NewGUICmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gui",
		Short: "serve a minimal HTTP status endpoint over a batch run's progress",
		Long:  "gui starts an HTTP server exposing /progress, backed by a Driver this command creates for itself. That Driver runs no batch and a separate 'run' invocation does not report into it, so /progress reports available=false. It does not itself browse directories or render thumbnails.",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			d := batch.NewDriver(nil)

			mux := http.NewServeMux()
			mux.HandleFunc("/progress", func(w http.ResponseWriter, r *http.Request) {
				p, ok := d.TryPop()
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{"progress": p, "available": ok})
			})
			mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			slog.InfoContext(ctx, "gui listening", "addr", addr)
			server := &http.Server{Addr: addr, Handler: mux}
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("gui server: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8866", "address to listen on")
	return cmd
}
