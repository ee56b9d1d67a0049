package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/web"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownGrace = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Face Registry web server.

The server loads every enrolled descriptor from the configured database and
exposes the enrollment and recognition endpoints:

  POST /create-face          enroll uploaded images under the "label" field
  POST /checkFace            classify every face of the File1 upload
  GET  /api/v1/labels        list enrolled labels
  DELETE /api/v1/labels/{l}  remove a label
  GET  /api/v1/stats         corpus statistics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT or 5000)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST or 0.0.0.0)")
	serveCmd.Flags().String("driver", "", "Database driver: memory, postgres, sqlite, mariadb (default DATABASE_DRIVER)")
}

// applyServeFlags lets command-line flags override the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if driver := mustGetString(cmd, "driver"); driver != "" {
		cfg.Database.Driver = driver
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyServeFlags(cmd, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Loading descriptors (%s backend)...\n", cfg.Database.Driver)
	p, err := openPipeline(ctx, cfg, cfg.Matching.Concurrency)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer p.Close()

	fmt.Printf("Loaded %d descriptors for %d labels (dim %d, model %s)\n",
		p.store.Len(), len(p.store.Labels()), cfg.Embedding.Dim, cfg.Embedding.Model)
	fmt.Printf("Matcher: %s, threshold %.2f\n", cfg.Matching.Index, cfg.Matching.Threshold)

	server := web.NewServer(cfg, p.store, p.enroller, p.querier)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(drainCtx)
	})

	fmt.Println("Press Ctrl+C to stop")
	return g.Wait()
}
