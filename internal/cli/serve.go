package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/iamoneai/laneflow/internal/api"
	"github.com/iamoneai/laneflow/pkg/engine"
)

// serveCommand creates the serve command for the HTTP mode.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		catalogPath string
		mode        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document store and execution engine over HTTP",
		Long: `Serve the document store and execution engine over HTTP.

Endpoints cover document CRUD with snapshots, validation, execution,
the template catalog, and a health check. The store backend is
selected by LANEFLOW_STORE (memory, file, redis, mongo).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, catalogPath, mode)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", getenv(envServeAddr, ":8080"), "listen address")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "TOML template catalog file")
	cmd.Flags().StringVarP(&mode, "mode", "m", "simulated", "execution mode for /v1/run: simulated, live")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, catalogPath, modeStr string) error {
	execMode, err := parseMode(modeStr)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}
	invoker, err := newInvoker(execMode, catalog)
	if err != nil {
		return err
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	server := api.New(st, engine.New(invoker), catalog, c.Logger)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr, "mode", string(execMode))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
