// ABOUTME: MCP server subcommand serving the lead tools on stdio
// ABOUTME: Optionally exposes engine metrics for Prometheus over HTTP
package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/harperreed/leadbook/handlers"
	"github.com/harperreed/leadbook/unify"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) newMCPCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var metrics *unify.Metrics
			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector())
				metrics = unify.NewMetrics(reg)

				stop, err := serveMetrics(ctx, metricsAddr, reg, a.logger)
				if err != nil {
					return err
				}
				defer stop()
			}

			e, err := a.openEngine(ctx, metrics)
			if err != nil {
				return err
			}
			defer e.Close()

			a.logger.Info("starting MCP server", zap.String("driver", e.cfg.DBDriver))
			server := newMCPServer(cmd.Root().Version, e.handlers)
			if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("MCP server failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func newMCPServer(version string, h *handlers.ContactHandlers) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "leadbook",
		Version: version,
	}, nil)
	handlers.Register(server, h)
	return server
}

// serveMetrics starts the /metrics listener and returns a shutdown func.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *zap.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
