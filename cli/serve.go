// ABOUTME: Web server subcommand for the dashboard and JSON API
// ABOUTME: Engine metrics are mounted at /metrics on the same listener
package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/harperreed/leadbook/unify"
	"github.com/harperreed/leadbook/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func (a *app) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			metrics := unify.NewMetrics(reg)

			e, err := a.openEngine(cmd.Context(), metrics)
			if err != nil {
				return err
			}
			defer e.Close()

			srv, err := web.NewServer(e.handlers, a.logger, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
			if err != nil {
				return err
			}
			return srv.Start(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "Listen address")
	return cmd
}
