// ABOUTME: Web UI and JSON API server with embedded templates
// ABOUTME: Serves the lead dashboard, filtered lists, exports and mutations over HTTP
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harperreed/leadbook/config"
	"github.com/harperreed/leadbook/handlers"
	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
	"github.com/harperreed/leadbook/unify"
	"github.com/harperreed/leadbook/viz"
	"go.uber.org/zap"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	handlers  *handlers.ContactHandlers
	templates *template.Template
	logger    *zap.Logger
	metrics   http.Handler
	now       func() time.Time
}

// NewServer builds a server over h. metrics may be nil.
func NewServer(h *handlers.ContactHandlers, logger *zap.Logger, metrics http.Handler) (*Server, error) {
	funcMap := template.FuncMap{
		"shortDate": func(s string) string {
			if len(s) >= 10 {
				return s[:10]
			}
			return s
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		handlers:  h,
		templates: tmpl,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}, nil
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/", s.handleDashboard)
	r.GET("/contacts", s.handleContacts)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	api := r.Group("/api")
	api.GET("/contacts", s.listContacts)
	api.GET("/stats", s.contactStats)
	api.GET("/export.csv", s.exportContacts)
	api.GET("/graph.svg", s.identityGraph)
	api.GET("/activity", s.recentActivity)
	api.POST("/contacts/bulk", s.bulkUpdate)
	api.PATCH("/contacts/:key", s.updateContact)
	api.DELETE("/contacts/:key", s.deleteContact)
	return r
}

// Start serves on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting web server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down web server: %w", err)
		}
		return nil
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// fail maps engine errors to HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var mutErr *unify.MutationError
	var fetchErr *unify.FetchError
	switch {
	case errors.Is(err, handlers.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidCompositeKey),
		errors.Is(err, models.ErrUnknownOrigin),
		errors.Is(err, unify.ErrEmptyPatch),
		errors.Is(err, unify.ErrNoTargets),
		errors.Is(err, sources.ErrFieldNotMapped),
		errors.Is(err, config.ErrUnknownPreset):
		status = http.StatusBadRequest
	case errors.Is(err, unify.ErrContactNotFound):
		status = http.StatusNotFound
	case errors.As(err, &mutErr), errors.As(err, &fetchErr):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func bindFilters(c *gin.Context) (handlers.FilterInput, error) {
	var in handlers.FilterInput
	if err := c.ShouldBindQuery(&in); err != nil {
		return in, fmt.Errorf("%w: %v", handlers.ErrInvalidInput, err)
	}
	return in, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", handlers.ErrInvalidInput, name)
	}
	return n, nil
}

func (s *Server) handleDashboard(c *gin.Context) {
	filters, err := bindFilters(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	view, err := s.handlers.View(c.Request.Context(), filters)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.render(c, gin.H{
		"Title":           "Dashboard",
		"ContentTemplate": "dashboard-content",
		"Dashboard":       viz.RenderDashboard(viz.BuildDashboard(view, s.now())),
	})
}

func (s *Server) handleContacts(c *gin.Context) {
	filters, err := bindFilters(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	_, out, err := s.handlers.ListContacts(c.Request.Context(), nil, handlers.ListContactsInput{
		Filters: filters,
		Limit:   100,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.render(c, gin.H{
		"Title":           "Contacts",
		"ContentTemplate": "contacts-content",
		"Contacts":        out.Contacts,
		"Total":           out.Total,
		"Stale":           out.Stale,
		"Filters":         filters,
		"Origins":         models.Origins,
		"Priorities":      []string{string(models.PriorityHot), string(models.PriorityWarm), string(models.PriorityCold)},
	})
}

func (s *Server) render(c *gin.Context, data gin.H) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := s.templates.ExecuteTemplate(c.Writer, "layout.html", data); err != nil {
		s.logger.Error("template error", zap.Error(err))
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) listContacts(c *gin.Context) {
	filters, err := bindFilters(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		s.fail(c, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		s.fail(c, err)
		return
	}

	_, out, err := s.handlers.ListContacts(c.Request.Context(), nil, handlers.ListContactsInput{
		Filters: filters,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) contactStats(c *gin.Context) {
	filters, err := bindFilters(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	_, out, err := s.handlers.ContactStats(c.Request.Context(), nil, handlers.ContactStatsInput{Filters: filters})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) exportContacts(c *gin.Context) {
	filters, err := bindFilters(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	_, out, err := s.handlers.ExportContacts(c.Request.Context(), nil, handlers.ExportContactsInput{Filters: filters})
	if err != nil {
		s.fail(c, err)
		return
	}
	filename := fmt.Sprintf("leads-%s.csv", s.now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(out.CSV))
}

func (s *Server) identityGraph(c *gin.Context) {
	filters, err := bindFilters(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	view, err := s.handlers.View(c.Request.Context(), filters)
	if err != nil {
		s.fail(c, err)
		return
	}
	svg, err := viz.GenerateIdentityGraph(c.Request.Context(), view, viz.FormatSVG, c.Query("all") == "true")
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
}

func (s *Server) updateContact(c *gin.Context) {
	var patch handlers.PatchInput
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", handlers.ErrInvalidInput, err))
		return
	}
	_, out, err := s.handlers.UpdateContact(c.Request.Context(), nil, handlers.UpdateContactInput{
		Key:          c.Param("key"),
		Patch:        patch,
		Invalidation: c.Query("invalidation"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) bulkUpdate(c *gin.Context) {
	var in handlers.BulkUpdateContactsInput
	if err := c.ShouldBindJSON(&in); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", handlers.ErrInvalidInput, err))
		return
	}
	_, out, err := s.handlers.BulkUpdateContacts(c.Request.Context(), nil, in)
	if err != nil {
		s.fail(c, err)
		return
	}
	if out.Outcome == string(unify.OutcomeFailed) {
		c.JSON(http.StatusBadGateway, out)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) deleteContact(c *gin.Context) {
	_, out, err := s.handlers.DeleteContact(c.Request.Context(), nil, handlers.DeleteContactInput{
		Key:          c.Param("key"),
		Invalidation: c.Query("invalidation"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) recentActivity(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		s.fail(c, err)
		return
	}
	_, out, err := s.handlers.RecentActivity(c.Request.Context(), nil, handlers.RecentActivityInput{Limit: limit})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
