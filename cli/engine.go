// ABOUTME: Wires config, datastore and the unification engine for a single command run
// ABOUTME: The repository serves as source reader, owner directory and mutator at once
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harperreed/leadbook/config"
	"github.com/harperreed/leadbook/db"
	"github.com/harperreed/leadbook/handlers"
	"github.com/harperreed/leadbook/unify"
	"go.uber.org/zap"
)

type engine struct {
	cfg      *config.Config
	database *sql.DB
	repo     *db.LeadRepository
	store    *unify.Store
	mgr      *unify.Manager
	handlers *handlers.ContactHandlers
}

func (a *app) openEngine(ctx context.Context, metrics *unify.Metrics) (*engine, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(ctx, cfg.DBDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.logger.Debug("database opened", zap.String("driver", cfg.DBDriver))

	presets, err := config.LoadPresets(cfg.PresetsPath)
	if err != nil {
		database.Close()
		return nil, err
	}

	opts := []unify.Option{
		unify.WithLogger(a.logger),
		unify.WithRetry(cfg.Retry.Policy()),
		unify.WithPermanentErrors(db.ErrRowNotFound),
		unify.WithJournal(unify.NewJournal(cfg.OwnerName, 200)),
	}
	if metrics != nil {
		opts = append(opts, unify.WithMetrics(metrics))
	}

	repo := db.NewLeadRepository(database, cfg.DBDriver)
	store := unify.NewStore(unify.NewAggregator(repo, repo, opts...), opts...)
	mgr := unify.NewManager(store, repo, opts...)

	return &engine{
		cfg:      cfg,
		database: database,
		repo:     repo,
		store:    store,
		mgr:      mgr,
		handlers: handlers.NewContactHandlers(mgr, presets, cfg.Invalidation(), a.logger),
	}, nil
}

func (e *engine) Close() {
	e.store.Close()
	_ = e.database.Close()
}
