// Package app wires configuration, storage, and the engines together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/defarm/defarm-backend/internal/adapter/postgres"
	accountrepo "github.com/defarm/defarm-backend/internal/adapter/postgres/account"
	circuitrepo "github.com/defarm/defarm-backend/internal/adapter/postgres/circuit"
	eventrepo "github.com/defarm/defarm-backend/internal/adapter/postgres/event"
	historyrepo "github.com/defarm/defarm-backend/internal/adapter/postgres/history"
	itemrepo "github.com/defarm/defarm-backend/internal/adapter/postgres/item"
	mappingrepo "github.com/defarm/defarm-backend/internal/adapter/postgres/mapping"
	"github.com/defarm/defarm-backend/internal/adapter/storage"
	"github.com/defarm/defarm-backend/internal/adapter/storage/ipfs"
	"github.com/defarm/defarm-backend/internal/adapter/storage/local"
	"github.com/defarm/defarm-backend/internal/config"
	"github.com/defarm/defarm-backend/internal/dfid"
	"github.com/defarm/defarm-backend/internal/service/circuits"
	"github.com/defarm/defarm-backend/internal/service/events"
	"github.com/defarm/defarm-backend/internal/service/items"
	"github.com/defarm/defarm-backend/internal/service/storagehistory"
	"github.com/defarm/defarm-backend/pkg/keymutex"
)

// Engines bundles the running services for embedding callers.
type Engines struct {
	Items    *items.Service
	Circuits *circuits.Service
	Events   *events.Service
	History  *storagehistory.Service
	Adapters *storage.Registry
}

// Run is the application entry point. It loads configuration, initializes
// the logger and the database pool, builds the engines, and blocks until
// the context is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	engines := BuildEngines(logger, pool, cfg)

	for t, healthy := range engines.Adapters.HealthAll(ctx) {
		logger.Info("storage adapter registered",
			slog.String("adapter", string(t)),
			slog.Bool("healthy", healthy),
		)
	}

	logger.Info("engines ready")
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// BuildEngines constructs the full service graph on top of a database pool.
func BuildEngines(logger *slog.Logger, pool *pgxpool.Pool, cfg *config.Config) *Engines {
	tx := postgres.NewTxManager(pool)

	itemsRepo := itemrepo.New(pool)
	circuitsRepo := circuitrepo.New(pool)
	mappingsRepo := mappingrepo.New(pool)
	accountsRepo := accountrepo.New(pool)
	eventsRepo := eventrepo.New(pool)
	recordsRepo := historyrepo.NewRecordRepo(pool)
	timelineRepo := historyrepo.NewTimelineRepo(pool)

	eventsSvc := events.NewService(logger, eventsRepo)
	historySvc := storagehistory.NewService(logger, recordsRepo, timelineRepo, tx)
	itemsSvc := items.NewService(logger, itemsRepo, eventsSvc, tx)

	registry := storage.NewRegistry()
	if cfg.Adapters.Local.Enabled {
		registry.Register(local.New())
	}
	if cfg.Adapters.IPFS.APIAddr != "" {
		client := ipfs.NewHTTPClient(cfg.Adapters.IPFS.APIAddr, cfg.Adapters.IPFS.Timeout)
		registry.Register(ipfs.New(client, cfg.Adapters.IPFS.Pin))
	}
	if cfg.Adapters.Stellar.HorizonURL != "" {
		// Anchoring needs a signing Horizon client supplied by the
		// deployment; circuits configured for Stellar degrade to
		// local-only mirroring until one is registered.
		logger.Warn("stellar adapter configured but no signing client available",
			slog.String("horizon_url", cfg.Adapters.Stellar.HorizonURL),
		)
	}

	circuitsSvc := circuits.NewService(
		logger,
		circuitsRepo,
		itemsRepo,
		mappingsRepo,
		accountsRepo,
		dfid.NewGenerator(cfg.DFID.Instance),
		eventsSvc,
		historySvc,
		registry,
		keymutex.New(),
		tx,
	)

	return &Engines{
		Items:    itemsSvc,
		Circuits: circuitsSvc,
		Events:   eventsSvc,
		History:  historySvc,
		Adapters: registry,
	}
}
