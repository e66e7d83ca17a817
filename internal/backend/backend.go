// Package backend selects and wires the data backend from configuration.
package backend

import (
	"fmt"
	"log/slog"

	"marketlens/internal/amqp"
	"marketlens/internal/config"
	"marketlens/internal/memory"
	"marketlens/internal/ports"
	"marketlens/internal/services"
	"marketlens/internal/storage"
)

// Backend is the full data surface: receipts, suggestions and history.
type Backend interface {
	ports.ReceiptLister
	ports.ReceiptCreator
	ports.ReceiptDeleter
	ports.ItemUpdater
	ports.SuggestionSource
	ports.HistorySource
}

type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) IsValid() bool {
	return t == SQLite || t == Memory
}

// Result bundles the backend with the service wired on top of it. Cleanup
// releases whatever the backend holds; it may be nil.
type Result struct {
	Backend Backend
	Service *services.ReceiptService
	Cleanup func() error
}

// Build creates the backend named by cfg.DataBackend and wires the receipt
// service, attaching the AMQP scan publisher when a broker URL is set. A
// broker that cannot be reached downgrades to local-only operation.
func Build(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	var store Backend
	switch t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite repository: %w", err)
		}
		store = repo
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case Memory:
		store = memory.New()
		logger.Info("Initialized memory backend")
	}

	var publisher services.ScanPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPScanQueue, cfg.AMQPResultQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, uploads will not be processed", "error", err)
		} else {
			publisher = client
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"scan_queue", cfg.AMQPScanQueue,
				"result_queue", cfg.AMQPResultQueue)
		}
	}

	service := services.NewReceiptService(store, publisher)

	return &Result{
		Backend: store,
		Service: service,
		Cleanup: service.Close,
	}, nil
}
