package handbook

import (
	"time"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/clipboard"
	"github.com/benvon/handbook/internal/database"
	"github.com/benvon/handbook/internal/ingest"
	"github.com/benvon/handbook/internal/services/ai"
)

// Options configure a Service. Zero values select the defaults.
type Options struct {
	MonthlyTarget     float64
	ExtractionTimeout time.Duration
	ClipboardInterval time.Duration
	// ClipboardReader is polled by Clipboard.Run; nil leaves only push offers
	ClipboardReader clipboard.Reader
	Now             func() time.Time
}

// Service wires the Handbook surfaces to one key-value store and one AI provider
type Service struct {
	Collections *Collections
	Coordinator *ingest.Coordinator
	Assistant   *Assistant
	Budget      *Budget
	Todos       *Todos
	Settings    *Settings
	Health      *Health
	Clipboard   *clipboard.Watcher
}

// New builds the service. provider may be nil, in which case every AI call is unavailable.
func New(kv database.KV, provider ai.AIProvider, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	collections := NewCollections(kv, now, logger)
	settings := NewSettings(kv, collections, logger)

	var extractor ai.Extractor
	var analyzer ai.HealthAnalyzer
	if provider != nil {
		extractor = provider
		analyzer = provider
	}

	coordinator := ingest.NewCoordinator(extractor, collections.Reminders, collections.Transactions, ingest.Options{
		Timeout:   opts.ExtractionTimeout,
		AIEnabled: settings.AIEnabled,
		Now:       now,
		Logger:    logger.Named("ingest"),
	})

	return &Service{
		Collections: collections,
		Coordinator: coordinator,
		Assistant:   NewAssistant(collections.Reminders, coordinator, logger),
		Budget:      NewBudget(collections.Transactions, opts.MonthlyTarget, now, logger),
		Todos:       NewTodos(collections.Todos, collections.Recurring, now),
		Settings:    settings,
		Health:      NewHealth(analyzer, settings.AIEnabled, opts.ExtractionTimeout, logger),
		Clipboard:   clipboard.NewWatcher(opts.ClipboardReader, coordinator, opts.ClipboardInterval, logger.Named("clipboard")),
	}
}
