package handlers

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/handbook"
)

// APIPrefix is the mount point of every versioned route
const APIPrefix = "/api/v1"

// RouterConfig carries the optional collaborators of NewRouter
type RouterConfig struct {
	ScanStatuses ScanStatusStore
	// ScanQueue switches scans to asynchronous processing when set
	ScanQueue JobEnqueuer
	Health    *HealthChecker
	Logger    *zap.Logger
}

// NewRouter mounts the Handbook API on a fresh router
func NewRouter(svc *handbook.Service, cfg RouterConfig) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	health := cfg.Health
	if health == nil {
		health = NewHealthChecker(nil)
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", health.HealthCheck).Methods("GET")
	NewOpenAPIHandler().RegisterRoutes(r)

	api := r.PathPrefix(APIPrefix).Subrouter()

	NewReminderHandler(svc.Assistant, logger.Named("reminders")).RegisterRoutes(api.PathPrefix("/reminders").Subrouter())
	NewBudgetHandler(svc.Budget).RegisterRoutes(api.PathPrefix("/transactions").Subrouter())

	todoHandler := NewTodoHandler(svc.Todos)
	todoHandler.RegisterRoutes(api.PathPrefix("/todos").Subrouter())
	todoHandler.RegisterRecurringRoutes(api.PathPrefix("/recurring").Subrouter())

	var scanOpts []ScanHandlerOption
	if cfg.ScanQueue != nil {
		scanOpts = append(scanOpts, WithScanQueue(cfg.ScanQueue))
	}
	NewScanHandler(svc.Coordinator, svc.Clipboard, cfg.ScanStatuses, logger.Named("scans"), scanOpts...).
		RegisterRoutes(api.PathPrefix("/scans").Subrouter())

	NewClipboardHandler(svc.Clipboard).RegisterRoutes(api.PathPrefix("/clipboard").Subrouter())

	settingsHandler := NewSettingsHandler(svc.Settings, svc.Health, logger.Named("settings"))
	settingsHandler.RegisterRoutes(api.PathPrefix("/settings").Subrouter())
	settingsHandler.RegisterHealthRoutes(api.PathPrefix("/health").Subrouter())

	return r
}
