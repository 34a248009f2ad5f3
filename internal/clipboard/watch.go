package clipboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/handbook/internal/ingest"
	"github.com/benvon/handbook/internal/logger"
)

// DefaultInterval is the clipboard poll period
const DefaultInterval = 5 * time.Second

// ErrNoSuggestion is returned by Confirm when nothing is pending
var ErrNoSuggestion = errors.New("no clipboard suggestion pending")

// ErrNotExpense is returned by Accept when text does not look like a payment notification
var ErrNotExpense = errors.New("text does not look like a payment notification")

// Reader returns the current clipboard text. Failures are treated as "nothing to read".
type Reader interface {
	ReadText(ctx context.Context) (string, error)
}

// TextIngester runs text extraction for a confirmed suggestion
type TextIngester interface {
	IngestText(ctx context.Context, text string) ingest.Result
}

// Suggestion is clipboard text waiting for the user to confirm or dismiss
type Suggestion struct {
	Text       string    `json:"text"`
	DetectedAt time.Time `json:"detectedAt"`
}

// Watcher polls a Reader and keeps at most one pending suggestion.
// A newer match replaces an unconsumed one; the same text is never surfaced twice in a row.
type Watcher struct {
	reader   Reader
	ingester TextIngester
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	pending  *Suggestion
	lastSeen string
	notify   func(Suggestion)
}

// NewWatcher creates a watcher. reader may be nil when text only arrives through Offer.
func NewWatcher(reader Reader, ingester TextIngester, interval time.Duration, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		reader:   reader,
		ingester: ingester,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// OnSuggestion registers fn to be called, outside the lock, whenever a new suggestion surfaces
func (w *Watcher) OnSuggestion(fn func(Suggestion)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notify = fn
}

// Run polls until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	if w.reader == nil {
		return errors.New("clipboard watcher has no reader")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("clipboard_watch_started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("clipboard_watch_stopped")
			return ctx.Err()
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll reads the clipboard once and reports whether a new suggestion was surfaced
func (w *Watcher) Poll(ctx context.Context) bool {
	text, err := w.reader.ReadText(ctx)
	if err != nil {
		w.logger.Debug("clipboard_read_failed", zap.Error(err))
		return false
	}
	return w.Offer(text)
}

// Offer considers text from any source and reports whether it became the suggestion
func (w *Watcher) Offer(text string) bool {
	if text == "" || !LooksLikeExpense(text) {
		return false
	}

	w.mu.Lock()
	if text == w.lastSeen {
		w.mu.Unlock()
		return false
	}
	w.lastSeen = text
	suggestion := Suggestion{Text: text, DetectedAt: w.now()}
	w.pending = &suggestion
	notify := w.notify
	w.mu.Unlock()

	w.logger.Info("clipboard_suggestion_surfaced", zap.String("preview", logger.SanitizePreview(text)))
	if notify != nil {
		notify(suggestion)
	}
	return true
}

// Suggestion returns the pending suggestion, if any
func (w *Watcher) Suggestion() (Suggestion, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return Suggestion{}, false
	}
	return *w.pending, true
}

// Dismiss clears the pending suggestion
func (w *Watcher) Dismiss() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	had := w.pending != nil
	w.pending = nil
	return had
}

// Confirm consumes the pending suggestion and runs text extraction on it.
// The suggestion is consumed whether or not extraction succeeds.
func (w *Watcher) Confirm(ctx context.Context) (ingest.Result, error) {
	w.mu.Lock()
	pending := w.pending
	w.pending = nil
	w.mu.Unlock()

	if pending == nil {
		return ingest.Result{}, ErrNoSuggestion
	}
	return w.ingest(ctx, *pending)
}

// Accept turns text the user submitted directly into a suggestion and consumes it as confirmed.
// Text that would never be suggested is rejected with ErrNotExpense. The returned suggestion
// replaces any pending one, and the same text is not surfaced again by Poll.
func (w *Watcher) Accept(text string) (Suggestion, error) {
	if !LooksLikeExpense(text) {
		return Suggestion{}, ErrNotExpense
	}

	w.mu.Lock()
	w.lastSeen = text
	w.pending = nil
	w.mu.Unlock()

	w.logger.Info("clipboard_suggestion_accepted", zap.String("preview", logger.SanitizePreview(text)))
	return Suggestion{Text: text, DetectedAt: w.now()}, nil
}

// ConfirmText accepts text and runs text extraction on it
func (w *Watcher) ConfirmText(ctx context.Context, text string) (ingest.Result, error) {
	suggestion, err := w.Accept(text)
	if err != nil {
		return ingest.Result{}, err
	}
	return w.ingest(ctx, suggestion)
}

func (w *Watcher) ingest(ctx context.Context, s Suggestion) (ingest.Result, error) {
	if w.ingester == nil {
		return ingest.Result{}, errors.New("clipboard watcher has no ingester")
	}
	return w.ingester.IngestText(ctx, s.Text), nil
}
