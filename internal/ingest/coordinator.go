package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/benvon/handbook/internal/logger"
	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/services/ai"
	"github.com/benvon/handbook/internal/store"
	"github.com/benvon/handbook/internal/validation"
)

// Intent names what an input is expected to contain
type Intent string

const (
	IntentInvite  Intent = "invite"
	IntentReceipt Intent = "receipt"
	IntentText    Intent = "text"
)

// ParseIntent validates a capture intent for image scans
func ParseIntent(s string) (Intent, error) {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentInvite:
		return IntentInvite, nil
	case IntentReceipt:
		return IntentReceipt, nil
	default:
		return "", fmt.Errorf("invalid intent: %q (must be 'invite' or 'receipt')", s)
	}
}

const (
	// DefaultTimeout bounds one extraction call
	DefaultTimeout = 30 * time.Second
	// DefaultScannedLocation is used when an invite has no location
	DefaultScannedLocation = "AI Scanned"
)

// Options tune a Coordinator. Zero values select the defaults.
type Options struct {
	Timeout time.Duration
	// AIEnabled reports the user's AI preference; nil means always enabled
	AIEnabled func(ctx context.Context) bool
	Now       func() time.Time
	Logger    *zap.Logger
}

// Coordinator turns images and text into Handbook records through the extraction capability
// and appends each success to the collection its record type belongs to.
type Coordinator struct {
	extractor    ai.Extractor
	reminders    *store.Collection[models.Reminder]
	transactions *store.Collection[models.Transaction]
	timeout      time.Duration
	aiEnabled    func(ctx context.Context) bool
	now          func() time.Time
	logger       *zap.Logger
	inflight     singleflight.Group
}

// NewCoordinator creates a coordinator. A nil extractor makes every call ExtractionUnavailable.
func NewCoordinator(extractor ai.Extractor, reminders *store.Collection[models.Reminder], transactions *store.Collection[models.Transaction], opts Options) *Coordinator {
	c := &Coordinator{
		extractor:    extractor,
		reminders:    reminders,
		transactions: transactions,
		timeout:      opts.Timeout,
		aiEnabled:    opts.AIEnabled,
		now:          opts.Now,
		logger:       opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// IngestImage extracts an invite or a receipt from an image. Receipts always land in the
// transaction collection whichever surface started the scan.
func (c *Coordinator) IngestImage(ctx context.Context, intent Intent, image []byte, mimeType string) Result {
	if intent != IntentInvite && intent != IntentReceipt {
		return c.fail(intent, unavailable(intent, "unsupported intent", nil))
	}
	if len(image) == 0 {
		return c.fail(intent, unavailable(intent, "no image supplied", nil))
	}

	req := ai.Request{Image: image, MIMEType: mimeType}
	if intent == IntentInvite {
		req.Schema = ai.InviteSchema
		req.Prompt = ai.InvitePrompt(c.now())
	} else {
		req.Schema = ai.ReceiptSchema
		req.Prompt = ai.ReceiptPrompt()
	}
	return c.run(ctx, intent, image, req)
}

// IngestText extracts a transaction from copied text such as a bank SMS
func (c *Coordinator) IngestText(ctx context.Context, text string) Result {
	text = validation.SanitizeText(text)
	if text == "" {
		return c.fail(IntentText, unavailable(IntentText, "no text supplied", nil))
	}
	req := ai.Request{Schema: ai.ReceiptSchema, Prompt: ai.TextReceiptPrompt(), Text: text}
	return c.run(ctx, IntentText, []byte(text), req)
}

func (c *Coordinator) run(ctx context.Context, intent Intent, input []byte, req ai.Request) Result {
	if c.aiEnabled != nil && !c.aiEnabled(ctx) {
		return c.fail(intent, unavailable(intent, "AI engine is disabled in preferences", nil))
	}
	if c.extractor == nil {
		return c.fail(intent, unavailable(intent, "no AI provider configured", nil))
	}

	sum := sha256.Sum256(input)
	key := string(intent) + ":" + hex.EncodeToString(sum[:])

	// Identical concurrent submissions share one extraction and one append
	v, _, shared := c.inflight.Do(key, func() (any, error) {
		return c.extractAndStore(ctx, intent, req), nil
	})
	if shared {
		c.logger.Debug("ingestion_deduplicated", zap.String("intent", string(intent)))
	}
	return v.(Result)
}

func (c *Coordinator) extractAndStore(ctx context.Context, intent Intent, req ai.Request) Result {
	// Detached so one caller abandoning a shared flight cannot fail the others
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := c.now()
	raw, err := c.extractor.Extract(callCtx, req)
	if errors.Is(err, ai.ErrEmptyResponse) {
		// The provider answered, just with nothing usable
		return c.fail(intent, malformed(intent, err))
	}
	if err != nil {
		detail := "provider request failed"
		switch {
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
			detail = fmt.Sprintf("timed out after %s", c.timeout)
		case ai.IsRateLimitError(err):
			detail = "provider rate limited"
		case ai.IsQuotaError(err):
			detail = "provider quota exhausted"
		}
		return c.fail(intent, unavailable(intent, detail, err))
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		if err == nil {
			err = errors.New("null response")
		}
		return c.fail(intent, malformed(intent, err))
	}

	var result Result
	if intent == IntentInvite {
		result = c.storeReminder(callCtx, obj)
	} else {
		result = c.storeTransaction(callCtx, intent, obj)
	}
	result.Intent = intent
	if result.Err != nil {
		return c.fail(intent, result.Err)
	}

	c.logger.Info("ingestion_succeeded",
		zap.String("intent", string(intent)),
		zap.String("kind", string(result.Kind)),
		zap.String("record_id", result.RecordID()),
		zap.Duration("elapsed", c.now().Sub(start)),
		zap.Bool("persisted", result.Warning == nil),
	)
	return result
}

func (c *Coordinator) storeReminder(ctx context.Context, obj map[string]json.RawMessage) Result {
	title, ok := stringField(obj, "title")
	if !ok {
		return Result{Err: incomplete(IntentInvite, "missing title")}
	}
	dateTime, ok := stringField(obj, "dateTime")
	if !ok {
		return Result{Err: incomplete(IntentInvite, "missing dateTime")}
	}
	if _, err := models.ParseDateTime(dateTime); err != nil {
		return Result{Err: incomplete(IntentInvite, "unparsable dateTime "+logger.SanitizePreview(dateTime))}
	}
	location, ok := stringField(obj, "location")
	if !ok {
		location = DefaultScannedLocation
	}

	reminder := models.Reminder{
		ID:         store.NewID(store.OriginAuto),
		Title:      title,
		DateTime:   dateTime,
		Location:   location,
		SourceType: models.SourceTypeImage,
	}
	result := Result{Kind: KindReminder, Reminder: &reminder}
	if err := c.reminders.Append(ctx, reminder); err != nil {
		if !store.IsRecoverable(err) {
			return Result{Err: unavailable(IntentInvite, "reminder collection unavailable", err)}
		}
		result.Warning = err
	}
	return result
}

func (c *Coordinator) storeTransaction(ctx context.Context, intent Intent, obj map[string]json.RawMessage) Result {
	merchant, ok := stringField(obj, "merchant")
	if !ok {
		return Result{Err: incomplete(intent, "missing merchant")}
	}
	rawAmount, present := obj["amount"]
	if !present || string(rawAmount) == "null" {
		return Result{Err: incomplete(intent, "missing amount")}
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return Result{Err: incomplete(intent, err.Error())}
	}
	category, _ := stringField(obj, "category")

	txn := models.Transaction{
		ID:            store.NewID(store.OriginAuto),
		Title:         merchant,
		Amount:        amount,
		Category:      NormalizeCategory(category),
		Date:          c.now().UTC(),
		IsAIProcessed: true,
	}
	result := Result{Kind: KindTransaction, Transaction: &txn}
	if err := c.transactions.Append(ctx, txn); err != nil {
		if !store.IsRecoverable(err) {
			return Result{Err: unavailable(intent, "transaction collection unavailable", err)}
		}
		result.Warning = err
	}
	return result
}

func (c *Coordinator) fail(intent Intent, err *ExtractionError) Result {
	c.logger.Warn("ingestion_failed",
		zap.String("intent", string(intent)),
		zap.String("error_kind", string(err.Kind)),
		zap.String("error", logger.SanitizeError(err)),
	)
	return Result{Intent: intent, Kind: KindFailed, Err: err}
}
