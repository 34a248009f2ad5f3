package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benvon/handbook/internal/database"
	"github.com/benvon/handbook/internal/models"
	"github.com/benvon/handbook/internal/services/ai"
	"github.com/benvon/handbook/internal/store"
)

// mockExtractor is a mock implementation of ai.Extractor for testing
type mockExtractor struct {
	extractFunc func(ctx context.Context, req ai.Request) (json.RawMessage, error)
	calls       atomic.Int32
}

func (m *mockExtractor) Extract(ctx context.Context, req ai.Request) (json.RawMessage, error) {
	m.calls.Add(1)
	if m.extractFunc != nil {
		return m.extractFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func respond(body string) *mockExtractor {
	return &mockExtractor{extractFunc: func(context.Context, ai.Request) (json.RawMessage, error) {
		return json.RawMessage(body), nil
	}}
}

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	coordinator  *Coordinator
	reminders    *store.Collection[models.Reminder]
	transactions *store.Collection[models.Transaction]
}

func newFixture(t *testing.T, extractor ai.Extractor, opts Options) *fixture {
	t.Helper()
	kv := database.NewMemoryStore()
	reminders := store.NewCollection(kv, store.KeyReminders, store.InsertionOrder, func() []models.Reminder { return store.SeedReminders(fixedNow) }, nil)
	transactions := store.NewCollection(kv, store.KeyTransactions, store.NewestFirst, func() []models.Transaction { return store.SeedTransactions(fixedNow) }, nil)
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	return &fixture{
		coordinator:  NewCoordinator(extractor, reminders, transactions, opts),
		reminders:    reminders,
		transactions: transactions,
	}
}

func (f *fixture) counts(t *testing.T) (int, int) {
	t.Helper()
	r, err := f.reminders.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	tx, err := f.transactions.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return len(r), len(tx)
}

func TestIngestImage_ReceiptRoutesToTransactions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t, respond(`{"merchant":"CoffeeCo","amount":42.10,"category":"food"}`), Options{})
	remindersBefore, txBefore := f.counts(t)

	result := f.coordinator.IngestImage(ctx, IntentReceipt, []byte("receipt-jpeg"), "image/jpeg")
	if !result.OK() {
		t.Fatalf("Expected success, got %v", result.Err)
	}
	if result.Kind != KindTransaction || result.Transaction == nil {
		t.Fatalf("Expected transaction result, got %+v", result)
	}

	remindersAfter, txAfter := f.counts(t)
	if txAfter != txBefore+1 {
		t.Errorf("Expected transactions to grow by 1, got %d -> %d", txBefore, txAfter)
	}
	if remindersAfter != remindersBefore {
		t.Errorf("Expected reminders unchanged, got %d -> %d", remindersBefore, remindersAfter)
	}

	txns, _ := f.transactions.Load(ctx)
	got := txns[0]
	if got.ID != result.Transaction.ID {
		t.Errorf("Expected new transaction first, got %s", got.ID)
	}
	if !got.IsAIProcessed {
		t.Error("Expected isAiProcessed to be set")
	}
	if got.Category != models.CategoryFood {
		t.Errorf("Expected category Food, got %s", got.Category)
	}
	if got.Amount != 42.10 {
		t.Errorf("Expected amount 42.10, got %v", got.Amount)
	}
	if got.ID[:5] != "auto-" {
		t.Errorf("Expected auto id prefix, got %s", got.ID)
	}
}

func TestIngestImage_Invite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name         string
		body         string
		wantLocation string
	}{
		{"with location", `{"title":"Design review","dateTime":"2024-05-02T14:00:00Z","location":"Room 4"}`, "Room 4"},
		{"default location", `{"title":"Design review","dateTime":"2024-05-02T14:00"}`, DefaultScannedLocation},
		{"non-string location ignored", `{"title":"Design review","dateTime":"2024-05-02T14:00","location":12}`, DefaultScannedLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, respond(tt.body), Options{})
			_, txBefore := f.counts(t)

			result := f.coordinator.IngestImage(ctx, IntentInvite, []byte("invite-png"), "")
			if !result.OK() {
				t.Fatalf("Expected success, got %v", result.Err)
			}

			reminders, _ := f.reminders.Load(ctx)
			last := reminders[len(reminders)-1]
			if last.ID != result.Reminder.ID {
				t.Errorf("Expected reminder appended at the end, got %s", last.ID)
			}
			if last.SourceType != models.SourceTypeImage {
				t.Errorf("Expected sourceType image, got %s", last.SourceType)
			}
			if last.Location != tt.wantLocation {
				t.Errorf("Expected location %q, got %q", tt.wantLocation, last.Location)
			}
			if _, txAfter := f.counts(t); txAfter != txBefore {
				t.Errorf("Expected transactions unchanged, got %d -> %d", txBefore, txAfter)
			}
		})
	}
}

func TestIngest_Failures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name     string
		intent   Intent
		body     string
		wantKind ErrorKind
		wantIs   error
	}{
		{"receipt missing amount", IntentReceipt, `{"merchant":"CoffeeCo"}`, KindIncomplete, ErrExtractionIncomplete},
		{"receipt null amount", IntentReceipt, `{"merchant":"CoffeeCo","amount":null}`, KindIncomplete, ErrExtractionIncomplete},
		{"receipt negative amount", IntentReceipt, `{"merchant":"CoffeeCo","amount":-3}`, KindIncomplete, ErrExtractionIncomplete},
		{"receipt blank merchant", IntentReceipt, `{"merchant":"  ","amount":3}`, KindIncomplete, ErrExtractionIncomplete},
		{"receipt amount text", IntentReceipt, `{"merchant":"CoffeeCo","amount":"lots"}`, KindIncomplete, ErrExtractionIncomplete},
		{"receipt control character merchant", IntentReceipt, `{"merchant":"\u0007\u0008","amount":3}`, KindIncomplete, ErrExtractionIncomplete},
		{"invite control character title", IntentInvite, `{"title":"\u0007\u0008","dateTime":"2024-03-20T10:00:00Z"}`, KindIncomplete, ErrExtractionIncomplete},
		{"invite missing title", IntentInvite, `{"dateTime":"2024-05-02T14:00"}`, KindIncomplete, ErrExtractionIncomplete},
		{"invite unparsable date", IntentInvite, `{"title":"Sync","dateTime":"next tuesday"}`, KindIncomplete, ErrExtractionIncomplete},
		{"not json", IntentReceipt, `Sorry, I cannot read this receipt`, KindMalformed, ErrExtractionMalformed},
		{"json array", IntentInvite, `[{"title":"Sync"}]`, KindMalformed, ErrExtractionMalformed},
		{"json null", IntentInvite, `null`, KindMalformed, ErrExtractionMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, respond(tt.body), Options{})
			remindersBefore, txBefore := f.counts(t)

			result := f.coordinator.IngestImage(ctx, tt.intent, []byte("img"), "image/jpeg")
			if result.OK() {
				t.Fatal("Expected failure")
			}
			if result.Kind != KindFailed {
				t.Errorf("Expected failed kind, got %s", result.Kind)
			}
			if result.Err.Kind != tt.wantKind {
				t.Errorf("Expected kind %s, got %s", tt.wantKind, result.Err.Kind)
			}
			if !errors.Is(result.AsError(), tt.wantIs) {
				t.Errorf("Expected errors.Is(%v), got %v", tt.wantIs, result.Err)
			}

			remindersAfter, txAfter := f.counts(t)
			if remindersAfter != remindersBefore || txAfter != txBefore {
				t.Errorf("Expected no mutations, got reminders %d -> %d, transactions %d -> %d",
					remindersBefore, remindersAfter, txBefore, txAfter)
			}
		})
	}
}

func TestIngest_EmptyProviderResponseIsMalformed(t *testing.T) {
	t.Parallel()

	f := newFixture(t, &mockExtractor{extractFunc: func(context.Context, ai.Request) (json.RawMessage, error) {
		return nil, fmt.Errorf("gemini: %w", ai.ErrEmptyResponse)
	}}, Options{})
	_, txBefore := f.counts(t)

	result := f.coordinator.IngestText(context.Background(), "You spent $42.10 at CoffeeCo")
	if !errors.Is(result.AsError(), ErrExtractionMalformed) {
		t.Fatalf("Expected ExtractionMalformed, got %v", result.Err)
	}
	if errors.Is(result.AsError(), ErrExtractionUnavailable) {
		t.Error("Expected an empty response not to count as unavailable")
	}
	if _, txAfter := f.counts(t); txAfter != txBefore {
		t.Errorf("Expected no append, got %d -> %d", txBefore, txAfter)
	}
}

func TestIngest_Unavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name      string
		extractor ai.Extractor
		opts      Options
	}{
		{"no provider", nil, Options{}},
		{"provider error", &mockExtractor{extractFunc: func(context.Context, ai.Request) (json.RawMessage, error) {
			return nil, errors.New("connection refused")
		}}, Options{}},
		{"disabled in preferences", respond(`{"merchant":"x","amount":1}`), Options{
			AIEnabled: func(context.Context) bool { return false },
		}},
		{"timeout", &mockExtractor{extractFunc: func(ctx context.Context, _ ai.Request) (json.RawMessage, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}, Options{Timeout: 20 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t, tt.extractor, tt.opts)
			_, txBefore := f.counts(t)

			result := f.coordinator.IngestText(ctx, "You spent $42.10 at CoffeeCo")
			if !errors.Is(result.AsError(), ErrExtractionUnavailable) {
				t.Fatalf("Expected ExtractionUnavailable, got %v", result.Err)
			}
			if _, txAfter := f.counts(t); txAfter != txBefore {
				t.Errorf("Expected no append, got %d -> %d", txBefore, txAfter)
			}
		})
	}
}

func TestIngestImage_InvalidInput(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	extractor := respond(`{}`)
	f := newFixture(t, extractor, Options{})

	if r := f.coordinator.IngestImage(ctx, Intent("selfie"), []byte("img"), ""); r.OK() {
		t.Error("Expected failure for unsupported intent")
	}
	if r := f.coordinator.IngestImage(ctx, IntentReceipt, nil, ""); r.OK() {
		t.Error("Expected failure for empty image")
	}
	if r := f.coordinator.IngestText(ctx, "   "); r.OK() {
		t.Error("Expected failure for blank text")
	}
	if calls := extractor.calls.Load(); calls != 0 {
		t.Errorf("Expected no provider calls for invalid input, got %d", calls)
	}
}

func TestIngestText_SendsTextWithReceiptSchema(t *testing.T) {
	t.Parallel()

	var got ai.Request
	extractor := &mockExtractor{extractFunc: func(_ context.Context, req ai.Request) (json.RawMessage, error) {
		got = req
		return json.RawMessage(`{"merchant":"CoffeeCo","amount":"$42.10"}`), nil
	}}
	f := newFixture(t, extractor, Options{})

	result := f.coordinator.IngestText(context.Background(), "You spent $42.10 at CoffeeCo")
	if !result.OK() {
		t.Fatalf("Expected success, got %v", result.Err)
	}
	if got.Text != "You spent $42.10 at CoffeeCo" || len(got.Image) != 0 {
		t.Errorf("Expected text payload, got %+v", got)
	}
	if got.Schema.Name != ai.ReceiptSchema.Name {
		t.Errorf("Expected receipt schema, got %s", got.Schema.Name)
	}
	if result.Transaction.Amount != 42.10 {
		t.Errorf("Expected string amount to be parsed, got %v", result.Transaction.Amount)
	}
	if result.Transaction.Category != models.CategoryGeneral {
		t.Errorf("Expected General for missing category, got %s", result.Transaction.Category)
	}
}

func TestIngest_DuplicateConcurrentSubmissions(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	extractor := &mockExtractor{extractFunc: func(context.Context, ai.Request) (json.RawMessage, error) {
		once.Do(func() { close(started) })
		<-release
		return json.RawMessage(`{"merchant":"CoffeeCo","amount":4}`), nil
	}}
	f := newFixture(t, extractor, Options{})
	_, txBefore := f.counts(t)

	results := make(chan Result, 2)
	go func() { results <- f.coordinator.IngestImage(context.Background(), IntentReceipt, []byte("same"), "") }()
	<-started
	go func() { results <- f.coordinator.IngestImage(context.Background(), IntentReceipt, []byte("same"), "") }()
	// Give the second submission time to join the in-flight extraction
	time.Sleep(100 * time.Millisecond)
	close(release)

	first, second := <-results, <-results
	if !first.OK() || !second.OK() {
		t.Fatalf("Expected both callers to succeed, got %v / %v", first.Err, second.Err)
	}
	if first.RecordID() != second.RecordID() {
		t.Errorf("Expected shared record, got %s and %s", first.RecordID(), second.RecordID())
	}
	if calls := extractor.calls.Load(); calls != 1 {
		t.Errorf("Expected 1 extraction, got %d", calls)
	}
	if _, txAfter := f.counts(t); txAfter != txBefore+1 {
		t.Errorf("Expected exactly one append, got %d -> %d", txBefore, txAfter)
	}
}

func TestIngest_SequentialCallsAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newFixture(t, respond(`{"merchant":"CoffeeCo","amount":4}`), Options{})
	_, txBefore := f.counts(t)

	// Retrying is the caller's choice and each success appends once
	f.coordinator.IngestImage(ctx, IntentReceipt, []byte("same"), "")
	f.coordinator.IngestImage(ctx, IntentReceipt, []byte("same"), "")

	if _, txAfter := f.counts(t); txAfter != txBefore+2 {
		t.Errorf("Expected two appends, got %d -> %d", txBefore, txAfter)
	}
}

func TestParseIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Intent
		wantErr bool
	}{
		{"invite", IntentInvite, false},
		{" Receipt ", IntentReceipt, false},
		{"text", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseIntent(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseIntent(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseIntent(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
