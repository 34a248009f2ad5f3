package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/handbook/internal/database"
	"github.com/benvon/handbook/internal/models"
	"github.com/google/go-cmp/cmp"
)

// flakyKV wraps a MemoryStore and fails writes while failPut is set
type flakyKV struct {
	*database.MemoryStore
	mu      sync.Mutex
	failPut bool
	puts    int
}

func newFlakyKV() *flakyKV {
	return &flakyKV{MemoryStore: database.NewMemoryStore()}
}

func (f *flakyKV) setFailPut(fail bool) {
	f.mu.Lock()
	f.failPut = fail
	f.mu.Unlock()
}

func (f *flakyKV) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failPut
	f.puts++
	f.mu.Unlock()
	if fail {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.Put(ctx, key, value)
}

// Update reads the current value and then fails the write while failPut is set
func (f *flakyKV) Update(ctx context.Context, key string, fn database.UpdateFunc) error {
	f.mu.Lock()
	fail := f.failPut
	f.puts++
	f.mu.Unlock()
	if !fail {
		return f.MemoryStore.Update(ctx, key, fn)
	}
	current, err := f.MemoryStore.Get(ctx, key)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return err
	}
	if _, err := fn(current); err != nil {
		return err
	}
	return errors.New("quota exceeded")
}

// slowKV widens the gap between reading and writing a value
type slowKV struct {
	*database.MemoryStore
	delay time.Duration
}

func (s *slowKV) Get(ctx context.Context, key string) ([]byte, error) {
	time.Sleep(s.delay)
	return s.MemoryStore.Get(ctx, key)
}

func (s *slowKV) Update(ctx context.Context, key string, fn database.UpdateFunc) error {
	return s.MemoryStore.Update(ctx, key, func(current []byte) ([]byte, error) {
		time.Sleep(s.delay)
		return fn(current)
	})
}

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func todoCollection(kv database.KV) *Collection[models.Todo] {
	return NewCollection(kv, KeyTodos, NewestFirst, func() []models.Todo { return SeedTodos(fixedNow) }, nil)
}

func TestCollection_LoadSeedsMissingKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := todoCollection(database.NewMemoryStore())
	items, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(SeedTodos(fixedNow), items); diff != "" {
		t.Errorf("Seed mismatch (-want +got):\n%s", diff)
	}
}

func TestCollection_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := database.NewMemoryStore()

	want := []models.Transaction{
		{ID: "manual-1", Title: "Rent", Amount: 1200, Category: models.CategoryHome, Date: fixedNow},
		{ID: "auto-2", Title: "CoffeeCo", Amount: 42.10, Category: models.CategoryFood, Date: fixedNow.Add(time.Hour), IsAIProcessed: true},
		{ID: "manual-3", Title: "Train", Amount: 0, Category: models.CategoryTravel, Date: fixedNow.Add(2 * time.Hour)},
	}

	writer := NewCollection[models.Transaction](kv, KeyTransactions, NewestFirst, nil, nil)
	if err := writer.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// A fresh collection has no cache and must decode from storage
	reader := NewCollection[models.Transaction](kv, KeyTransactions, NewestFirst, nil, nil)
	got, err := reader.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCollection_CorruptState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := database.NewMemoryStore()
	if err := kv.Put(ctx, KeyTodos, []byte(`{not json`)); err != nil {
		t.Fatal(err)
	}

	c := todoCollection(kv)
	items, err := c.Load(ctx)

	var corrupt *CorruptStateError
	if !errors.As(err, &corrupt) {
		t.Fatalf("Expected CorruptStateError, got %v", err)
	}
	if corrupt.Key != KeyTodos {
		t.Errorf("Expected key %s, got %s", KeyTodos, corrupt.Key)
	}
	if len(items) != 0 {
		t.Errorf("Expected empty collection for corrupt state, got %d items", len(items))
	}
	if !IsRecoverable(err) {
		t.Error("Expected corrupt state to be recoverable")
	}

	// Writing replaces the corrupt value
	if err := c.Append(ctx, models.Todo{ID: "manual-a", Text: "a"}); err != nil {
		t.Fatalf("Append after corrupt state failed: %v", err)
	}
	items, err = c.Load(ctx)
	if err != nil {
		t.Fatalf("Expected clean load after overwrite, got %v", err)
	}
	if len(items) != 1 {
		t.Errorf("Expected 1 item, got %d", len(items))
	}
}

func TestCollection_AppendOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		order Order
		want  []string
	}{
		{"newest first prepends", NewestFirst, []string{"c", "b", "a"}},
		{"insertion order appends", InsertionOrder, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewCollection[models.Reminder](database.NewMemoryStore(), KeyReminders, tt.order, nil, nil)
			for _, id := range []string{"a", "b", "c"} {
				if err := c.Append(ctx, models.Reminder{ID: id, Title: id}); err != nil {
					t.Fatalf("Append failed: %v", err)
				}
			}
			items, _ := c.Load(ctx)
			got := make([]string, len(items))
			for i, item := range items {
				got[i] = item.ID
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCollection_RemoveBulk(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewCollection[models.Reminder](database.NewMemoryStore(), KeyReminders, InsertionOrder, nil, nil)
	var seed []models.Reminder
	for _, id := range []string{"a", "b", "c", "d"} {
		seed = append(seed, models.Reminder{ID: id, Title: id})
	}
	if err := c.Save(ctx, seed); err != nil {
		t.Fatal(err)
	}

	selected := map[string]bool{"a": true, "c": true}
	removed, err := c.Remove(ctx, func(r models.Reminder) bool { return selected[r.ID] })
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 removed, got %d", removed)
	}

	items, _ := c.Load(ctx)
	got := []string{}
	for _, item := range items {
		got = append(got, item.ID)
	}
	if diff := cmp.Diff([]string{"b", "d"}, got); diff != "" {
		t.Errorf("Remaining mismatch (-want +got):\n%s", diff)
	}
}

func TestCollection_UpdateToggleTwice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := todoCollection(database.NewMemoryStore())
	original := models.Todo{ID: "manual-x", Text: "water plants", Priority: models.PriorityLow, CreatedAt: fixedNow}
	if err := c.Save(ctx, []models.Todo{original}); err != nil {
		t.Fatal(err)
	}

	toggle := func(td *models.Todo) { td.Completed = !td.Completed }
	first, err := c.Update(ctx, original.ID, toggle)
	if err != nil {
		t.Fatalf("First toggle failed: %v", err)
	}
	if !first.Completed {
		t.Error("Expected completed after first toggle")
	}
	if _, err := c.Update(ctx, original.ID, toggle); err != nil {
		t.Fatalf("Second toggle failed: %v", err)
	}

	items, _ := c.Load(ctx)
	if diff := cmp.Diff([]models.Todo{original}, items); diff != "" {
		t.Errorf("Expected double toggle to restore the record (-want +got):\n%s", diff)
	}
}

func TestCollection_UpdateMissingID(t *testing.T) {
	t.Parallel()

	c := todoCollection(database.NewMemoryStore())
	_, err := c.Update(context.Background(), "missing", func(*models.Todo) {})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCollection_UpdateCannotChangeID(t *testing.T) {
	t.Parallel()

	c := todoCollection(database.NewMemoryStore())
	_, err := c.Update(context.Background(), "seed-mindfulness", func(td *models.Todo) { td.ID = "other" })
	if err == nil {
		t.Error("Expected error when mutator changes the id")
	}
}

func TestCollection_WriteFailureKeepsMemory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := newFlakyKV()

	c := todoCollection(kv)
	kv.setFailPut(true)

	err := c.Append(ctx, models.Todo{ID: "manual-1", Text: "one"})
	var writeErr *StorageWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("Expected StorageWriteError, got %v", err)
	}
	if err := c.Append(ctx, models.Todo{ID: "manual-2", Text: "two"}); !IsRecoverable(err) {
		t.Fatalf("Expected recoverable write error, got %v", err)
	}

	items, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("Unexpected load error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected memory to hold 3 items, got %d", len(items))
	}
	if _, err := kv.MemoryStore.Get(ctx, KeyTodos); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Expected nothing persisted while writes fail, got %v", err)
	}

	// The next successful save flushes the in-memory state
	kv.setFailPut(false)
	if err := c.Append(ctx, models.Todo{ID: "manual-3", Text: "three"}); err != nil {
		t.Fatalf("Expected recovery, got %v", err)
	}
	fresh := todoCollection(kv)
	persisted, err := fresh.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(persisted) != 4 {
		t.Errorf("Expected 4 persisted items after recovery, got %d", len(persisted))
	}
}

func TestCollection_ResetReseeds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := todoCollection(database.NewMemoryStore())
	if err := c.Save(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if items, _ := c.Load(ctx); len(items) != 0 {
		t.Fatalf("Expected empty collection, got %d", len(items))
	}
	if err := c.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	items, _ := c.Load(ctx)
	if diff := cmp.Diff(SeedTodos(fixedNow), items); diff != "" {
		t.Errorf("Expected seed after reset (-want +got):\n%s", diff)
	}
}

func TestCollection_ConcurrentAppends(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewCollection[models.Todo](database.NewMemoryStore(), KeyTodos, NewestFirst, nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Append(ctx, models.Todo{ID: NewID(OriginManual), Text: "x"})
		}()
	}
	wg.Wait()

	items, _ := c.Load(ctx)
	if len(items) != 50 {
		t.Errorf("Expected 50 items, got %d", len(items))
	}
}

func TestCollection_SharedStorageKeepsEveryAppend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := &slowKV{MemoryStore: database.NewMemoryStore(), delay: time.Millisecond}

	// Separate collections over one key, as the server and the worker hold
	server := NewCollection[models.Transaction](kv, KeyTransactions, NewestFirst, nil, nil)
	worker := NewCollection[models.Transaction](kv, KeyTransactions, NewestFirst, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, c := range []*Collection[models.Transaction]{server, worker} {
			wg.Add(1)
			go func(c *Collection[models.Transaction]) {
				defer wg.Done()
				if err := c.Append(ctx, models.Transaction{ID: NewID(OriginManual), Title: "x", Category: models.CategoryGeneral, Date: fixedNow}); err != nil {
					t.Errorf("Append failed: %v", err)
				}
			}(c)
		}
	}
	wg.Wait()

	for name, c := range map[string]*Collection[models.Transaction]{"server": server, "worker": worker} {
		items, err := c.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(items) != 20 {
			t.Errorf("Expected %s to see 20 stored transactions, got %d", name, len(items))
		}
	}
}

func TestCollection_SharedStorageMixedMutations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := &slowKV{MemoryStore: database.NewMemoryStore(), delay: time.Millisecond}

	first := NewCollection[models.Reminder](kv, KeyReminders, InsertionOrder, nil, nil)
	second := NewCollection[models.Reminder](kv, KeyReminders, InsertionOrder, nil, nil)
	if err := first.Save(ctx, []models.Reminder{{ID: "a", Title: "a"}, {ID: "b", Title: "b"}}); err != nil {
		t.Fatal(err)
	}

	// second has never loaded; its removal must still see the record first wrote
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := first.Append(ctx, models.Reminder{ID: "c", Title: "c"}); err != nil {
			t.Errorf("Append failed: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := second.Remove(ctx, func(r models.Reminder) bool { return r.ID == "a" }); err != nil {
			t.Errorf("Remove failed: %v", err)
		}
	}()
	wg.Wait()

	items, err := second.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{}
	for _, item := range items {
		got = append(got, item.ID)
	}
	if diff := cmp.Diff([]string{"b", "c"}, got); diff != "" {
		t.Errorf("Stored ids mismatch (-want +got):\n%s", diff)
	}
}

func TestNewID_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID(OriginAuto)
		if seen[id] {
			t.Fatalf("Duplicate id %s", id)
		}
		seen[id] = true
	}
	if id := NewID(OriginManual); id[:7] != "manual-" {
		t.Errorf("Expected manual prefix, got %s", id)
	}
}
