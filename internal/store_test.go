package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func setupJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	dir := t.TempDir()
	j, err := OpenJournal(dir)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	return j, dir
}

func TestStoreInsertAssignsIDs(t *testing.T) {
	store := NewMemoryStore(context.Background(), 10, nil, nil)

	first := store.Insert(context.Background(), MemoryRecord{Kind: KindConversation, Input: "a", Output: "1"})
	second := store.Insert(context.Background(), MemoryRecord{Kind: KindConversation, Input: "b", Output: "2"})

	if first.ID != 0 || second.ID != 1 {
		t.Errorf("ids = %d, %d, want 0, 1", first.ID, second.ID)
	}
	if first.Timestamp.IsZero() {
		t.Error("timestamp not assigned")
	}
}

func TestStoreEvictsOldestPastCapacity(t *testing.T) {
	store := NewMemoryStore(context.Background(), 3, nil, nil)

	for _, in := range []string{"a", "b", "c", "d", "e"} {
		store.Insert(context.Background(), MemoryRecord{Kind: KindConversation, Input: in})
	}

	if store.Len() != 3 {
		t.Fatalf("len = %d, want 3", store.Len())
	}

	records := store.All()
	if records[0].Input != "c" || records[2].Input != "e" {
		t.Errorf("kept %q..%q, want c..e", records[0].Input, records[2].Input)
	}
	if _, ok := store.Get(0); ok {
		t.Error("oldest record should have been evicted")
	}
}

func TestStorePersistsAndReloads(t *testing.T) {
	j, dir := setupJournal(t)
	ctx := context.Background()

	store := NewMemoryStore(ctx, 10, j, nil)
	store.Insert(ctx, MemoryRecord{Kind: KindConversation, Input: "remember me", Output: "ok", Embedding: []float32{1, 0}})
	store.Insert(ctx, MemoryRecord{Kind: KindDetection, Input: "cup", Output: "a cup"})

	// Reopen from disk.
	j2, err := OpenJournal(dir)
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	reloaded := NewMemoryStore(ctx, 10, j2, nil)

	if reloaded.Len() != 2 {
		t.Fatalf("reloaded len = %d, want 2", reloaded.Len())
	}

	rec, ok := reloaded.Get(0)
	if !ok {
		t.Fatal("record 0 missing after reload")
	}
	if rec.Input != "remember me" || len(rec.Embedding) != 2 {
		t.Errorf("record 0 = %+v, want input and embedding preserved", rec)
	}

	// New inserts continue the id sequence.
	next := reloaded.Insert(ctx, MemoryRecord{Kind: KindConversation, Input: "later"})
	if next.ID != 2 {
		t.Errorf("next id = %d, want 2", next.ID)
	}
}

func TestStoreSkipsCorruptRecords(t *testing.T) {
	j, dir := setupJournal(t)
	ctx := context.Background()

	store := NewMemoryStore(ctx, 10, j, nil)
	store.Insert(ctx, MemoryRecord{Kind: KindConversation, Input: "good"})
	store.Insert(ctx, MemoryRecord{Kind: KindConversation, Input: "bad"})

	badPath := filepath.Join(dir, "records", recordFilename(1))
	if err := os.WriteFile(badPath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("corrupt record: %v", err)
	}

	j2, err := OpenJournal(dir)
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	reloaded := NewMemoryStore(ctx, 10, j2, nil)

	if reloaded.Len() != 1 {
		t.Fatalf("reloaded len = %d, want 1 (corrupt record skipped)", reloaded.Len())
	}
	if rec, _ := reloaded.Get(0); rec.Input != "good" {
		t.Errorf("surviving record = %q, want 'good'", rec.Input)
	}
}

func TestStoreStartsEmptyOnUnreadableJournal(t *testing.T) {
	// A store with no journal at all behaves the same as one whose journal
	// failed to load: empty but usable.
	store := NewMemoryStore(context.Background(), 10, nil, nil)
	if store.Len() != 0 {
		t.Fatalf("len = %d, want 0", store.Len())
	}

	rec := store.Insert(context.Background(), MemoryRecord{Kind: KindConversation, Input: "still works"})
	if rec.ID != 0 {
		t.Errorf("id = %d, want 0", rec.ID)
	}
}

func TestStorePruneToCapacity(t *testing.T) {
	store := NewMemoryStore(context.Background(), 10, nil, nil)
	for i := 0; i < 6; i++ {
		store.Insert(context.Background(), MemoryRecord{Kind: KindConversation})
	}

	evicted := store.PruneToCapacity(context.Background(), 2)

	if evicted != 4 {
		t.Errorf("evicted = %d, want 4", evicted)
	}
	if store.Len() != 2 {
		t.Errorf("len = %d, want 2", store.Len())
	}

	records := store.All()
	if records[0].ID != 4 {
		t.Errorf("oldest surviving id = %d, want 4", records[0].ID)
	}
}

func TestStoreScanByKind(t *testing.T) {
	store := NewMemoryStore(context.Background(), 10, nil, nil)
	store.Insert(context.Background(), MemoryRecord{Kind: KindConversation, Input: "chat"})
	store.Insert(context.Background(), MemoryRecord{Kind: KindDetection, Input: "look"})
	store.Insert(context.Background(), MemoryRecord{Kind: KindConversation, Input: "chat2"})

	conv := store.Scan(KindConversation)
	if len(conv) != 2 {
		t.Fatalf("conversation records = %d, want 2", len(conv))
	}
	if conv[0].Input != "chat" || conv[1].Input != "chat2" {
		t.Error("scan did not preserve insertion order")
	}
}
