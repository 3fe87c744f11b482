package internal

import (
	"context"
	"strings"
	"testing"
)

func TestJournalAppendAndLog(t *testing.T) {
	j, _ := setupJournal(t)
	ctx := context.Background()

	if err := j.Append(ctx, MemoryRecord{ID: 0, Kind: KindConversation, Input: "q", Output: "a"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Append(ctx, MemoryRecord{ID: 1, Kind: KindDetection, Input: "cup", Output: "a cup"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := j.Log(ctx, 0)
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	// Two record commits plus the init commit, newest first.
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if !strings.Contains(entries[0].Message, "detection record 1") {
		t.Errorf("newest commit = %q, want detection record 1", entries[0].Message)
	}
	if !strings.Contains(entries[2].Message, "init") {
		t.Errorf("oldest commit = %q, want init", entries[2].Message)
	}
}

func TestJournalLogLimit(t *testing.T) {
	j, _ := setupJournal(t)
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		if err := j.Append(ctx, MemoryRecord{ID: i, Kind: KindConversation}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := j.Log(ctx, 2)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestJournalRemoveMissingIsNoop(t *testing.T) {
	j, _ := setupJournal(t)

	if err := j.Remove(context.Background(), 42); err != nil {
		t.Errorf("remove of missing record: %v", err)
	}
}

func TestJournalDiffShowsEviction(t *testing.T) {
	j, _ := setupJournal(t)
	ctx := context.Background()

	if err := j.Append(ctx, MemoryRecord{ID: 0, Kind: KindConversation, Input: "old question", Output: "old answer"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := j.Remove(ctx, 0); err != nil {
		t.Fatalf("remove: %v", err)
	}

	diff, err := j.Diff(ctx, "HEAD~1")
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(diff, "old question") {
		t.Errorf("diff %q does not mention the evicted record", diff)
	}
}

func TestJournalLoadAllSorted(t *testing.T) {
	j, _ := setupJournal(t)
	ctx := context.Background()

	// Append out of order; LoadAll sorts by id.
	for _, id := range []int64{2, 0, 1} {
		if err := j.Append(ctx, MemoryRecord{ID: id, Kind: KindConversation}); err != nil {
			t.Fatalf("append %d: %v", id, err)
		}
	}

	records, skipped, err := j.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	for i, rec := range records {
		if rec.ID != int64(i) {
			t.Errorf("records[%d].ID = %d, want %d", i, rec.ID, i)
		}
	}
}
