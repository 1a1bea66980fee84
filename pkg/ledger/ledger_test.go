package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordKey(t *testing.T) {
	tests := []struct {
		itemID   string
		index    int
		expected string
	}{
		{"123", 0, "123_0"},
		{"123", 3, "123_3"},
		{"987654321", 1, "987654321_1"},
	}

	for _, test := range tests {
		if got := RecordKey(test.itemID, test.index); got != test.expected {
			t.Errorf("RecordKey(%q, %d) = %q, expected %q", test.itemID, test.index, got, test.expected)
		}
	}
}

func TestGetRecordMissing(t *testing.T) {
	store := openTestStore(t)

	record, err := store.GetRecord(context.Background(), "123_0")
	if err != nil {
		t.Fatalf("Missing record is not an error, got %v", err)
	}
	if record != nil {
		t.Errorf("Expected nil for missing record, got %+v", record)
	}
}

func TestPutAndGetRecord(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created := time.Date(2022, 10, 5, 20, 12, 1, 0, time.UTC)
	record := &ArchiveRecord{
		Key:          RecordKey("123", 0),
		CreatedAt:    created,
		Text:         "sunset over the bay",
		AuthorName:   "Some Person",
		AuthorHandle: "someperson",
		Hashtags:     "photo,sky",
		WriteTime:    time.Now().UTC(),
	}

	if err := store.PutRecord(ctx, record); err != nil {
		t.Fatalf("Failed to store record: %v", err)
	}

	got, err := store.GetRecord(ctx, "123_0")
	if err != nil {
		t.Fatalf("Failed to read record back: %v", err)
	}
	if got == nil {
		t.Fatal("Expected the stored record")
	}
	if got.Text != record.Text || got.AuthorHandle != record.AuthorHandle || got.Hashtags != record.Hashtags {
		t.Errorf("Stored fields do not round-trip: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected created_at %v, got %v", created, got.CreatedAt)
	}
}

func TestPutRecordIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := &ArchiveRecord{
		Key:       RecordKey("123", 1),
		CreatedAt: time.Now().UTC(),
		WriteTime: time.Now().UTC(),
	}

	if err := store.PutRecord(ctx, record); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	record.WriteTime = record.WriteTime.Add(time.Hour)
	if err := store.PutRecord(ctx, record); err != nil {
		t.Fatalf("Re-writing an existing key must not fail: %v", err)
	}
}

func TestCursorLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, ok, err := store.GetCursor(ctx, "12345")
	if err != nil {
		t.Fatalf("Missing cursor is not an error, got %v", err)
	}
	if ok {
		t.Error("Expected no cursor for a fresh user")
	}

	if err := store.PutCursor(ctx, "12345", "token-one"); err != nil {
		t.Fatalf("Failed to store cursor: %v", err)
	}
	token, ok, err := store.GetCursor(ctx, "12345")
	if err != nil || !ok {
		t.Fatalf("Expected stored cursor, got ok=%v err=%v", ok, err)
	}
	if token != "token-one" {
		t.Errorf("Expected token-one, got %q", token)
	}

	// The cursor is a single slot: a new token replaces the old one.
	if err := store.PutCursor(ctx, "12345", "token-two"); err != nil {
		t.Fatalf("Failed to replace cursor: %v", err)
	}
	token, ok, err = store.GetCursor(ctx, "12345")
	if err != nil || !ok {
		t.Fatalf("Expected replaced cursor, got ok=%v err=%v", ok, err)
	}
	if token != "token-two" {
		t.Errorf("Expected token-two, got %q", token)
	}
}

func TestCursorsArePerUser(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutCursor(ctx, "alice", "token-a"); err != nil {
		t.Fatal(err)
	}
	if err := store.PutCursor(ctx, "bob", "token-b"); err != nil {
		t.Fatal(err)
	}

	token, _, err := store.GetCursor(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if token != "token-a" {
		t.Errorf("Expected token-a for alice, got %q", token)
	}
}
