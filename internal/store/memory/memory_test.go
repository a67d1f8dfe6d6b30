package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"lapkeu/internal/store"
)

func TestStore_LoadSaveCopies(t *testing.T) {
	s := New([]byte(`[]`))
	ctx := context.Background()

	doc := []byte(`{"transactions":[]}`)
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc[0] = 'X'

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != `{"transactions":[]}` {
		t.Fatalf("store kept a reference to the caller's slice: %s", got)
	}
	got[0] = 'Y'
	again, _ := s.Load(ctx)
	if again[0] != '{' {
		t.Fatalf("Load returned internal buffer")
	}
}

func TestStore_CancelledContext(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Load(ctx); err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if err := s.Save(ctx, nil); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	raw, _ := s.Load(context.Background())
	list, err := store.Decode(raw)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty ledger, got %v (err=%v)", list, err)
	}

	path := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(path, []byte(`[{"id":"a","type":"Pemasukan","amount":5}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	raw, _ = s.Load(context.Background())
	list, _ = store.Decode(raw)
	if len(list) != 1 || list[0].ID != "a" {
		t.Fatalf("unexpected seed content: %+v", list)
	}

	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte(`{nope`), 0o600)
	if _, err := NewFromFile(bad); err == nil {
		t.Fatal("expected error for corrupt seed")
	}
}
