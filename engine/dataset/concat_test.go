package dataset

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/VoyagentAI/voyagent-mvp/engine/domain"
)

func writeDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDirSourceLexicalOrder(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"b.json":  `[{"org": "Boston"}]`,
		"a.jsonl": `{"org": "Atlanta"}`,
		"c.txt":   "ignored",
	})

	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}
	recs := drain(t, src)
	if len(recs) != 2 {
		t.Fatalf("len = %d", len(recs))
	}
	if recs[0]["org"] != "Atlanta" || recs[1]["org"] != "Boston" {
		t.Errorf("order wrong: %v", recs)
	}
}

func TestDirSourceEmpty(t *testing.T) {
	if _, err := NewDirSource(t.TempDir()); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestConcatOffsetResume(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"a.json": `[{"n": 1}, {"n": 2}]`,
		"b.json": `[{"n": 3}, {"n": 4}]`,
	})

	src, err := NewDirSource(dir, WithConcatOffset(3))
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}
	recs := drain(t, src)
	if len(recs) != 1 {
		t.Fatalf("len = %d, want 1", len(recs))
	}
	if n, _ := recs[0]["n"].(float64); n != 4 {
		t.Errorf("record = %v", recs[0])
	}
	if src.Offset() != 4 {
		t.Errorf("Offset = %d, want 4", src.Offset())
	}
}

func TestConcatPassesChildErrors(t *testing.T) {
	dir := writeDir(t, map[string]string{
		"a.json": `[{"n": 1}, not-json]`,
		"b.json": `[{"n": 2}]`,
	})

	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}

	if _, err := src.Next(context.Background()); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if _, err := src.Next(context.Background()); !errors.Is(err, domain.ErrRecordMalformed) {
		t.Fatalf("err = %v, want ErrRecordMalformed", err)
	}
	// The corrupt file is exhausted; the stream continues with the next file.
	rec, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("after malformed: %v", err)
	}
	if n, _ := rec["n"].(float64); n != 2 {
		t.Errorf("record = %v", rec)
	}
	if _, err := src.Next(context.Background()); err != io.EOF {
		t.Errorf("err = %v, want EOF", err)
	}
}

func TestConcatCancelled(t *testing.T) {
	dir := writeDir(t, map[string]string{"a.json": `[{"n": 1}]`})
	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
