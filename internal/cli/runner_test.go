package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"todoqueue/internal/config"
	"todoqueue/internal/storage"
)

func newTestEnv(t *testing.T) (*storage.Store, config.Config) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg, err := config.LoadOrCreate(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	cfg.ExportDir = dir
	return store, cfg
}

func TestRun_AddDoneRemove(t *testing.T) {
	store, cfg := newTestEnv(t)

	if code := Run(store, cfg, []string{"add", "-c", "work", "-t", "urgent", "ship", "release"}); code != 0 {
		t.Fatalf("add exit=%d, want 0", code)
	}
	items, _ := store.Pending()
	if len(items) != 1 || items[0].Text != "ship release" || items[0].Category != "work" {
		t.Fatalf("persisted item wrong: %+v", items)
	}
	id := items[0].ID

	if code := Run(store, cfg, []string{"done", "99"}); code != 1 {
		t.Fatalf("done on missing id exit=%d, want 1", code)
	}
	if code := Run(store, cfg, []string{"done", "nope"}); code != 2 {
		t.Fatalf("done on junk id exit=%d, want 2", code)
	}
	if code := Run(store, cfg, []string{"done", strconv.Itoa(id)}); code != 0 {
		t.Fatalf("done exit=%d, want 0", code)
	}
	if pending, _ := store.Pending(); len(pending) != 0 {
		t.Fatalf("item still pending after done")
	}

	if code := Run(store, cfg, []string{"rm", strconv.Itoa(id)}); code != 0 {
		t.Fatalf("rm exit=%d, want 0", code)
	}
	if _, completed, _ := store.Stats(); completed != 0 {
		t.Fatalf("item still present after rm")
	}
}

func TestRun_UnknownSubcommand(t *testing.T) {
	store, cfg := newTestEnv(t)
	if code := Run(store, cfg, []string{"frobnicate"}); code != 2 {
		t.Fatalf("unknown subcommand exit=%d, want 2", code)
	}
}

func TestRun_ExportWritesFile(t *testing.T) {
	store, cfg := newTestEnv(t)
	store.Add("a", "", "")

	out := filepath.Join(cfg.ExportDir, "out.json")
	if code := Run(store, cfg, []string{"export", "-o", out, "json"}); code != 0 {
		t.Fatalf("export exit=%d, want 0", code)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("export file missing: %v", err)
	}

	if code := Run(store, cfg, []string{"export", "xml"}); code != 1 {
		t.Fatalf("bad format exit=%d, want 1", code)
	}
}

func TestFormatItem(t *testing.T) {
	store, _ := newTestEnv(t)
	id, _ := store.Add("ship release", "work", "urgent,release")
	it, _ := store.Get(id)

	line := FormatItem(it)
	for _, want := range []string{"[ ]", "ship release", "[work]", "#urgent", "#release"} {
		if !strings.Contains(line, want) {
			t.Fatalf("FormatItem=%q, missing %q", line, want)
		}
	}

	store.Complete(id)
	it, _ = store.Get(id)
	line = FormatItem(it)
	if !strings.Contains(line, "[x]") || !strings.Contains(line, "(done ") {
		t.Fatalf("completed FormatItem=%q", line)
	}
}
