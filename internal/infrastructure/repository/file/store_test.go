package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/infrastructure/repository"
)

func TestStore_MissingDocument(t *testing.T) {
	t.Parallel()

	repo := repository.NewDocuments(NewStore(t.TempDir()))
	_, ok, err := repo.LoadStats(context.Background())
	if err != nil || ok {
		t.Fatalf("expected missing document, got ok=%v err=%v", ok, err)
	}
}

func TestStore_ReadsLegacyStatsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	legacy := `{
  "fetched_at": "2024-05-01T10:00:00",
  "source_url": "https://example.test/stats",
  "items": {
    "top:diamond": [{"champion": "Garen", "role": "top", "tier": "diamond", "winrate": 0.52, "pickrate": 0.1, "banrate": 0.05, "priority_score": 0.1, "power_score": 0.2, "draft_score": 0.3}]
  }
}`
	if err := os.WriteFile(filepath.Join(dir, "cn_meta_cache.json"), []byte(legacy), 0o644); err != nil {
		t.Fatalf("seed legacy file: %v", err)
	}

	cache, ok, err := repository.NewDocuments(NewStore(dir)).LoadStats(context.Background())
	if err != nil || !ok {
		t.Fatalf("load legacy: ok=%v err=%v", ok, err)
	}
	if want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC); !cache.FetchedAt.Equal(want) {
		t.Fatalf("unexpected fetched_at %v", cache.FetchedAt)
	}
	rows, ok := cache.LegacyRows(meta.RoleTop, meta.TierDiamond)
	if !ok || len(rows) != 1 || rows[0].Champion != "Garen" {
		t.Fatalf("unexpected legacy rows %+v", rows)
	}
}

func TestStore_SaveReplacesDocument(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := repository.NewDocuments(NewStore(dir))
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	first := meta.RawStatsCache{}.WithPayload(meta.TierDiamond, map[string]any{"result": float64(0)}, "https://example.test/a", now)
	if err := repo.SaveStats(context.Background(), first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second := first.WithPayload(meta.TierMaster, map[string]any{"result": float64(0)}, "https://example.test/b", now.Add(time.Hour))
	if err := repo.SaveStats(context.Background(), second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	loaded, ok, err := repo.LoadStats(context.Background())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.SourceURL != "https://example.test/b" || len(loaded.RawPayloadByTier) != 2 {
		t.Fatalf("unexpected cache %+v", loaded)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the document file, got %d entries", len(entries))
	}
}
