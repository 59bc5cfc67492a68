package memory

import (
	"context"
	"testing"
	"time"

	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/hero"
	"github.com/bowjoww/wr-cn-meta-draft/internal/domain/meta"
	"github.com/bowjoww/wr-cn-meta-draft/internal/infrastructure/repository"
)

func TestStore_HeroMapRoundTrip(t *testing.T) {
	t.Parallel()

	repo := repository.NewDocuments(NewStore())
	if _, ok, err := repo.LoadHeroMap(context.Background()); ok || err != nil {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	saved := meta.HeroMapCache{
		FetchedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SourceURL: "https://example.test/hero_list.js",
		Items: hero.Map{
			"10": {HeroID: "10", NameCN: "盖伦", NameGlobal: "Garen"},
		},
	}
	if err := repo.SaveHeroMap(context.Background(), saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := repo.LoadHeroMap(context.Background())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !loaded.FetchedAt.Equal(saved.FetchedAt) || loaded.Items["10"] != saved.Items["10"] {
		t.Fatalf("unexpected hero map %+v", loaded)
	}
}

func TestStore_ReadReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewStore()
	if err := store.Write(context.Background(), "doc", time.Time{}, []byte("abc")); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, _, _ := store.Read(context.Background(), "doc")
	raw[0] = 'x'

	again, ok, _ := store.Read(context.Background(), "doc")
	if !ok || string(again) != "abc" {
		t.Fatalf("expected stored bytes untouched, got %q", again)
	}
}
