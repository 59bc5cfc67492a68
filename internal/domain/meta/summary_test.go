package meta

import (
	"errors"
	"testing"
)

func TestSummarizeByPosition(t *testing.T) {
	t.Parallel()

	entries := []any{}
	for i, ban := range []float64{0.1, 0.5, 0.3, 0.2, 0.4, 0.6} {
		entry := statEntry(string(rune('a'+i)), 1, 0.5, 0.1, ban)
		entry["hero_id"] = float64(100 + i)
		entry["lane"] = "solo"
		entries = append(entries, entry)
	}
	odd := statEntry("200", 9, 0.5, 0.1, 0.9)
	entries = append(entries, odd, statEntry("300", 5, 0.5, 0.1, 90.0))

	summaries, err := SummarizeByPosition(payloadWithTier("1", entries), TierDiamond, nil)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("expected positions 0, 1 and 5, got %+v", summaries)
	}

	unknown, top, support := summaries[0], summaries[1], summaries[2]
	if unknown.Position != 0 || unknown.EntryCount != 1 || unknown.Role != "" {
		t.Fatalf("unexpected unknown bucket: %+v", unknown)
	}
	if top.Role != RoleTop || top.EntryCount != 6 || top.HeroCount != 6 {
		t.Fatalf("unexpected top bucket: %+v", top)
	}
	if len(top.TopByBanRate) != SummaryTopN {
		t.Fatalf("expected %d leaders, got %d", SummaryTopN, len(top.TopByBanRate))
	}
	if top.TopByBanRate[0].HeroID != "105" || top.TopByBanRate[0].BanRate != 0.6 {
		t.Fatalf("unexpected leader: %+v", top.TopByBanRate[0])
	}
	if top.DominantLane != "solo" || top.Lanes["solo"] != 6 {
		t.Fatalf("unexpected lanes: %+v", top.Lanes)
	}
	if support.TopByBanRate[0].BanRate != 0.9 {
		t.Fatalf("expected percent banrate normalized, got %v", support.TopByBanRate[0].BanRate)
	}
}

func TestSummarizeByPosition_NoEntries(t *testing.T) {
	t.Parallel()

	_, err := SummarizeByPosition(payloadWithTier("1", []any{}), TierDiamond, nil)
	if !errors.Is(err, ErrExtractionFailure) {
		t.Fatalf("expected ErrExtractionFailure, got %v", err)
	}
}
