package news

import (
	"strings"
	"testing"
	"time"
)

func TestParsePublished(t *testing.T) {
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	cases := []string{
		"2025-03-01T10:00:00Z",
		"Sat, 01 Mar 2025 10:00:00 +0000",
		"2025-03-01 10:00:00",
	}
	for _, in := range cases {
		got, ok := ParsePublished(in)
		if !ok || !got.Equal(want) {
			t.Errorf("ParsePublished(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}

	for _, in := range []string{"", "yesterday", "01/03/2025"} {
		if _, ok := ParsePublished(in); ok {
			t.Errorf("ParsePublished(%q) should fail", in)
		}
	}
}

func TestPlaceholderImage(t *testing.T) {
	a := PlaceholderImage("https://x.example/1", "Title", "2025-03-01T10:00:00Z")
	b := PlaceholderImage("https://x.example/1", "Title", "2025-03-01T10:00:00Z")
	c := PlaceholderImage("https://x.example/2", "Title", "2025-03-01T10:00:00Z")

	if a != b {
		t.Errorf("placeholder not deterministic: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("different articles share a placeholder")
	}
	if !strings.HasPrefix(a, "https://picsum.photos/seed/") || !strings.HasSuffix(a, "/800/450") {
		t.Errorf("unexpected placeholder %s", a)
	}
}

func TestDisplaySource(t *testing.T) {
	profile := &SourceProfile{Name: "Associated Press"}
	raw := RawArticle{Source: &Source{ID: "ap", Name: "AP"}}

	if got := DisplaySource(raw, profile); got != "Associated Press" {
		t.Errorf("got %q, want profile name", got)
	}
	if got := DisplaySource(raw, nil); got != "AP" {
		t.Errorf("got %q, want raw name", got)
	}
	if got := DisplaySource(RawArticle{Source: &Source{ID: "ap"}}, nil); got != "ap" {
		t.Errorf("got %q, want raw id", got)
	}
	if got := DisplaySource(RawArticle{}, nil); got != UnknownSource {
		t.Errorf("got %q, want %q", got, UnknownSource)
	}
}

func TestToArticleFallbacks(t *testing.T) {
	s := ScoredArticle{Article: RawArticle{
		Title:       "Quiet day",
		Description: "   ",
		URL:         "https://x.example/quiet",
		PublishedAt: "2025-03-01T10:00:00Z",
	}}
	a := ToArticle(3, s, "General", 42)

	if a.ID != 3 || a.Score != 42 || a.Category != "General" {
		t.Errorf("unexpected record %+v", a)
	}
	if a.Description != NoDescription {
		t.Errorf("description = %q", a.Description)
	}
	if a.Image != PlaceholderImage(s.Article.URL, s.Article.Title, s.Article.PublishedAt) {
		t.Errorf("image = %q", a.Image)
	}
	if a.Source != UnknownSource {
		t.Errorf("source = %q", a.Source)
	}
}

func TestAuthorityForTier(t *testing.T) {
	for tier, want := range map[int]int{1: 100, 2: 80, 3: 60, 0: 40, 7: 40} {
		if got := AuthorityForTier(tier); got != want {
			t.Errorf("AuthorityForTier(%d) = %d, want %d", tier, got, want)
		}
	}
}
