package dedup

import (
	"sort"
	"testing"

	"github.com/deusflow/headlines/internal/news"
)

func scored(title, source string, total float64) news.ScoredArticle {
	return news.ScoredArticle{
		Article: news.RawArticle{Title: title, Source: &news.Source{Name: source}},
		Score:   news.ArticleScore{Total: total},
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Apple Announces: New iPhone 15!", "apple announces new iphone 15"},
		{"  Café   São Paulo  ", "cafe sao paulo"},
		{"one two three four five six seven eight nine ten", "one two three four five six seven eight"},
		{"It's a \"big\" day-really", "its a big dayreally"},
		{"!!!", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeTitle(c.in, DefaultMaxWords); got != c.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestJaccard(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"a b c", "a b c", 1},
		{"a b c", "d e f", 0},
		{"a b c d", "a b c e", 0.6},
		{"", "", 0},
	}
	for _, c := range cases {
		if got := Jaccard(c.a, c.b); got != c.want {
			t.Errorf("Jaccard(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestIsDuplicate(t *testing.T) {
	d := New(Config{})
	cases := []struct {
		a, b string
		want bool
	}{
		{"Apple announces new iPhone 15", "apple announces new iphone 15!", true},
		{"Apple announces new iPhone 15 with improved camera", "Apple announces new iPhone 15 with better camera", false},
		{"Apple announces new iPhone 15", "Apple announces new iPhone 15 with improved camera", true},
		{"iPhone 15 launch", "iPhone 15 launch event draws crowds", false},
		{"Fed holds rates steady", "Storm hits coast", false},
		{"", "", false},
		{"???", "!!!", false},
	}
	for _, c := range cases {
		if got := d.IsDuplicate(c.a, c.b); got != c.want {
			t.Errorf("IsDuplicate(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestDeduplicate_KeepsHigherScore(t *testing.T) {
	title := "Apple announces new iPhone 15 with improved camera"
	in := []news.ScoredArticle{
		scored(title, "Source B", 75),
		scored(title, "Source A", 85),
	}

	out := New(Config{}).Deduplicate(in)
	if len(out) != 1 {
		t.Fatalf("got %d articles, want 1", len(out))
	}
	if out[0].Article.Source.Name != "Source A" {
		t.Errorf("kept %q, want Source A", out[0].Article.Source.Name)
	}
	if in[0].Article.Source.Name != "Source B" {
		t.Errorf("input slice was reordered")
	}
}

func TestDeduplicate_KeepsTitlesWithNoWords(t *testing.T) {
	in := []news.ScoredArticle{
		scored("!!!", "Source A", 60),
		scored("!!!", "Source B", 55),
		scored("???", "Source C", 50),
	}

	out := New(Config{}).Deduplicate(in)
	if len(out) != 3 {
		t.Errorf("got %d articles, want 3: titles with no words never collapse", len(out))
	}
}

func TestDeduplicate_MixedBatch(t *testing.T) {
	in := []news.ScoredArticle{
		scored("Apple announces new iPhone 15 with improved camera", "The Verge", 72),
		scored("Senate passes climate legislation", "AP", 60),
		scored("Apple announces new iPhone 15", "Engadget", 81),
		scored("Apple announces new iPhone 15 with improved camera, analysts say", "CNET", 64),
		scored("", "Nobody", 10),
		scored("", "Somebody", 12),
	}

	out := New(Config{}).Deduplicate(in)
	if len(out) != 4 {
		t.Fatalf("got %d articles, want 4: %+v", len(out), out)
	}
	if out[0].Article.Source.Name != "Engadget" || out[0].Score.Total != 81 {
		t.Errorf("top article = %+v, want Engadget at 81", out[0])
	}
	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].Score.Total > out[j].Score.Total }) {
		t.Errorf("output not sorted by score: %+v", out)
	}
}

func TestDeduplicate_Properties(t *testing.T) {
	batches := [][]news.ScoredArticle{
		nil,
		{scored("Only one", "X", 50)},
		{
			scored("Markets rally as inflation cools in March", "A", 70),
			scored("Markets rally as inflation cools in March report", "B", 71),
			scored("Inflation cools in March", "C", 40),
			scored("Local team wins championship after dramatic final", "D", 90),
			scored("Local team wins championship after dramatic final!", "E", 90),
			scored("Weather warning issued for the weekend", "F", 33),
		},
	}

	d := New(Config{})
	for i, in := range batches {
		once := d.Deduplicate(in)
		twice := d.Deduplicate(once)

		if len(once) > len(in) {
			t.Errorf("batch %d: output grew from %d to %d", i, len(in), len(once))
		}
		for k := 1; k < len(once); k++ {
			if once[k-1].Score.Total < once[k].Score.Total {
				t.Errorf("batch %d: not sorted at %d", i, k)
			}
		}
		if len(once) != len(twice) {
			t.Fatalf("batch %d: not idempotent, %d then %d", i, len(once), len(twice))
		}
		for k := range once {
			if once[k].Article.Title != twice[k].Article.Title || once[k].Score != twice[k].Score {
				t.Errorf("batch %d: element %d changed on second pass", i, k)
			}
		}
	}
}

func TestDeduplicate_PreferredSourceWithinMargin(t *testing.T) {
	title := "Central bank raises interest rates by half a point"
	in := []news.ScoredArticle{
		scored(title, "Daily Blog", 80),
		scored(title, "Reuters", 77),
	}

	out := New(Config{PreferredSources: []string{"reuters"}}).Deduplicate(in)
	if len(out) != 1 || out[0].Article.Source.Name != "Reuters" {
		t.Fatalf("want Reuters kept, got %+v", out)
	}

	in[1].Score.Total = 70
	out = New(Config{PreferredSources: []string{"reuters"}}).Deduplicate(in)
	if len(out) != 1 || out[0].Article.Source.Name != "Daily Blog" {
		t.Fatalf("gap above margin should keep the higher score, got %+v", out)
	}
}

func TestDeduplicate_PreferredMatchesProfileDomain(t *testing.T) {
	title := "Central bank raises interest rates by half a point"
	a := scored(title, "Blog", 80)
	b := scored(title, "", 78)
	b.Profile = &news.SourceProfile{Domain: "bloomberg.com", Name: "Bloomberg"}

	out := New(Config{PreferredSources: []string{"bloomberg.com"}}).Deduplicate([]news.ScoredArticle{a, b})
	if len(out) != 1 || out[0].Profile == nil {
		t.Fatalf("want Bloomberg kept, got %+v", out)
	}
}

func TestGroups(t *testing.T) {
	in := []news.ScoredArticle{
		scored("Apple announces new iPhone 15 with improved camera", "A", 85),
		scored("Apple announces new iPhone 15 with improved camera", "B", 75),
		scored("Apple announces new iPhone 15", "C", 60),
		scored("Unrelated story about gardening tips", "D", 50),
	}

	groups := New(Config{}).Groups(in)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if len(groups[0].Members) != 3 {
		t.Errorf("first group has %d members, want 3", len(groups[0].Members))
	}
	if groups[0].Representative.Article.Source.Name != "A" {
		t.Errorf("representative = %q, want A", groups[0].Representative.Article.Source.Name)
	}
	if len(groups[1].Members) != 1 {
		t.Errorf("second group has %d members, want 1", len(groups[1].Members))
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(10, 7)
	if s.Removed != 3 || s.RemovalRate != 30 {
		t.Errorf("got %+v", s)
	}
	if s := ComputeStats(0, 0); s.RemovalRate != 0 {
		t.Errorf("empty batch rate = %v", s.RemovalRate)
	}
	if s := ComputeStats(3, 2); s.RemovalRate != 33.3 {
		t.Errorf("rate = %v, want 33.3", s.RemovalRate)
	}
}
