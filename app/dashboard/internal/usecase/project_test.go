package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
)

func TestProject_CardCount(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
	}{
		{name: "empty", counts: nil},
		{name: "no enrichments", counts: []int{0, 0, 0}},
		{name: "mixed", counts: []int{2, 0, 5, 1}},
		{name: "all enriched", counts: []int{3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var articles []domain.Article
			want := 0
			for i, n := range tt.counts {
				a := domain.Article{ID: fmt.Sprintf("a%d", i), Source: "rundown"}
				for j := 0; j < n; j++ {
					a.Enrichments = append(a.Enrichments, domain.Enrichment{ID: fmt.Sprintf("a%d-e%d", i, j), ArticleID: a.ID, Position: j})
				}
				articles = append(articles, a)
				want += max(1, n)
			}
			assert.Len(t, Project(articles), want)
		})
	}
}

func TestProject_Fields(t *testing.T) {
	b := newFixture()
	articles := Attach(b.articles[:2], GroupEnrichments(b.enrichments))
	articles[0].Enrichments[0].ImageURL = "https://img.example.com/1.png"

	cards := Project(articles)
	require.Len(t, cards, 3)

	e := cards[0]
	assert.Equal(t, domain.KindEnrichment, e.Type)
	assert.Equal(t, "e1", e.ID)
	assert.Equal(t, "a1", e.ParentArticleID)
	assert.Equal(t, "https://bensbites.com/p/1", e.ParentArticleURL)
	assert.Equal(t, "https://bensbites.com/p/1", e.Link())
	assert.Equal(t, "bensbites", e.Source)
	assert.Equal(t, "Ben", e.Author)
	assert.Equal(t, "First item", e.Title)
	assert.Equal(t, "one\n\ntwo", e.Content)
	assert.Equal(t, "https://img.example.com/1.png", e.ImageURL)
	assert.Equal(t, articles[0].PublishedDate, e.PublishedDate)
	assert.Equal(t, "e2", cards[1].ID)

	a := cards[2]
	assert.Equal(t, domain.KindArticle, a.Type)
	assert.Equal(t, "a2", a.ID)
	assert.Equal(t, "https://therundown.ai/p/2", a.Link())
	assert.Empty(t, a.ParentArticleID)
}

func TestFilterCards(t *testing.T) {
	b := newFixture()
	cards := Project(Attach(b.articles, GroupEnrichments(b.enrichments)))
	saved := domain.NewSavedSet([]string{"a2", "e1"}, []string{"e2"})

	t.Run("all is identity", func(t *testing.T) {
		assert.Equal(t, cards, FilterCards(cards, domain.FilterAll, saved))
	})

	t.Run("saved is subset and idempotent", func(t *testing.T) {
		once := FilterCards(cards, domain.FilterSaved, saved)
		for _, c := range once {
			assert.True(t, IsSavedCard(c, saved))
		}
		assert.Equal(t, once, FilterCards(once, domain.FilterSaved, saved))

		var ids []string
		for _, c := range once {
			ids = append(ids, c.ID)
		}
		// e1 只作为文章 ID 被收藏，不能误标增强条目 e1
		assert.Equal(t, []string{"e2", "a2"}, ids)
	})

	t.Run("source is exact match", func(t *testing.T) {
		got := FilterCards(cards, "bensbites", saved)
		assert.Len(t, got, 2)
		assert.Empty(t, FilterCards(cards, "BensBites", saved))
	})
}

func TestEndToEnd_LoadProjectFilter(t *testing.T) {
	b := newFixture()
	snap, err := newTestPipeline(b).Load(context.Background())
	require.NoError(t, err)

	cards := Project(snap.Articles)
	assert.Len(t, cards, 3)

	only := FilterCards(cards, "rundown", snap.Saved)
	require.Len(t, only, 1)
	assert.Equal(t, "a2", only[0].ID)
}

func TestFindCard(t *testing.T) {
	b := newFixture()
	articles := Attach(b.articles[:2], GroupEnrichments(b.enrichments))

	_, ok := FindCard(articles, domain.EnrichmentKey("e2"))
	assert.True(t, ok)
	_, ok = FindCard(articles, domain.ArticleKey("a1"))
	assert.True(t, ok)
	_, ok = FindCard(articles, domain.ArticleKey("missing"))
	assert.False(t, ok)
	_, ok = FindCard(articles, domain.EnrichmentKey("a2"))
	assert.False(t, ok)
}

func TestProjectedCard(t *testing.T) {
	b := newFixture()
	articles := Attach(b.articles[:2], GroupEnrichments(b.enrichments))

	_, ok := ProjectedCard(articles, domain.EnrichmentKey("e1"))
	assert.True(t, ok)
	_, ok = ProjectedCard(articles, domain.ArticleKey("a2"))
	assert.True(t, ok)
	// a1 只以增强条目卡片出现
	_, ok = ProjectedCard(articles, domain.ArticleKey("a1"))
	assert.False(t, ok)
}

func TestFilterCards_SavedParentShowsEnrichments(t *testing.T) {
	b := newFixture()
	cards := Project(Attach(b.articles[:2], GroupEnrichments(b.enrichments)))
	saved := domain.NewSavedSet([]string{"a1"}, nil)

	got := FilterCards(cards, domain.FilterSaved, saved)
	require.Len(t, got, 2)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, "e2", got[1].ID)
	for _, c := range got {
		assert.Equal(t, "a1", c.ParentArticleID)
	}

	// 单独收藏的增强条目不会带出同一文章的其他条目
	got = FilterCards(cards, domain.FilterSaved, domain.NewSavedSet(nil, []string{"e2"}))
	require.Len(t, got, 1)
	assert.Equal(t, "e2", got[0].ID)
}
