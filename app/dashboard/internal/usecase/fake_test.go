package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/conf"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
)

// fakeBackend 内存后端，errs 按方法名注入错误
type fakeBackend struct {
	mu               sync.Mutex
	articles         []domain.Article
	enrichments      []domain.Enrichment
	savedArticles    []string
	savedEnrichments []string
	errs             map[string]error
	since            time.Time
}

func (f *fakeBackend) fail(method string) error {
	if f.errs == nil {
		return nil
	}
	return f.errs[method]
}

func (f *fakeBackend) QueryArticles(ctx context.Context, since time.Time) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = since
	if err := f.fail("QueryArticles"); err != nil {
		return nil, err
	}
	var out []domain.Article
	for _, a := range f.articles {
		if !a.PublishedDate.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeBackend) QueryAllEnrichments(ctx context.Context) ([]domain.Enrichment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("QueryAllEnrichments"); err != nil {
		return nil, err
	}
	return append([]domain.Enrichment(nil), f.enrichments...), nil
}

func (f *fakeBackend) QuerySavedArticleIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("QuerySavedArticleIDs"); err != nil {
		return nil, err
	}
	return append([]string(nil), f.savedArticles...), nil
}

func (f *fakeBackend) QuerySavedEnrichmentIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("QuerySavedEnrichmentIDs"); err != nil {
		return nil, err
	}
	return append([]string(nil), f.savedEnrichments...), nil
}

func (f *fakeBackend) InsertSavedArticle(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertSavedArticle"); err != nil {
		return err
	}
	f.savedArticles = append(f.savedArticles, id)
	return nil
}

func (f *fakeBackend) DeleteSavedArticle(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteSavedArticle"); err != nil {
		return err
	}
	f.savedArticles = without(f.savedArticles, id)
	return nil
}

func (f *fakeBackend) InsertSavedEnrichment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("InsertSavedEnrichment"); err != nil {
		return err
	}
	f.savedEnrichments = append(f.savedEnrichments, id)
	return nil
}

func (f *fakeBackend) DeleteSavedEnrichment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteSavedEnrichment"); err != nil {
		return err
	}
	f.savedEnrichments = without(f.savedEnrichments, id)
	return nil
}

func (f *fakeBackend) DeleteArticle(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteArticle"); err != nil {
		return err
	}
	var articles []domain.Article
	for _, a := range f.articles {
		if a.ID != id {
			articles = append(articles, a)
		}
	}
	f.articles = articles
	var enrichments []domain.Enrichment
	for _, e := range f.enrichments {
		if e.ArticleID == id {
			f.savedEnrichments = without(f.savedEnrichments, e.ID)
			continue
		}
		enrichments = append(enrichments, e)
	}
	f.enrichments = enrichments
	f.savedArticles = without(f.savedArticles, id)
	return nil
}

func (f *fakeBackend) DeleteEnrichment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteEnrichment"); err != nil {
		return err
	}
	var enrichments []domain.Enrichment
	for _, e := range f.enrichments {
		if e.ID != id {
			enrichments = append(enrichments, e)
		}
	}
	f.enrichments = enrichments
	f.savedEnrichments = without(f.savedEnrichments, id)
	return nil
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

var testNow = time.Date(2026, 1, 28, 12, 0, 0, 0, time.UTC)

// newFixture 两篇文章：a1 有两条增强条目（bensbites），a2 没有（rundown）
func newFixture() *fakeBackend {
	return &fakeBackend{
		articles: []domain.Article{
			{ID: "a1", URL: "https://bensbites.com/p/1", Source: "bensbites", Title: "Daily bites", Author: "Ben", PublishedDate: testNow.Add(-1 * time.Hour)},
			{ID: "a2", URL: "https://therundown.ai/p/2", Source: "rundown", Title: "Rundown", Author: "Rowan Cheung", PublishedDate: testNow.Add(-2 * time.Hour)},
			{ID: "old", URL: "https://example.com/old", Source: "reddit", Title: "Old", PublishedDate: testNow.Add(-48 * time.Hour)},
		},
		enrichments: []domain.Enrichment{
			{ID: "e1", ArticleID: "a1", Title: "First item", Content: "one\n\ntwo", Position: 0},
			{ID: "e2", ArticleID: "a1", Title: "Second item", Position: 1},
			{ID: "e9", ArticleID: "old", Title: "Orphan", Position: 0},
		},
	}
}

func newTestPipeline(b *fakeBackend) *Pipeline {
	p := NewPipeline(b, &conf.Dashboard{Window: "24h"}, log.DefaultLogger)
	p.now = func() time.Time { return testNow }
	return p
}

func newTestDashboard(b *fakeBackend) *Dashboard {
	return NewDashboard(newTestPipeline(b), NewMutator(b, log.DefaultLogger), log.DefaultLogger)
}
