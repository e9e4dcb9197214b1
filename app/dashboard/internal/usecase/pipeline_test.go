package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
)

func TestPipeline_Load(t *testing.T) {
	b := newFixture()
	b.savedArticles = []string{"a2"}
	b.savedEnrichments = []string{"e1"}

	snap, err := newTestPipeline(b).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testNow.Add(-24*time.Hour), b.since)
	require.Len(t, snap.Articles, 2)
	assert.Equal(t, "a1", snap.Articles[0].ID)
	require.Len(t, snap.Articles[0].Enrichments, 2)
	assert.Equal(t, "e1", snap.Articles[0].Enrichments[0].ID)
	assert.Equal(t, "e2", snap.Articles[0].Enrichments[1].ID)
	assert.NotNil(t, snap.Articles[1].Enrichments)
	assert.Empty(t, snap.Articles[1].Enrichments)

	assert.True(t, snap.Saved.Has(domain.ArticleKey("a2")))
	assert.True(t, snap.Saved.Has(domain.EnrichmentKey("e1")))
	assert.False(t, snap.Saved.Has(domain.ArticleKey("e1")))
	assert.Equal(t, 2, snap.Saved.Len())
	assert.Empty(t, snap.Warnings)
	assert.Equal(t, testNow, snap.LoadedAt)
}

func TestPipeline_LoadDegraded(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		collection string
	}{
		{name: "enrichments", method: "QueryAllEnrichments", collection: domain.CollectionEnrichments},
		{name: "saved enrichments", method: "QuerySavedEnrichmentIDs", collection: domain.CollectionSavedEnrichments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFixture()
			b.savedEnrichments = []string{"e1"}
			b.errs = map[string]error{tt.method: errors.New("relation does not exist")}

			snap, err := newTestPipeline(b).Load(context.Background())
			require.NoError(t, err)
			require.Len(t, snap.Warnings, 1)
			assert.Contains(t, domain.Message(snap.Warnings[0]), tt.collection)
			assert.Len(t, snap.Articles, 2)
		})
	}
}

func TestPipeline_LoadWithoutEnrichments(t *testing.T) {
	b := newFixture()
	b.errs = map[string]error{"QueryAllEnrichments": errors.New("timeout")}

	snap, err := newTestPipeline(b).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, Project(snap.Articles), 2)
}

func TestPipeline_LoadFatal(t *testing.T) {
	for _, method := range []string{"QueryArticles", "QuerySavedArticleIDs"} {
		t.Run(method, func(t *testing.T) {
			b := newFixture()
			b.errs = map[string]error{method: errors.New("connection refused")}

			snap, err := newTestPipeline(b).Load(context.Background())
			require.Error(t, err)
			assert.Nil(t, snap)
			assert.True(t, domain.IsFetchFatal(err))
			assert.Contains(t, domain.Message(err), "connection refused")
		})
	}
}

func TestGroupEnrichments_PreservesOrder(t *testing.T) {
	groups := GroupEnrichments([]domain.Enrichment{
		{ID: "x", ArticleID: "a", Position: 0},
		{ID: "y", ArticleID: "b", Position: 0},
		{ID: "z", ArticleID: "a", Position: 1},
	})
	require.Len(t, groups["a"], 2)
	assert.Equal(t, "x", groups["a"][0].ID)
	assert.Equal(t, "z", groups["a"][1].ID)
	assert.Len(t, groups["b"], 1)
}
