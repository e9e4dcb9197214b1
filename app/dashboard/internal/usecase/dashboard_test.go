package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
)

func TestDashboard_DeleteStateMachine(t *testing.T) {
	b := newFixture()
	b.savedEnrichments = []string{"e1"}
	d := newTestDashboard(b)
	ctx := context.Background()
	key := domain.EnrichmentKey("e1")

	_, err := d.Dispatch(ctx, Event{Kind: EventRefresh})
	require.NoError(t, err)

	s, err := d.Dispatch(ctx, Event{Kind: EventDeleteRequested, Key: key})
	require.NoError(t, err)
	assert.Equal(t, DeleteArmed, s.UI[key].Delete)
	assert.Len(t, View(s), 3, "arming must not delete")

	s, err = d.Dispatch(ctx, Event{Kind: EventDeleteCancelled, Key: key})
	require.NoError(t, err)
	assert.Equal(t, DeleteIdle, s.UI[key].Delete)

	_, err = d.Dispatch(ctx, Event{Kind: EventDeleteRequested, Key: key})
	require.NoError(t, err)
	s, err = d.Dispatch(ctx, Event{Kind: EventDeleteRequested, Key: key})
	require.NoError(t, err)

	assert.Len(t, View(s), 2)
	assert.False(t, s.Saved.Has(key))
	_, armed := s.UI[key]
	assert.False(t, armed)
	assert.Len(t, b.enrichments, 2)
}

func TestDashboard_DeleteArticleRemovesDependentCards(t *testing.T) {
	b := newFixture()
	d := newTestDashboard(b)
	ctx := context.Background()
	key := domain.ArticleKey("a1")

	_, err := d.Dispatch(ctx, Event{Kind: EventRefresh})
	require.NoError(t, err)
	_, err = d.Dispatch(ctx, Event{Kind: EventDeleteRequested, Key: key})
	require.NoError(t, err)
	s, err := d.Dispatch(ctx, Event{Kind: EventDeleteRequested, Key: key})
	require.NoError(t, err)

	cards := View(s)
	require.Len(t, cards, 1)
	assert.Equal(t, "a2", cards[0].ID)
}

func TestDashboard_RefreshFailureKeepsPriorState(t *testing.T) {
	b := newFixture()
	d := newTestDashboard(b)
	ctx := context.Background()

	_, err := d.Dispatch(ctx, Event{Kind: EventRefresh})
	require.NoError(t, err)

	b.errs = map[string]error{"QueryArticles": errors.New("network down")}
	s, err := d.Dispatch(ctx, Event{Kind: EventRefresh})
	require.Error(t, err)
	assert.True(t, domain.IsFetchFatal(err))
	assert.Len(t, View(s), 3)
	assert.Contains(t, s.Err, "network down")

	b.errs = nil
	s, err = d.Dispatch(ctx, Event{Kind: EventRefresh})
	require.NoError(t, err)
	assert.Empty(t, s.Err)
}

func TestDashboard_ToggleSaveFailureSetsAlert(t *testing.T) {
	b := newFixture()
	d := newTestDashboard(b)
	ctx := context.Background()
	key := domain.ArticleKey("a2")

	_, err := d.Dispatch(ctx, Event{Kind: EventRefresh})
	require.NoError(t, err)

	b.errs = map[string]error{"InsertSavedArticle": errors.New("boom")}
	s, err := d.Dispatch(ctx, Event{Kind: EventToggleSave, Key: key})
	require.Error(t, err)
	assert.False(t, s.Saved.Has(key))
	assert.Equal(t, "Failed to save item: boom", s.Alert)

	b.errs = nil
	s, err = d.Dispatch(ctx, Event{Kind: EventToggleSave, Key: key})
	require.NoError(t, err)
	assert.True(t, s.Saved.Has(key))
	assert.Empty(t, s.Alert)

	s, err = d.Dispatch(ctx, Event{Kind: EventSetFilter, Filter: domain.FilterSaved})
	require.NoError(t, err)
	cards := View(s)
	require.Len(t, cards, 1)
	assert.Equal(t, "a2", cards[0].ID)
}

func TestDashboard_UnknownCard(t *testing.T) {
	d := newTestDashboard(newFixture())
	ctx := context.Background()

	_, err := d.EnsureLoaded(ctx)
	require.NoError(t, err)

	_, err = d.Dispatch(ctx, Event{Kind: EventToggleSave, Key: domain.ArticleKey("nope")})
	require.Error(t, err)
	assert.True(t, kerrors.IsNotFound(err))
}

func TestDashboard_SetFilterReplaces(t *testing.T) {
	d := newTestDashboard(newFixture())
	ctx := context.Background()
	_, err := d.EnsureLoaded(ctx)
	require.NoError(t, err)

	s, err := d.Dispatch(ctx, Event{Kind: EventSetFilter, Filter: "rundown"})
	require.NoError(t, err)
	assert.Equal(t, domain.Filter("rundown"), s.Filter)

	s, err = d.Dispatch(ctx, Event{Kind: EventSetFilter, Filter: ""})
	require.NoError(t, err)
	assert.Equal(t, domain.FilterAll, s.Filter)

	// 未知值按来源名处理，不会退回 all
	s, err = d.Dispatch(ctx, Event{Kind: EventSetFilter, Filter: "hackernews"})
	require.NoError(t, err)
	assert.Equal(t, domain.Filter("hackernews"), s.Filter)
	assert.Empty(t, View(s))
}

func TestDashboard_ToggleExpand(t *testing.T) {
	d := newTestDashboard(newFixture())
	ctx := context.Background()
	key := domain.EnrichmentKey("e1")

	_, err := d.EnsureLoaded(ctx)
	require.NoError(t, err)

	s, err := d.Dispatch(ctx, Event{Kind: EventToggleExpand, Key: key})
	require.NoError(t, err)
	assert.True(t, s.UI[key].Expanded)

	s, err = d.Dispatch(ctx, Event{Kind: EventToggleExpand, Key: key})
	require.NoError(t, err)
	assert.False(t, s.UI[key].Expanded)
}

func TestDashboard_DeleteConfirmedSkipsArming(t *testing.T) {
	b := newFixture()
	d := newTestDashboard(b)
	ctx := context.Background()

	_, err := d.EnsureLoaded(ctx)
	require.NoError(t, err)

	s, err := d.Dispatch(ctx, Event{Kind: EventDeleteConfirmed, Key: domain.ArticleKey("a2")})
	require.NoError(t, err)
	assert.Len(t, View(s), 2)
	assert.Len(t, b.articles, 2)
}

// slowLoader 记录加载次数，每次加载耗时 delay
type slowLoader struct {
	inner Loader
	delay time.Duration
	calls atomic.Int32
}

func (l *slowLoader) Load(ctx context.Context) (*Snapshot, error) {
	l.calls.Add(1)
	time.Sleep(l.delay)
	return l.inner.Load(ctx)
}

func TestDashboard_EnsureLoadedOnce(t *testing.T) {
	b := newFixture()
	loader := &slowLoader{inner: newTestPipeline(b), delay: 20 * time.Millisecond}
	d := NewDashboard(loader, NewMutator(b, log.DefaultLogger), log.DefaultLogger)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := d.EnsureLoaded(ctx)
			assert.NoError(t, err)
			assert.True(t, s.Loaded)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestDashboard_EnsureLoadedRetriesAfterFailure(t *testing.T) {
	b := newFixture()
	b.errs = map[string]error{"QueryArticles": errors.New("network down")}
	d := newTestDashboard(b)
	ctx := context.Background()

	s, err := d.EnsureLoaded(ctx)
	require.Error(t, err)
	assert.False(t, s.Loaded)
	assert.Contains(t, s.Err, "network down")

	b.errs = nil
	s, err = d.EnsureLoaded(ctx)
	require.NoError(t, err)
	assert.True(t, s.Loaded)
	assert.Empty(t, s.Err)
}

func TestDashboard_SavedArticleShowsItsEnrichments(t *testing.T) {
	b := newFixture()
	b.savedArticles = []string{"a1"}
	d := newTestDashboard(b)
	ctx := context.Background()

	_, err := d.EnsureLoaded(ctx)
	require.NoError(t, err)
	s, err := d.Dispatch(ctx, Event{Kind: EventSetFilter, Filter: domain.FilterSaved})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Saved.Len())
	cards := View(s)
	require.Len(t, cards, 2)
	assert.Equal(t, "e1", cards[0].ID)
	assert.Equal(t, "e2", cards[1].ID)
}
