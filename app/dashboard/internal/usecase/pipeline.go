package usecase

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/conf"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/metrics"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/repo"
)

// Snapshot 一次完整加载的结果
type Snapshot struct {
	Articles []domain.Article
	Saved    domain.SavedSet
	// Warnings 可降级查询的失败信息
	Warnings []error
	LoadedAt time.Time
}

// Pipeline 拉取四个集合并合并为文章列表与收藏集合
type Pipeline struct {
	backend repo.Backend
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
	log     *log.Helper
}

// NewPipeline 创建数据合并流程
func NewPipeline(backend repo.Backend, c *conf.Dashboard, logger log.Logger) *Pipeline {
	return &Pipeline{
		backend: backend,
		window:  c.WindowDuration(),
		timeout: c.LoadTimeoutDuration(),
		now:     time.Now,
		log:     log.NewHelper(logger),
	}
}

// Load 执行一次加载。文章或已收藏文章查询失败时返回 FETCH_FATAL，
// 已收藏增强条目与增强条目查询失败时按空集合处理。
func (p *Pipeline) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	now := p.now()
	since := now.Add(-p.window)

	var (
		articles         []domain.Article
		savedArticles    []string
		savedEnrichments []string
		enrichments      []domain.Enrichment
		savedEnrichWarn  error
		enrichWarn       error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := p.backend.QueryArticles(gctx, since)
		if err != nil {
			return domain.FetchFatal(domain.CollectionArticles, err)
		}
		articles = res
		return nil
	})
	g.Go(func() error {
		res, err := p.backend.QuerySavedArticleIDs(gctx)
		if err != nil {
			return domain.FetchFatal(domain.CollectionSavedArticles, err)
		}
		savedArticles = res
		return nil
	})
	g.Go(func() error {
		res, err := p.backend.QuerySavedEnrichmentIDs(gctx)
		if err != nil {
			savedEnrichWarn = domain.FetchDegraded(domain.CollectionSavedEnrichments, err)
			return nil
		}
		savedEnrichments = res
		return nil
	})
	g.Go(func() error {
		res, err := p.backend.QueryAllEnrichments(gctx)
		if err != nil {
			enrichWarn = domain.FetchDegraded(domain.CollectionEnrichments, err)
			return nil
		}
		enrichments = res
		return nil
	})

	if err := g.Wait(); err != nil {
		metrics.RecordLoad("failed", time.Since(start).Seconds())
		p.log.Errorf("Error loading data: %v", err)
		return nil, err
	}

	var warnings []error
	for _, w := range []error{savedEnrichWarn, enrichWarn} {
		if w != nil {
			p.log.Warnf("%s", domain.Message(w))
			warnings = append(warnings, w)
		}
	}

	snap := &Snapshot{
		Articles: Attach(articles, GroupEnrichments(enrichments)),
		Saved:    domain.NewSavedSet(savedArticles, savedEnrichments),
		Warnings: warnings,
		LoadedAt: now,
	}

	status := "ok"
	if len(warnings) > 0 {
		status = "degraded"
	}
	metrics.RecordLoad(status, time.Since(start).Seconds())
	p.log.Infof("Loaded %d articles, %d saved items, %d enrichments",
		len(snap.Articles), snap.Saved.Len(), len(enrichments))
	return snap, nil
}

// GroupEnrichments 按 article_id 分组，组内保持输入顺序
func GroupEnrichments(enrichments []domain.Enrichment) map[string][]domain.Enrichment {
	groups := make(map[string][]domain.Enrichment)
	for _, e := range enrichments {
		groups[e.ArticleID] = append(groups[e.ArticleID], e)
	}
	return groups
}

// Attach 为每篇文章挂上对应的增强条目，没有时为空列表
func Attach(articles []domain.Article, groups map[string][]domain.Enrichment) []domain.Article {
	out := make([]domain.Article, len(articles))
	for i, a := range articles {
		out[i] = a
		if g, ok := groups[a.ID]; ok {
			out[i].Enrichments = append([]domain.Enrichment(nil), g...)
		} else {
			out[i].Enrichments = []domain.Enrichment{}
		}
	}
	return out
}
