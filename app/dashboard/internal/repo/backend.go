package repo

import (
	"context"
	"time"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
)

// Backend 看板依赖的后端能力接口
type Backend interface {
	// QueryArticles 获取 since 之后发布的文章，按发布时间倒序
	QueryArticles(ctx context.Context, since time.Time) ([]domain.Article, error)
	// QueryAllEnrichments 获取全部增强条目，按 position 升序
	QueryAllEnrichments(ctx context.Context) ([]domain.Enrichment, error)
	QuerySavedArticleIDs(ctx context.Context) ([]string, error)
	QuerySavedEnrichmentIDs(ctx context.Context) ([]string, error)

	InsertSavedArticle(ctx context.Context, articleID string) error
	DeleteSavedArticle(ctx context.Context, articleID string) error
	InsertSavedEnrichment(ctx context.Context, enrichmentID string) error
	DeleteSavedEnrichment(ctx context.Context, enrichmentID string) error

	// DeleteArticle 删除文章，其增强条目由后端级联删除
	DeleteArticle(ctx context.Context, articleID string) error
	DeleteEnrichment(ctx context.Context, enrichmentID string) error
}

// AdminBackend 管理命令使用的扩展能力
type AdminBackend interface {
	Backend

	Migrate(ctx context.Context) error
	CountArticles(ctx context.Context, since time.Time) (int, error)
	ArticleExistsByURL(ctx context.Context, url string) (bool, error)
	// InsertArticle 写入文章并返回生成的 ID
	InsertArticle(ctx context.Context, a *domain.Article) (string, error)
	InsertEnrichments(ctx context.Context, articleID string, enrichments []domain.Enrichment) error
	// ImportArticle 原子地写入文章及其增强条目，返回文章 ID
	ImportArticle(ctx context.Context, a *domain.Article, enrichments []domain.Enrichment) (string, error)
	// ListArticleIDs 全部文章 ID，按发布时间倒序
	ListArticleIDs(ctx context.Context) ([]string, error)
	SetPublishedDate(ctx context.Context, articleID string, t time.Time) error
	// ListImageRefs 先列出全部文章，再列出全部增强条目
	ListImageRefs(ctx context.Context) ([]domain.ImageRef, error)
	SetImageURL(ctx context.Context, key domain.SavedKey, imageURL string) error
	Close() error
}
