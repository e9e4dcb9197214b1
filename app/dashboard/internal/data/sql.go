package data

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/conf"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/repo"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Store 基于 database/sql 的后端实现，支持 postgres 与 sqlite3
type Store struct {
	db     *sql.DB
	driver string
	log    *log.Helper
}

var _ repo.AdminBackend = (*Store)(nil)

// NewStore 打开数据库连接
func NewStore(c *conf.Database, logger log.Logger) (*Store, error) {
	if c == nil {
		return nil, fmt.Errorf("database config is required")
	}
	driver := c.Driver
	switch driver {
	case "", DriverPostgres:
		driver = DriverPostgres
	case DriverSQLite, "sqlite":
		driver = DriverSQLite
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.Driver)
	}

	source := c.Source
	if driver == DriverSQLite {
		source = sqliteDSN(source)
	}
	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if driver == DriverSQLite {
		// :memory: 库只存在于单个连接上
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, driver: driver, log: log.NewHelper(logger)}, nil
}

// sqliteDSN 外键约束写入 DSN，每个新连接都会启用
func sqliteDSN(source string) string {
	if strings.Contains(source, "_foreign_keys=") || strings.Contains(source, "_fk=") {
		return source
	}
	sep := "?"
	if strings.Contains(source, "?") {
		sep = "&"
	}
	return source + sep + "_foreign_keys=on"
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate 创建表结构，可重复执行
func (s *Store) Migrate(ctx context.Context) error {
	schema, err := schemaFS.ReadFile("schema/" + s.driver + ".sql")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// rebind 将 ? 占位符转换为 postgres 的 $n
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ts sqlite 以文本比较时间，统一使用 UTC
func ts(t time.Time) time.Time {
	return t.UTC()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

const articleColumns = `id, url, source, title, COALESCE(summary, ''), COALESCE(author, ''), COALESCE(image_url, ''), published_date`

func (s *Store) QueryArticles(ctx context.Context, since time.Time) ([]domain.Article, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+articleColumns+`
		FROM articles WHERE published_date >= ? ORDER BY published_date DESC`), ts(since))
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.URL, &a.Source, &a.Title, &a.Summary, &a.Author, &a.ImageURL, &a.PublishedDate); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (s *Store) QueryAllEnrichments(ctx context.Context) ([]domain.Enrichment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, article_id, title, COALESCE(summary, ''), COALESCE(content, ''),
		COALESCE(image_url, ''), position FROM article_enrichments ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query enrichments: %w", err)
	}
	defer rows.Close()

	var enrichments []domain.Enrichment
	for rows.Next() {
		var e domain.Enrichment
		if err := rows.Scan(&e.ID, &e.ArticleID, &e.Title, &e.Summary, &e.Content, &e.ImageURL, &e.Position); err != nil {
			return nil, fmt.Errorf("scan enrichment: %w", err)
		}
		enrichments = append(enrichments, e)
	}
	return enrichments, rows.Err()
}

func (s *Store) queryIDs(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) QuerySavedArticleIDs(ctx context.Context) ([]string, error) {
	ids, err := s.queryIDs(ctx, `SELECT article_id FROM saved_articles`)
	if err != nil {
		return nil, fmt.Errorf("query saved articles: %w", err)
	}
	return ids, nil
}

func (s *Store) QuerySavedEnrichmentIDs(ctx context.Context) ([]string, error) {
	ids, err := s.queryIDs(ctx, `SELECT enrichment_id FROM saved_enrichments`)
	if err != nil {
		return nil, fmt.Errorf("query saved enrichments: %w", err)
	}
	return ids, nil
}

func (s *Store) InsertSavedArticle(ctx context.Context, articleID string) error {
	if _, err := s.exec(ctx, `INSERT INTO saved_articles (id, article_id) VALUES (?, ?)`, uuid.NewString(), articleID); err != nil {
		return fmt.Errorf("insert saved article: %w", err)
	}
	return nil
}

func (s *Store) DeleteSavedArticle(ctx context.Context, articleID string) error {
	if _, err := s.exec(ctx, `DELETE FROM saved_articles WHERE article_id = ?`, articleID); err != nil {
		return fmt.Errorf("delete saved article: %w", err)
	}
	return nil
}

func (s *Store) InsertSavedEnrichment(ctx context.Context, enrichmentID string) error {
	if _, err := s.exec(ctx, `INSERT INTO saved_enrichments (id, enrichment_id) VALUES (?, ?)`, uuid.NewString(), enrichmentID); err != nil {
		return fmt.Errorf("insert saved enrichment: %w", err)
	}
	return nil
}

func (s *Store) DeleteSavedEnrichment(ctx context.Context, enrichmentID string) error {
	if _, err := s.exec(ctx, `DELETE FROM saved_enrichments WHERE enrichment_id = ?`, enrichmentID); err != nil {
		return fmt.Errorf("delete saved enrichment: %w", err)
	}
	return nil
}

func (s *Store) DeleteArticle(ctx context.Context, articleID string) error {
	if _, err := s.exec(ctx, `DELETE FROM articles WHERE id = ?`, articleID); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

func (s *Store) DeleteEnrichment(ctx context.Context, enrichmentID string) error {
	if _, err := s.exec(ctx, `DELETE FROM article_enrichments WHERE id = ?`, enrichmentID); err != nil {
		return fmt.Errorf("delete enrichment: %w", err)
	}
	return nil
}

func (s *Store) CountArticles(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM articles WHERE published_date >= ?`), ts(since)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

func (s *Store) ArticleExistsByURL(ctx context.Context, url string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM articles WHERE url = ?`), url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup article %s: %w", url, err)
	}
	return n > 0, nil
}

// execer 兼容 *sql.DB 与 *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) InsertArticle(ctx context.Context, a *domain.Article) (string, error) {
	return s.insertArticle(ctx, s.db, a)
}

func (s *Store) insertArticle(ctx context.Context, db execer, a *domain.Article) (string, error) {
	id := a.ID
	if id == "" {
		id = uuid.NewString()
	}
	published := a.PublishedDate
	if published.IsZero() {
		published = time.Now()
	}
	_, err := db.ExecContext(ctx, s.rebind(`INSERT INTO articles (id, url, source, title, summary, author, image_url, published_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		id, a.URL, a.Source, a.Title, a.Summary, a.Author, a.ImageURL, ts(published))
	if err != nil {
		return "", fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

func (s *Store) insertEnrichments(ctx context.Context, db execer, articleID string, enrichments []domain.Enrichment) error {
	query := s.rebind(`INSERT INTO article_enrichments (id, article_id, title, summary, content, image_url, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, e := range enrichments {
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := db.ExecContext(ctx, query, id, articleID, e.Title, e.Summary, e.Content, e.ImageURL, e.Position); err != nil {
			return fmt.Errorf("insert enrichment: %w", err)
		}
	}
	return nil
}

// withTx 在事务中执行 fn，fn 返回错误时回滚
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: %v", err, rerr)
		}
		return err
	}
	return tx.Commit()
}

// InsertEnrichments 在一个事务内写入文章的全部增强条目
func (s *Store) InsertEnrichments(ctx context.Context, articleID string, enrichments []domain.Enrichment) error {
	if len(enrichments) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.insertEnrichments(ctx, tx, articleID, enrichments)
	})
}

// ImportArticle 文章与增强条目在同一事务内写入，任一失败都不留下数据
func (s *Store) ImportArticle(ctx context.Context, a *domain.Article, enrichments []domain.Enrichment) (string, error) {
	var id string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if id, err = s.insertArticle(ctx, tx, a); err != nil {
			return err
		}
		return s.insertEnrichments(ctx, tx, id, enrichments)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListArticleIDs(ctx context.Context) ([]string, error) {
	ids, err := s.queryIDs(ctx, `SELECT id FROM articles ORDER BY published_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return ids, nil
}

func (s *Store) SetPublishedDate(ctx context.Context, articleID string, t time.Time) error {
	if _, err := s.exec(ctx, `UPDATE articles SET published_date = ? WHERE id = ?`, ts(t), articleID); err != nil {
		return fmt.Errorf("update article %s: %w", articleID, err)
	}
	return nil
}

func (s *Store) queryImageRefs(ctx context.Context, kind domain.EntityKind, query string) ([]domain.ImageRef, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.ImageRef
	for rows.Next() {
		ref := domain.ImageRef{Key: domain.SavedKey{Kind: kind}}
		if err := rows.Scan(&ref.Key.ID, &ref.Title, &ref.PageURL, &ref.ImageURL); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) ListImageRefs(ctx context.Context) ([]domain.ImageRef, error) {
	articles, err := s.queryImageRefs(ctx, domain.KindArticle, `SELECT id, title, url, COALESCE(image_url, '')
		FROM articles ORDER BY published_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list article images: %w", err)
	}
	enrichments, err := s.queryImageRefs(ctx, domain.KindEnrichment, `SELECT e.id, e.title, a.url, COALESCE(e.image_url, '')
		FROM article_enrichments e JOIN articles a ON a.id = e.article_id
		ORDER BY a.published_date DESC, e.position ASC`)
	if err != nil {
		return nil, fmt.Errorf("list enrichment images: %w", err)
	}
	return append(articles, enrichments...), nil
}

func (s *Store) SetImageURL(ctx context.Context, key domain.SavedKey, imageURL string) error {
	var table string
	switch key.Kind {
	case domain.KindArticle:
		table = "articles"
	case domain.KindEnrichment:
		table = "article_enrichments"
	default:
		return fmt.Errorf("unknown entity kind: %s", key.Kind)
	}
	if _, err := s.exec(ctx, `UPDATE `+table+` SET image_url = ? WHERE id = ?`, imageURL, key.ID); err != nil {
		return fmt.Errorf("update %s image %s: %w", key.Kind, key.ID, err)
	}
	return nil
}
