package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/repo"
)

// ReadDemo 解析 JSON 数组格式的演示数据，每篇文章可带 enrichments，
// published_date 为 RFC 3339 格式
func ReadDemo(r io.Reader) ([]domain.Article, error) {
	var articles []domain.Article
	if err := json.NewDecoder(r).Decode(&articles); err != nil {
		return nil, fmt.Errorf("parse demo data: %w", err)
	}
	return articles, nil
}

// Fetcher 抓取文章页面并返回摘要
type Fetcher interface {
	Summary(ctx context.Context, url string) (string, error)
}

const maxSummaryRunes = 300

// ReadabilityFetcher 使用 go-readability 提取正文
type ReadabilityFetcher struct {
	Timeout time.Duration
}

func (f ReadabilityFetcher) Summary(ctx context.Context, url string) (string, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", err
	}
	return Summarize(article.TextContent), nil
}

// Summarize 取正文第一个非空段落，超过 300 字符时截断
func Summarize(text string) string {
	var first string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			first = line
			break
		}
	}
	first = strings.Join(strings.Fields(first), " ")
	if utf8.RuneCountInString(first) <= maxSummaryRunes {
		return first
	}
	runes := []rune(first)
	return strings.TrimSpace(string(runes[:maxSummaryRunes])) + "…"
}

// Stats 导入结果统计
type Stats struct {
	Saved       int
	Skipped     int
	Errors      int
	Enrichments int
}

var (
	markupPolicy = bluemonday.StrictPolicy()
	blockBreaks  = strings.NewReplacer("</p>", "</p>\n\n", "<br>", "\n", "<br/>", "\n", "<br />", "\n")
)

// StripInline 去掉抓取文本中的 HTML 标签并合并空白
func StripInline(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(markupPolicy.Sanitize(s))), " ")
}

// StripParagraphs 去掉 HTML 标签，保留以空行分隔的段落
func StripParagraphs(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(markupPolicy.Sanitize(blockBreaks.Replace(s)))
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// Importer 将演示数据写入后端，按 URL 去重
type Importer struct {
	store   repo.AdminBackend
	fetcher Fetcher
	log     *log.Helper
}

// NewImporter fetcher 为 nil 时不补全摘要
func NewImporter(store repo.AdminBackend, fetcher Fetcher, logger log.Logger) *Importer {
	return &Importer{store: store, fetcher: fetcher, log: log.NewHelper(logger)}
}

// Import 单篇失败只计数，不中断导入
func (im *Importer) Import(ctx context.Context, articles []domain.Article) (Stats, error) {
	var stats Stats
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		demo := a.Enrichments
		a.Enrichments = nil

		exists, err := im.store.ArticleExistsByURL(ctx, a.URL)
		if err != nil {
			im.log.Errorf("Error: %s - %v", a.Title, err)
			stats.Errors++
			continue
		}
		if exists {
			im.log.Infof("Skipping (exists): %s", a.Title)
			stats.Skipped++
			continue
		}

		if a.Summary == "" && im.fetcher != nil {
			summary, err := im.fetcher.Summary(ctx, a.URL)
			if err != nil {
				im.log.Warnf("Could not extract summary for %s: %v", a.URL, err)
			} else {
				a.Summary = summary
			}
		}

		// ID 由后端生成
		a.ID = ""
		a.Title = StripInline(a.Title)
		a.Summary = StripInline(a.Summary)
		enrichments := make([]domain.Enrichment, len(demo))
		for i, e := range demo {
			e.ID = ""
			e.Title = StripInline(e.Title)
			e.Summary = StripInline(e.Summary)
			e.Content = StripParagraphs(e.Content)
			enrichments[i] = e
		}

		if _, err := im.store.ImportArticle(ctx, &a, enrichments); err != nil {
			im.log.Errorf("Error: %s - %v", a.Title, err)
			stats.Errors++
			continue
		}
		stats.Saved++
		stats.Enrichments += len(enrichments)
		im.log.Infof("Saved: %s", a.Title)
	}
	return stats, nil
}

// TouchDates 按发布时间倒序把第 i 篇文章的发布时间改为 now - i 小时
func TouchDates(ctx context.Context, store repo.AdminBackend, now time.Time) (int, error) {
	ids, err := store.ListArticleIDs(ctx)
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if err := store.SetPublishedDate(ctx, id, now.Add(-time.Duration(i)*time.Hour)); err != nil {
			return i, err
		}
	}
	return len(ids), nil
}

// Counts 文章总数与时间窗口内的数量
type Counts struct {
	Total  int
	Recent int
}

func Check(ctx context.Context, store repo.AdminBackend, now time.Time, window time.Duration) (Counts, error) {
	total, err := store.CountArticles(ctx, time.Time{})
	if err != nil {
		return Counts{}, err
	}
	recent, err := store.CountArticles(ctx, now.Add(-window))
	if err != nil {
		return Counts{}, err
	}
	return Counts{Total: total, Recent: recent}, nil
}
