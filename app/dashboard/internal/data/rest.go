package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/conf"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/repo"
)

const restPrefix = "/rest/v1/"

// RestClient PostgREST (Supabase) 接口客户端
type RestClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	log     *log.Helper
}

// Ensure RestClient implements repo.Backend
var _ repo.Backend = (*RestClient)(nil)

// NewRestClient 创建 REST 后端，qps 不大于 0 时不限流
func NewRestClient(c *conf.Rest, logger log.Logger) (*RestClient, error) {
	if c == nil || c.BaseUrl == "" {
		return nil, fmt.Errorf("rest base_url is required")
	}
	limit := rate.Inf
	if c.Qps > 0 {
		limit = rate.Limit(c.Qps)
	}
	burst := int(c.Burst)
	if burst <= 0 {
		burst = 1
	}
	return &RestClient{
		baseURL: strings.TrimRight(c.BaseUrl, "/"),
		apiKey:  c.ApiKey,
		client:  &http.Client{Timeout: conf.ParseDuration(c.Timeout, 10*time.Second)},
		limiter: rate.NewLimiter(limit, burst),
		log:     log.NewHelper(logger),
	}, nil
}

// restID 兼容数字与字符串主键
type restID string

func (id *restID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = restID(s)
		return nil
	}
	if string(b) == "null" {
		*id = ""
		return nil
	}
	*id = restID(b)
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05",
}

// restTime 兼容带时区与不带时区（按 UTC 处理）的时间戳
type restTime time.Time

func (t *restTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = restTime(time.Time{})
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			*t = restTime(v)
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

type articleRow struct {
	ID            restID   `json:"id"`
	URL           string   `json:"url"`
	Source        string   `json:"source"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	Author        string   `json:"author"`
	ImageURL      string   `json:"image_url"`
	PublishedDate restTime `json:"published_date"`
}

type enrichmentRow struct {
	ID        restID `json:"id"`
	ArticleID restID `json:"article_id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	ImageURL  string `json:"image_url"`
	Position  int    `json:"position"`
}

// restError PostgREST 错误响应
type restError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// do 发送请求，out 为 nil 时忽略响应体
func (c *RestClient) do(ctx context.Context, method, table string, query url.Values, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + restPrefix + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, table, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var re restError
		if json.Unmarshal(data, &re) == nil && re.Message != "" {
			return fmt.Errorf("%s %s: status %d: %s", method, table, resp.StatusCode, re.Message)
		}
		return fmt.Errorf("%s %s: status %d: %s", method, table, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal %s response failed: %w", table, err)
	}
	return nil
}

func eq(id string) string {
	return "eq." + id
}

func (c *RestClient) QueryArticles(ctx context.Context, since time.Time) ([]domain.Article, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("published_date", "gte."+since.UTC().Format(time.RFC3339))
	q.Set("order", "published_date.desc")

	var rows []articleRow
	if err := c.do(ctx, http.MethodGet, "articles", q, nil, &rows); err != nil {
		return nil, err
	}
	articles := make([]domain.Article, 0, len(rows))
	for _, r := range rows {
		articles = append(articles, domain.Article{
			ID:            string(r.ID),
			URL:           r.URL,
			Source:        r.Source,
			Title:         r.Title,
			Summary:       r.Summary,
			Author:        r.Author,
			ImageURL:      r.ImageURL,
			PublishedDate: time.Time(r.PublishedDate),
		})
	}
	return articles, nil
}

func (c *RestClient) QueryAllEnrichments(ctx context.Context) ([]domain.Enrichment, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "position.asc")

	var rows []enrichmentRow
	if err := c.do(ctx, http.MethodGet, "article_enrichments", q, nil, &rows); err != nil {
		return nil, err
	}
	enrichments := make([]domain.Enrichment, 0, len(rows))
	for _, r := range rows {
		enrichments = append(enrichments, domain.Enrichment{
			ID:        string(r.ID),
			ArticleID: string(r.ArticleID),
			Title:     r.Title,
			Summary:   r.Summary,
			Content:   r.Content,
			ImageURL:  r.ImageURL,
			Position:  r.Position,
		})
	}
	return enrichments, nil
}

func (c *RestClient) queryIDs(ctx context.Context, table, column string) ([]string, error) {
	q := url.Values{}
	q.Set("select", column)

	var rows []map[string]restID
	if err := c.do(ctx, http.MethodGet, table, q, nil, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, string(r[column]))
	}
	return ids, nil
}

func (c *RestClient) QuerySavedArticleIDs(ctx context.Context) ([]string, error) {
	return c.queryIDs(ctx, "saved_articles", "article_id")
}

func (c *RestClient) QuerySavedEnrichmentIDs(ctx context.Context) ([]string, error) {
	return c.queryIDs(ctx, "saved_enrichments", "enrichment_id")
}

func (c *RestClient) InsertSavedArticle(ctx context.Context, articleID string) error {
	return c.do(ctx, http.MethodPost, "saved_articles", nil, map[string]string{"article_id": articleID}, nil)
}

func (c *RestClient) DeleteSavedArticle(ctx context.Context, articleID string) error {
	return c.do(ctx, http.MethodDelete, "saved_articles", url.Values{"article_id": {eq(articleID)}}, nil, nil)
}

func (c *RestClient) InsertSavedEnrichment(ctx context.Context, enrichmentID string) error {
	return c.do(ctx, http.MethodPost, "saved_enrichments", nil, map[string]string{"enrichment_id": enrichmentID}, nil)
}

func (c *RestClient) DeleteSavedEnrichment(ctx context.Context, enrichmentID string) error {
	return c.do(ctx, http.MethodDelete, "saved_enrichments", url.Values{"enrichment_id": {eq(enrichmentID)}}, nil, nil)
}

func (c *RestClient) DeleteArticle(ctx context.Context, articleID string) error {
	return c.do(ctx, http.MethodDelete, "articles", url.Values{"id": {eq(articleID)}}, nil, nil)
}

func (c *RestClient) DeleteEnrichment(ctx context.Context, enrichmentID string) error {
	return c.do(ctx, http.MethodDelete, "article_enrichments", url.Values{"id": {eq(enrichmentID)}}, nil, nil)
}
