package domain

import "time"

// EntityKind 区分文章与增强条目
type EntityKind string

const (
	KindArticle    EntityKind = "article"
	KindEnrichment EntityKind = "enrichment"
)

// ParseKind 解析路由或请求中的类型字符串
func ParseKind(s string) (EntityKind, bool) {
	switch EntityKind(s) {
	case KindArticle:
		return KindArticle, true
	case KindEnrichment:
		return KindEnrichment, true
	}
	return "", false
}

// Article 新闻文章
type Article struct {
	ID            string       `json:"id"`
	URL           string       `json:"url"`
	Source        string       `json:"source"`
	Title         string       `json:"title"`
	Summary       string       `json:"summary"`
	Author        string       `json:"author"`
	ImageURL      string       `json:"image_url,omitempty"`
	PublishedDate time.Time    `json:"published_date"`
	Enrichments   []Enrichment `json:"enrichments"`
}

// Enrichment 文章的派生条目，按 Position 升序排列
type Enrichment struct {
	ID        string `json:"id"`
	ArticleID string `json:"article_id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	ImageURL  string `json:"image_url,omitempty"`
	Position  int    `json:"position"`
}

// ImageRef 带配图的实体；增强条目的 PageURL 为所属文章的链接
type ImageRef struct {
	Key      SavedKey
	Title    string
	PageURL  string
	ImageURL string
}

// CloneArticles 深拷贝文章列表（包括 Enrichments）
func CloneArticles(articles []Article) []Article {
	if articles == nil {
		return nil
	}
	out := make([]Article, len(articles))
	for i, a := range articles {
		out[i] = a
		if a.Enrichments != nil {
			out[i].Enrichments = append([]Enrichment(nil), a.Enrichments...)
		}
	}
	return out
}
