package domain

import "time"

// Card 渲染用的扁平卡片，由文章或其增强条目投影而来，不持久化
type Card struct {
	Type             EntityKind `json:"type"`
	ID               string     `json:"id"`
	ParentArticleID  string     `json:"parent_article_id,omitempty"`
	ParentArticleURL string     `json:"parent_article_url,omitempty"`
	URL              string     `json:"url,omitempty"`
	Source           string     `json:"source"`
	Title            string     `json:"title"`
	Summary          string     `json:"summary"`
	Content          string     `json:"content,omitempty"`
	ImageURL         string     `json:"image_url,omitempty"`
	Author           string     `json:"author"`
	PublishedDate    time.Time  `json:"published_date"`
}

// Key 返回卡片在收藏集合中的键
func (c Card) Key() SavedKey {
	return SavedKey{Kind: c.Type, ID: c.ID}
}

// Link 卡片点击后打开的地址
func (c Card) Link() string {
	if c.Type == KindEnrichment {
		return c.ParentArticleURL
	}
	return c.URL
}

// Filter 当前激活的筛选模式：all、saved 或来源名
type Filter string

const (
	FilterAll   Filter = "all"
	FilterSaved Filter = "saved"
)

// NormalizeFilter 空值视为 all
func NormalizeFilter(s string) Filter {
	if s == "" {
		return FilterAll
	}
	return Filter(s)
}
