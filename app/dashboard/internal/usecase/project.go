package usecase

import "github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"

// Project 把文章列表展开为卡片：有增强条目时每个条目一张卡片，否则文章本身一张。
// 外层按文章顺序，内层按增强条目顺序，不重新排序。
func Project(articles []domain.Article) []domain.Card {
	cards := make([]domain.Card, 0, len(articles))
	for _, a := range articles {
		if len(a.Enrichments) == 0 {
			cards = append(cards, domain.Card{
				Type:          domain.KindArticle,
				ID:            a.ID,
				URL:           a.URL,
				Source:        a.Source,
				Title:         a.Title,
				Summary:       a.Summary,
				ImageURL:      a.ImageURL,
				Author:        a.Author,
				PublishedDate: a.PublishedDate,
			})
			continue
		}
		for _, e := range a.Enrichments {
			cards = append(cards, domain.Card{
				Type:             domain.KindEnrichment,
				ID:               e.ID,
				ParentArticleID:  a.ID,
				ParentArticleURL: a.URL,
				Source:           a.Source,
				Title:            e.Title,
				Summary:          e.Summary,
				Content:          e.Content,
				ImageURL:         e.ImageURL,
				Author:           a.Author,
				PublishedDate:    a.PublishedDate,
			})
		}
	}
	return cards
}

// FilterCards 按当前筛选模式过滤卡片
func FilterCards(cards []domain.Card, filter domain.Filter, saved domain.SavedSet) []domain.Card {
	switch filter {
	case domain.FilterAll, "":
		return cards
	case domain.FilterSaved:
		out := make([]domain.Card, 0, len(cards))
		for _, c := range cards {
			if IsSavedCard(c, saved) {
				out = append(out, c)
			}
		}
		return out
	default:
		out := make([]domain.Card, 0, len(cards))
		for _, c := range cards {
			if c.Source == string(filter) {
				out = append(out, c)
			}
		}
		return out
	}
}

// IsSavedCard 卡片本身被收藏，或是已收藏文章的增强条目
func IsSavedCard(c domain.Card, saved domain.SavedSet) bool {
	if saved.Has(c.Key()) {
		return true
	}
	return c.Type == domain.KindEnrichment && c.ParentArticleID != "" &&
		saved.Has(domain.ArticleKey(c.ParentArticleID))
}

// ProjectedCard 只查找 Project 实际生成的卡片
func ProjectedCard(articles []domain.Article, key domain.SavedKey) (domain.Card, bool) {
	for _, c := range Project(articles) {
		if c.Key() == key {
			return c, true
		}
	}
	return domain.Card{}, false
}

// FindCard 在文章列表中查找卡片对应的实体
func FindCard(articles []domain.Article, key domain.SavedKey) (domain.Card, bool) {
	if c, ok := ProjectedCard(articles, key); ok {
		return c, true
	}
	// 有增强条目的文章本身没有卡片，但仍可通过接口删除或收藏
	if key.Kind == domain.KindArticle {
		for _, a := range articles {
			if a.ID == key.ID {
				return domain.Card{Type: domain.KindArticle, ID: a.ID, URL: a.URL, Source: a.Source, Title: a.Title}, true
			}
		}
	}
	return domain.Card{}, false
}
