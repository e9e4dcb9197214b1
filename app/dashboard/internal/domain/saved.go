package domain

// SavedKey 收藏集合中的键，带实体类型标签，避免文章 ID 与增强条目 ID 冲突
type SavedKey struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

func ArticleKey(id string) SavedKey    { return SavedKey{Kind: KindArticle, ID: id} }
func EnrichmentKey(id string) SavedKey { return SavedKey{Kind: KindEnrichment, ID: id} }

// SavedSet 已收藏条目集合
type SavedSet map[SavedKey]struct{}

// NewSavedSet 合并已收藏的文章 ID 与增强条目 ID
func NewSavedSet(articleIDs, enrichmentIDs []string) SavedSet {
	s := make(SavedSet, len(articleIDs)+len(enrichmentIDs))
	for _, id := range articleIDs {
		s[ArticleKey(id)] = struct{}{}
	}
	for _, id := range enrichmentIDs {
		s[EnrichmentKey(id)] = struct{}{}
	}
	return s
}

func (s SavedSet) Has(k SavedKey) bool {
	_, ok := s[k]
	return ok
}

func (s SavedSet) Len() int { return len(s) }

// With 返回加入 k 之后的新集合，原集合不变
func (s SavedSet) With(k SavedKey) SavedSet {
	out := s.Clone()
	out[k] = struct{}{}
	return out
}

// Without 返回移除 keys 之后的新集合，原集合不变
func (s SavedSet) Without(keys ...SavedKey) SavedSet {
	out := s.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func (s SavedSet) Clone() SavedSet {
	out := make(SavedSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
