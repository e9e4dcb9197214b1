package usecase

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/metrics"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/repo"
)

// Mutator 收藏与删除的写操作。远端写失败时不修改本地状态。
type Mutator struct {
	backend repo.Backend
	log     *log.Helper
}

// NewMutator 创建写操作实例
func NewMutator(backend repo.Backend, logger log.Logger) *Mutator {
	return &Mutator{backend: backend, log: log.NewHelper(logger)}
}

// ToggleSave 已收藏则取消收藏，否则收藏。返回新的集合，入参不会被修改。
func (m *Mutator) ToggleSave(ctx context.Context, saved domain.SavedSet, key domain.SavedKey) (domain.SavedSet, error) {
	wasSaved := saved.Has(key)
	action := "save"
	if wasSaved {
		action = "unsave"
	}

	var err error
	switch key.Kind {
	case domain.KindEnrichment:
		if wasSaved {
			err = m.backend.DeleteSavedEnrichment(ctx, key.ID)
		} else {
			err = m.backend.InsertSavedEnrichment(ctx, key.ID)
		}
	case domain.KindArticle:
		if wasSaved {
			err = m.backend.DeleteSavedArticle(ctx, key.ID)
		} else {
			err = m.backend.InsertSavedArticle(ctx, key.ID)
		}
	default:
		return saved, domain.InvalidKind(string(key.Kind))
	}
	metrics.RecordMutation(action, string(key.Kind), err)

	if err != nil {
		m.log.Errorf("Error toggling save for %s %s: %v", key.Kind, key.ID, err)
		return saved, domain.MutationFailed(action, key, err)
	}

	m.log.Infof("%s %s: %s", key.Kind, action, key.ID)
	if wasSaved {
		return saved.Without(key), nil
	}
	return saved.With(key), nil
}

// Delete 删除文章或增强条目，成功后返回移除该实体（及级联条目）后的文章列表与收藏集合
func (m *Mutator) Delete(ctx context.Context, articles []domain.Article, saved domain.SavedSet, key domain.SavedKey) ([]domain.Article, domain.SavedSet, error) {
	var err error
	switch key.Kind {
	case domain.KindEnrichment:
		err = m.backend.DeleteEnrichment(ctx, key.ID)
	case domain.KindArticle:
		err = m.backend.DeleteArticle(ctx, key.ID)
	default:
		return articles, saved, domain.InvalidKind(string(key.Kind))
	}
	metrics.RecordMutation("delete", string(key.Kind), err)

	if err != nil {
		m.log.Errorf("Error deleting %s %s: %v", key.Kind, key.ID, err)
		return articles, saved, domain.MutationFailed("delete", key, err)
	}

	next, removed := RemoveEntity(articles, key)
	m.log.Infof("%s deleted: %s", key.Kind, key.ID)
	return next, saved.Without(removed...), nil
}

// RemoveEntity 从文章列表中移除实体，返回新列表以及所有被移除的键。
// 删除文章时，其增强条目一并移除。
func RemoveEntity(articles []domain.Article, key domain.SavedKey) ([]domain.Article, []domain.SavedKey) {
	removed := []domain.SavedKey{key}
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		switch key.Kind {
		case domain.KindArticle:
			if a.ID == key.ID {
				for _, e := range a.Enrichments {
					removed = append(removed, domain.EnrichmentKey(e.ID))
				}
				continue
			}
		case domain.KindEnrichment:
			kept := make([]domain.Enrichment, 0, len(a.Enrichments))
			for _, e := range a.Enrichments {
				if e.ID != key.ID {
					kept = append(kept, e)
				}
			}
			a.Enrichments = kept
		}
		out = append(out, a)
	}
	return out, removed
}
