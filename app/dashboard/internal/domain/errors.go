package domain

import (
	"fmt"
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
)

const (
	ReasonFetchFatal     = "FETCH_FATAL"
	ReasonFetchDegraded  = "FETCH_DEGRADED"
	ReasonMutationFailed = "MUTATION_FAILED"
	ReasonCardNotFound   = "CARD_NOT_FOUND"
	ReasonInvalidKind    = "INVALID_KIND"
)

// Collections 后端集合名
const (
	CollectionArticles         = "articles"
	CollectionEnrichments      = "article_enrichments"
	CollectionSavedArticles    = "saved_articles"
	CollectionSavedEnrichments = "saved_enrichments"
)

// FetchFatal 主查询失败，本次加载中止
func FetchFatal(collection string, cause error) *errors.Error {
	return errors.ServiceUnavailable(ReasonFetchFatal, fmt.Sprintf("Failed to load %s: %v", collection, cause)).
		WithCause(cause).
		WithMetadata(map[string]string{"collection": collection})
}

// FetchDegraded 可降级查询失败，记录告警后按空集合处理
func FetchDegraded(collection string, cause error) *errors.Error {
	return errors.New(http.StatusOK, ReasonFetchDegraded, fmt.Sprintf("Could not load %s: %v", collection, cause)).
		WithCause(cause).
		WithMetadata(map[string]string{"collection": collection})
}

// MutationFailed 写操作失败，本地状态不变
func MutationFailed(action string, key SavedKey, cause error) *errors.Error {
	var msg string
	switch action {
	case "delete":
		msg = fmt.Sprintf("Failed to delete %s: %v", key.Kind, cause)
	default:
		msg = fmt.Sprintf("Failed to %s item: %v", action, cause)
	}
	return errors.New(http.StatusBadGateway, ReasonMutationFailed, msg).
		WithCause(cause).
		WithMetadata(map[string]string{"action": action, "kind": string(key.Kind), "id": key.ID})
}

func CardNotFound(key SavedKey) *errors.Error {
	return errors.NotFound(ReasonCardNotFound, fmt.Sprintf("%s %s not found", key.Kind, key.ID))
}

func InvalidKind(kind string) *errors.Error {
	return errors.BadRequest(ReasonInvalidKind, fmt.Sprintf("unknown card type %q", kind))
}

func IsFetchFatal(err error) bool     { return errors.Reason(err) == ReasonFetchFatal }
func IsMutationFailed(err error) bool { return errors.Reason(err) == ReasonMutationFailed }

// Message 返回适合展示给用户的错误信息
func Message(err error) string {
	if err == nil {
		return ""
	}
	if e := errors.FromError(err); e != nil && e.Reason != "" {
		return e.Message
	}
	return err.Error()
}
