package render

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
)

// KnownSources 有固定展示名的来源，按筛选栏顺序排列
var KnownSources = []string{"bensbites", "rundown", "reddit"}

var sourceLabels = map[string]string{
	"bensbites": "Ben's Bites",
	"rundown":   "The Rundown",
	"reddit":    "Reddit",
}

// SourceLabel 来源展示名，未知来源原样返回
func SourceLabel(source string) string {
	if label, ok := sourceLabels[source]; ok {
		return label
	}
	return source
}

var timeUnits = []struct {
	name    string
	seconds int64
}{
	{"year", 31536000},
	{"month", 2592000},
	{"week", 604800},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
}

// TimeAgo 相对时间，例如 "2 days ago"；不足一分钟（含未来时间）为 "just now"
func TimeAgo(t, now time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	for _, u := range timeUnits {
		n := seconds / u.seconds
		if n >= 1 {
			plural := ""
			if n > 1 {
				plural = "s"
			}
			return fmt.Sprintf("%d %s%s ago", n, u.name, plural)
		}
	}
	return "just now"
}

// Paragraphs 转义正文后按空行切分为 <p> 段落
func Paragraphs(content string) template.HTML {
	if content == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(content)
	return template.HTML("<p>" + strings.ReplaceAll(escaped, "\n\n", "</p><p>") + "</p>")
}

// FilterButton 筛选栏按钮
type FilterButton struct {
	Value  string
	Label  string
	Active bool
}

// FilterButtons all、已知来源、数据中出现的其他来源（按字母序）、saved
func FilterButtons(articles []domain.Article, active domain.Filter) []FilterButton {
	values := []string{string(domain.FilterAll)}
	values = append(values, KnownSources...)

	seen := make(map[string]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	var extra []string
	for _, a := range articles {
		if a.Source != "" && !seen[a.Source] && a.Source != string(domain.FilterSaved) {
			seen[a.Source] = true
			extra = append(extra, a.Source)
		}
	}
	sort.Strings(extra)
	values = append(values, extra...)
	values = append(values, string(domain.FilterSaved))

	buttons := make([]FilterButton, 0, len(values))
	for _, v := range values {
		label := SourceLabel(v)
		switch domain.Filter(v) {
		case domain.FilterAll:
			label = "All"
		case domain.FilterSaved:
			label = "Saved"
		}
		buttons = append(buttons, FilterButton{Value: v, Label: label, Active: domain.Filter(v) == active})
	}
	return buttons
}
