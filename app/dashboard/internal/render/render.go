package render

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/usecase"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// CardView 单张卡片的模板数据
type CardView struct {
	domain.Card
	Saved       bool
	Armed       bool
	Expanded    bool
	Expandable  bool
	SourceLabel string
	AuthorLabel string
	TimeAgo     string
	Paragraphs  template.HTML
}

// PageData 整页模板数据
type PageData struct {
	Cards        []CardView
	Filters      []FilterButton
	ArticleCount int
	CardCount    int
	SavedCount   int
	SavedView    bool
	Loaded       bool
	LoadedAt     string
	Error        string
	Alert        string
	Warnings     []string
}

// Renderer 基于 html/template 的看板渲染器，所有插值均经过上下文转义
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

// NewRenderer 解析内嵌模板
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, now: time.Now}, nil
}

// NewCardView 由卡片、收藏状态和界面状态构造模板数据
func NewCardView(card domain.Card, saved bool, ui usecase.CardUI, now time.Time) CardView {
	author := card.Author
	if author == "" {
		author = "Unknown"
	}
	v := CardView{
		Card:        card,
		Saved:       saved,
		Armed:       ui.Delete == usecase.DeleteArmed,
		Expanded:    ui.Expanded,
		Expandable:  card.Type == domain.KindEnrichment && card.Content != "",
		SourceLabel: SourceLabel(card.Source),
		AuthorLabel: author,
		TimeAgo:     TimeAgo(card.PublishedDate, now),
	}
	if v.Expandable && v.Expanded {
		v.Paragraphs = Paragraphs(card.Content)
	}
	return v
}

// RenderCard 渲染单张卡片
func (r *Renderer) RenderCard(card domain.Card, saved bool, ui usecase.CardUI) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "card", NewCardView(card, saved, ui, r.now())); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// NewPageData 由会话状态构造整页数据
func (r *Renderer) NewPageData(s usecase.State) PageData {
	now := r.now()
	cards := usecase.View(s)
	views := make([]CardView, 0, len(cards))
	for _, c := range cards {
		views = append(views, NewCardView(c, s.Saved.Has(c.Key()), s.UI[c.Key()], now))
	}

	data := PageData{
		Cards:        views,
		Filters:      FilterButtons(s.Articles, s.Filter),
		ArticleCount: len(s.Articles),
		CardCount:    len(usecase.Project(s.Articles)),
		SavedCount:   s.Saved.Len(),
		SavedView:    s.Filter == domain.FilterSaved,
		Loaded:       s.Loaded,
		Error:        s.Err,
		Alert:        s.Alert,
		Warnings:     s.Warnings,
	}
	if !s.LoadedAt.IsZero() {
		data.LoadedAt = TimeAgo(s.LoadedAt, now)
	}
	return data
}

// RenderPage 渲染整页
func (r *Renderer) RenderPage(w io.Writer, s usecase.State) error {
	return r.tmpl.ExecuteTemplate(w, "page", r.NewPageData(s))
}
