package service

import (
	"context"
	nethttp "net/http"
	"net/url"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/render"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/usecase"
)

// DashboardService 把 HTTP 请求翻译为看板事件
type DashboardService struct {
	dash     *usecase.Dashboard
	renderer *render.Renderer
	log      *log.Helper
}

func NewDashboardService(dash *usecase.Dashboard, renderer *render.Renderer, logger log.Logger) *DashboardService {
	return &DashboardService{
		dash:     dash,
		renderer: renderer,
		log:      log.NewHelper(logger),
	}
}

// RegisterDashboardHTTPServer 注册页面与 JSON 接口路由
func RegisterDashboardHTTPServer(srv *http.Server, s *DashboardService) {
	r := srv.Route("/")
	r.GET("/", s.Index)
	r.POST("/refresh", s.Refresh)
	r.POST("/filter/{filter}", s.SetFilter)
	r.POST("/alert/dismiss", s.DismissAlert)
	r.POST("/cards/{kind}/{id}/save", s.cardEvent(usecase.EventToggleSave))
	r.POST("/cards/{kind}/{id}/delete", s.cardEvent(usecase.EventDeleteRequested))
	r.POST("/cards/{kind}/{id}/cancel", s.cardEvent(usecase.EventDeleteCancelled))
	r.POST("/cards/{kind}/{id}/expand", s.cardEvent(usecase.EventToggleExpand))

	r.GET("/api/cards", s.ListCards)
	r.POST("/api/cards/{kind}/{id}/save", s.SaveCard)
	r.DELETE("/api/cards/{kind}/{id}", s.DeleteCard)
}

// Index 渲染看板页面，首次访问时加载数据
func (s *DashboardService) Index(ctx http.Context) error {
	if f := ctx.Query().Get("filter"); f != "" {
		if cur := s.dash.Snapshot(); string(cur.Filter) != f {
			if _, err := s.dash.Dispatch(ctx, usecase.Event{Kind: usecase.EventSetFilter, Filter: domain.Filter(f)}); err != nil {
				return err
			}
		}
	}

	// 加载失败时页面展示错误面板
	state, _ := s.dash.EnsureLoaded(ctx)

	w := ctx.Response()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.RenderPage(w, state); err != nil {
		s.log.Errorf("render page: %v", err)
		return err
	}
	return nil
}

func (s *DashboardService) Refresh(ctx http.Context) error {
	return s.dispatchAndRedirect(ctx, usecase.Event{Kind: usecase.EventRefresh})
}

func (s *DashboardService) SetFilter(ctx http.Context) error {
	filter := ctx.Vars().Get("filter")
	return s.dispatchAndRedirect(ctx, usecase.Event{Kind: usecase.EventSetFilter, Filter: domain.Filter(filter)})
}

func (s *DashboardService) DismissAlert(ctx http.Context) error {
	return s.dispatchAndRedirect(ctx, usecase.Event{Kind: usecase.EventDismissAlert})
}

func (s *DashboardService) cardEvent(kind usecase.EventKind) http.HandlerFunc {
	return func(ctx http.Context) error {
		key, err := cardKey(ctx)
		if err != nil {
			return err
		}
		// 加载失败时回到页面展示错误
		state, err := s.dash.EnsureLoaded(ctx)
		if err != nil && !state.Loaded {
			return redirect(ctx, state.Filter)
		}
		// 页面只能操作实际渲染出的卡片
		if _, ok := usecase.ProjectedCard(state.Articles, key); !ok {
			return domain.CardNotFound(key)
		}
		return s.dispatchAndRedirect(ctx, usecase.Event{Kind: kind, Key: key})
	}
}

// dispatchAndRedirect 写操作与加载失败会记录在状态中并在页面上展示，其余错误直接返回
func (s *DashboardService) dispatchAndRedirect(ctx http.Context, ev usecase.Event) error {
	state, err := s.dash.Dispatch(ctx, ev)
	if err != nil && !domain.IsMutationFailed(err) && !domain.IsFetchFatal(err) {
		return err
	}
	return redirect(ctx, state.Filter)
}

func redirect(ctx http.Context, filter domain.Filter) error {
	target := "/?filter=" + url.QueryEscape(string(filter))
	nethttp.Redirect(ctx.Response(), ctx.Request(), target, nethttp.StatusSeeOther)
	return nil
}

func cardKey(ctx http.Context) (domain.SavedKey, error) {
	vars := ctx.Vars()
	kind, ok := domain.ParseKind(vars.Get("kind"))
	if !ok {
		return domain.SavedKey{}, domain.InvalidKind(vars.Get("kind"))
	}
	return domain.SavedKey{Kind: kind, ID: vars.Get("id")}, nil
}

type CardReply struct {
	domain.Card
	Saved   bool   `json:"saved"`
	TimeAgo string `json:"time_ago"`
}

type StatsReply struct {
	Articles int `json:"articles"`
	Cards    int `json:"cards"`
	Saved    int `json:"saved"`
}

type ListCardsReply struct {
	Filter   string      `json:"filter"`
	Cards    []CardReply `json:"cards"`
	Stats    StatsReply  `json:"stats"`
	LoadedAt time.Time   `json:"loaded_at"`
	Warnings []string    `json:"warnings,omitempty"`
	Error    string      `json:"error,omitempty"`
}

type MutationReply struct {
	Type  domain.EntityKind `json:"type"`
	ID    string            `json:"id"`
	Saved bool              `json:"saved"`
}

// ListCards 返回筛选后的卡片；filter 参数只作用于本次请求，不改变页面的筛选状态
func (s *DashboardService) ListCards(ctx http.Context) error {
	state, err := s.dash.EnsureLoaded(ctx)
	if err != nil && !state.Loaded {
		return err
	}
	if f := ctx.Query().Get("filter"); f != "" {
		state.Filter = domain.NormalizeFilter(f)
	}
	return ctx.Result(nethttp.StatusOK, NewListCardsReply(state, time.Now()))
}

func NewListCardsReply(state usecase.State, now time.Time) *ListCardsReply {
	cards := usecase.View(state)
	reply := &ListCardsReply{
		Filter: string(state.Filter),
		Cards:  make([]CardReply, 0, len(cards)),
		Stats: StatsReply{
			Articles: len(state.Articles),
			Cards:    len(usecase.Project(state.Articles)),
			Saved:    state.Saved.Len(),
		},
		LoadedAt: state.LoadedAt,
		Warnings: state.Warnings,
		Error:    state.Err,
	}
	for _, c := range cards {
		reply.Cards = append(reply.Cards, CardReply{
			Card:    c,
			Saved:   state.Saved.Has(c.Key()),
			TimeAgo: render.TimeAgo(c.PublishedDate, now),
		})
	}
	return reply
}

// SaveCard 切换收藏状态
func (s *DashboardService) SaveCard(ctx http.Context) error {
	key, err := cardKey(ctx)
	if err != nil {
		return err
	}
	state, err := s.dispatch(ctx, usecase.Event{Kind: usecase.EventToggleSave, Key: key})
	if err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, &MutationReply{Type: key.Kind, ID: key.ID, Saved: state.Saved.Has(key)})
}

// DeleteCard 直接删除，调用方自行确认
func (s *DashboardService) DeleteCard(ctx http.Context) error {
	key, err := cardKey(ctx)
	if err != nil {
		return err
	}
	if _, err := s.dispatch(ctx, usecase.Event{Kind: usecase.EventDeleteConfirmed, Key: key}); err != nil {
		return err
	}
	return ctx.Result(nethttp.StatusOK, &MutationReply{Type: key.Kind, ID: key.ID})
}

// dispatch 卡片事件前确保数据已加载，否则所有卡片都会被视为不存在
func (s *DashboardService) dispatch(ctx context.Context, ev usecase.Event) (usecase.State, error) {
	if state, err := s.dash.EnsureLoaded(ctx); err != nil && !state.Loaded {
		return state, err
	}
	return s.dash.Dispatch(ctx, ev)
}
