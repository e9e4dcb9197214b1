package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/domain"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/metrics"
)

// DeletePhase 卡片删除按钮的状态：Idle -> Armed -> (Idle | 已删除)
type DeletePhase int

const (
	DeleteIdle DeletePhase = iota
	DeleteArmed
)

// CardUI 单张卡片的界面状态
type CardUI struct {
	Delete   DeletePhase
	Expanded bool
}

// State 看板会话状态
type State struct {
	Articles []domain.Article
	Saved    domain.SavedSet
	Filter   domain.Filter
	UI       map[domain.SavedKey]CardUI

	// Loaded 至少成功加载过一次
	Loaded   bool
	LoadedAt time.Time
	// Err 最近一次加载失败的信息，成功加载后清空
	Err string
	// Alert 最近一次写操作失败的信息
	Alert    string
	Warnings []string
}

// NewState 初始状态
func NewState() State {
	return State{
		Saved:  domain.SavedSet{},
		Filter: domain.FilterAll,
		UI:     map[domain.SavedKey]CardUI{},
	}
}

// Clone 深拷贝，调用方可以自由读取而不受后续事件影响
func (s State) Clone() State {
	out := s
	out.Articles = domain.CloneArticles(s.Articles)
	out.Saved = s.Saved.Clone()
	out.UI = make(map[domain.SavedKey]CardUI, len(s.UI))
	for k, v := range s.UI {
		out.UI[k] = v
	}
	out.Warnings = append([]string(nil), s.Warnings...)
	return out
}

// View 当前筛选条件下的卡片
func View(s State) []domain.Card {
	return FilterCards(Project(s.Articles), s.Filter, s.Saved)
}

type EventKind int

const (
	EventRefresh EventKind = iota + 1
	EventSetFilter
	EventToggleSave
	EventDeleteRequested
	EventDeleteCancelled
	EventToggleExpand
	EventDismissAlert
	// EventDeleteConfirmed 跳过二次确认直接删除，供 JSON 接口使用
	EventDeleteConfirmed
)

func (k EventKind) String() string {
	switch k {
	case EventRefresh:
		return "refresh"
	case EventSetFilter:
		return "set_filter"
	case EventToggleSave:
		return "toggle_save"
	case EventDeleteRequested:
		return "delete_requested"
	case EventDeleteCancelled:
		return "delete_cancelled"
	case EventToggleExpand:
		return "toggle_expand"
	case EventDismissAlert:
		return "dismiss_alert"
	case EventDeleteConfirmed:
		return "delete_confirmed"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event 用户或定时器触发的事件
type Event struct {
	Kind   EventKind
	Key    domain.SavedKey
	Filter domain.Filter
}

// Loader 加载一次完整快照
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// Dashboard 串行处理事件并持有会话状态
type Dashboard struct {
	mu      sync.Mutex
	state   State
	loader  Loader
	mutator *Mutator
	log     *log.Helper
}

// NewDashboard 创建看板实例
func NewDashboard(loader Loader, mutator *Mutator, logger log.Logger) *Dashboard {
	return &Dashboard{
		state:   NewState(),
		loader:  loader,
		mutator: mutator,
		log:     log.NewHelper(logger),
	}
}

// Snapshot 返回当前状态的拷贝
func (d *Dashboard) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Clone()
}

// EnsureLoaded 尚未成功加载过时执行一次刷新
// 并发的首次请求只会触发一次加载
func (d *Dashboard) EnsureLoaded(ctx context.Context) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Loaded {
		return d.state.Clone(), nil
	}

	next, err := d.refresh(ctx, d.state.Clone())
	d.state = next
	if err != nil {
		d.log.Warnf("event %s failed: %v", EventRefresh, err)
	}
	return d.state.Clone(), err
}

// Dispatch 处理一个事件。出错时返回的状态中仍包含错误信息（Err 或 Alert）。
func (d *Dashboard) Dispatch(ctx context.Context, ev Event) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next, err := d.reduce(ctx, d.state.Clone(), ev)
	d.state = next
	if err != nil {
		d.log.Warnf("event %s %s %s failed: %v", ev.Kind, ev.Key.Kind, ev.Key.ID, err)
	}
	return d.state.Clone(), err
}

func (d *Dashboard) reduce(ctx context.Context, s State, ev Event) (State, error) {
	switch ev.Kind {
	case EventRefresh:
		return d.refresh(ctx, s)
	case EventSetFilter:
		s.Filter = domain.NormalizeFilter(string(ev.Filter))
		return s, nil
	case EventDismissAlert:
		s.Alert = ""
		return s, nil
	}

	if _, ok := FindCard(s.Articles, ev.Key); !ok {
		return s, domain.CardNotFound(ev.Key)
	}

	switch ev.Kind {
	case EventToggleSave:
		saved, err := d.mutator.ToggleSave(ctx, s.Saved, ev.Key)
		if err != nil {
			s.Alert = domain.Message(err)
			return s, err
		}
		s.Saved = saved
		s.Alert = ""
		return s, nil

	case EventDeleteRequested:
		ui := s.UI[ev.Key]
		if ui.Delete == DeleteIdle {
			ui.Delete = DeleteArmed
			s.UI[ev.Key] = ui
			return s, nil
		}
		return d.delete(ctx, s, ev.Key)

	case EventDeleteConfirmed:
		return d.delete(ctx, s, ev.Key)

	case EventDeleteCancelled:
		ui := s.UI[ev.Key]
		ui.Delete = DeleteIdle
		s.UI[ev.Key] = ui
		return s, nil

	case EventToggleExpand:
		ui := s.UI[ev.Key]
		ui.Expanded = !ui.Expanded
		s.UI[ev.Key] = ui
		return s, nil
	}

	return s, fmt.Errorf("unknown event %s", ev.Kind)
}

func (d *Dashboard) delete(ctx context.Context, s State, key domain.SavedKey) (State, error) {
	articles, saved, err := d.mutator.Delete(ctx, s.Articles, s.Saved, key)
	if err != nil {
		s.Alert = domain.Message(err)
		return s, err
	}
	_, removed := RemoveEntity(s.Articles, key)
	for _, k := range removed {
		delete(s.UI, k)
	}
	s.Articles = articles
	s.Saved = saved
	s.Alert = ""
	metrics.Cards.Set(float64(len(Project(s.Articles))))
	return s, nil
}

// refresh 加载失败时保留原有数据，只记录错误
func (d *Dashboard) refresh(ctx context.Context, s State) (State, error) {
	snap, err := d.loader.Load(ctx)
	if err != nil {
		s.Err = domain.Message(err)
		return s, err
	}

	s.Articles = snap.Articles
	s.Saved = snap.Saved
	s.Loaded = true
	s.LoadedAt = snap.LoadedAt
	s.Err = ""
	s.UI = map[domain.SavedKey]CardUI{}
	s.Warnings = s.Warnings[:0]
	for _, w := range snap.Warnings {
		s.Warnings = append(s.Warnings, domain.Message(w))
	}
	metrics.Cards.Set(float64(len(Project(s.Articles))))
	return s, nil
}
