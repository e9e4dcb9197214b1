package server

import (
	"context"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/conf"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/usecase"
)

// Refresher 按固定间隔触发看板刷新，间隔为 0 时不启用
type Refresher struct {
	dash     *usecase.Dashboard
	interval time.Duration
	log      *log.Helper

	stop     chan struct{}
	stopOnce sync.Once
}

var _ transport.Server = (*Refresher)(nil)

func NewRefresher(c *conf.Dashboard, dash *usecase.Dashboard, logger log.Logger) *Refresher {
	return &Refresher{
		dash:     dash,
		interval: c.RefreshIntervalDuration(),
		log:      log.NewHelper(logger),
		stop:     make(chan struct{}),
	}
}

// Start 阻塞直到 ctx 结束或调用 Stop，刷新失败只记录日志
func (r *Refresher) Start(ctx context.Context) error {
	if r.interval <= 0 {
		r.log.Info("periodic refresh disabled")
		return nil
	}
	r.log.Infof("refreshing every %s", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.stop:
			return nil
		case <-ticker.C:
			if _, err := r.dash.Dispatch(ctx, usecase.Event{Kind: usecase.EventRefresh}); err != nil {
				r.log.Errorf("periodic refresh failed: %v", err)
			}
		}
	}
}

func (r *Refresher) Stop(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.stop) })
	return nil
}
