package data

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/conf"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/repo"
)

const (
	ProviderSQL  = "sql"
	ProviderRest = "rest"
)

// NewBackend 根据配置创建看板后端，SQL 后端启动时自动建表
func NewBackend(c *conf.Data, logger log.Logger) (repo.Backend, func(), error) {
	if c == nil {
		return nil, nil, fmt.Errorf("data config is required")
	}
	helper := log.NewHelper(logger)

	switch c.Provider {
	case "", ProviderSQL:
		store, err := NewStore(c.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(context.Background()); err != nil {
			store.Close()
			return nil, nil, err
		}
		cleanup := func() {
			helper.Info("closing the data resources")
			store.Close()
		}
		helper.Infof("using %s store", store.driver)
		return store, cleanup, nil

	case ProviderRest:
		client, err := NewRestClient(c.Rest, logger)
		if err != nil {
			return nil, nil, err
		}
		helper.Infof("using rest backend %s", client.baseURL)
		return client, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unsupported data provider: %s", c.Provider)
	}
}

// NewAdminBackend 管理命令只支持 SQL 后端
func NewAdminBackend(c *conf.Data, logger log.Logger) (repo.AdminBackend, error) {
	if c == nil {
		return nil, fmt.Errorf("data config is required")
	}
	if c.Provider != "" && c.Provider != ProviderSQL {
		return nil, fmt.Errorf("admin commands require the sql provider, got %s", c.Provider)
	}
	return NewStore(c.Database, logger)
}
