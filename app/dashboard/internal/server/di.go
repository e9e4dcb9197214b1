package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/data"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/render"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/service"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/usecase"
)

// ProviderSet 是看板服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,
	NewGRPCServer,
	NewRefresher,

	// Data providers
	data.NewBackend,

	// UseCase providers
	usecase.NewPipeline,
	usecase.NewMutator,
	usecase.NewDashboard,
	wire.Bind(new(usecase.Loader), new(*usecase.Pipeline)),

	// Service providers
	render.NewRenderer,
	service.NewDashboardService,
)
