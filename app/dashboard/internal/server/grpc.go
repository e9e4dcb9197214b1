package server

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/grpc"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/conf"
)

// NewGRPCServer 只对外提供 grpc.health.v1 健康检查
func NewGRPCServer(c *conf.Server, logger log.Logger) *grpc.Server {
	var opts = []grpc.ServerOption{
		grpc.Middleware(
			recovery.Recovery(),
		),
	}
	if c != nil && c.Grpc != nil {
		if c.Grpc.Addr != "" {
			opts = append(opts, grpc.Address(c.Grpc.Addr))
		}
		if d := conf.ParseDuration(c.Grpc.Timeout, 0); d > 0 {
			opts = append(opts, grpc.Timeout(d))
		}
	}
	return grpc.NewServer(opts...)
}
