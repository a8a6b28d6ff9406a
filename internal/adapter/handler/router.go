package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Routes is implemented by every handler that owns endpoints.
type Routes interface {
	Register(r gin.IRouter)
}

// NewRouter builds the gin engine shared by all services, gateway included:
// recovery, request ids, tracing, access log and metrics, plus /health and
// /metrics.
func NewRouter(service string, logger *zap.Logger, health gin.HandlerFunc, routes ...Routes) *gin.Engine {
	r := gin.New()
	r.Use(
		Recovery(logger),
		RequestID(),
		otelgin.Middleware(service),
		Logger(logger),
		Metrics(),
	)

	r.GET("/health", health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	for _, rt := range routes {
		rt.Register(r)
	}
	return r
}
