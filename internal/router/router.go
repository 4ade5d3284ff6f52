package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	prometheusHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
	appvalidator "github.com/jwalitptl/clinic-scheduler/pkg/validator"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
	RequestTimeout   time.Duration
	CORSConfig       middleware.CORSConfig
	Debug            bool
}

type Router struct {
	engine   *gin.Engine
	health   Handler
	handlers []Handler
	metricsH *prometheusHandler.Handler
}

// NewRouter builds the engine; health and handlers register under /api/v1.
func NewRouter(
	config RouterConfig,
	m *metrics.Metrics,
	metricsH *prometheusHandler.Handler,
	health Handler,
	handlers ...Handler,
) (*Router, error) {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := appvalidator.Register(v); err != nil {
			return nil, fmt.Errorf("failed to register validators: %w", err)
		}
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		middleware.Metrics(m),
		middleware.SecurityHeaders(),
		middleware.CORS(config.CORSConfig),
		middleware.Timeout(config.RequestTimeout),
	)

	if config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			RPS:   config.RateLimitRPS,
			Burst: config.RateLimitBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	return &Router{
		engine:   engine,
		health:   health,
		handlers: handlers,
		metricsH: metricsH,
	}, nil
}

func (r *Router) Setup() *gin.Engine {
	if r.metricsH != nil {
		r.engine.GET("/metrics", r.metricsH.Handler())
	}

	api := r.engine.Group("/api/v1")
	if r.health != nil {
		r.health.RegisterRoutes(api)
	}
	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
	return r.engine
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
