package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/courtside/internal/analytics"
	"github.com/smallbiznis/courtside/internal/auth"
	authdomain "github.com/smallbiznis/courtside/internal/auth/domain"
	"github.com/smallbiznis/courtside/internal/billing"
	billingdomain "github.com/smallbiznis/courtside/internal/billing/domain"
	"github.com/smallbiznis/courtside/internal/clock"
	"github.com/smallbiznis/courtside/internal/config"
	"github.com/smallbiznis/courtside/internal/entitlement"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	"github.com/smallbiznis/courtside/internal/identity"
	identitydomain "github.com/smallbiznis/courtside/internal/identity/domain"
	"github.com/smallbiznis/courtside/internal/observability"
	obslogger "github.com/smallbiznis/courtside/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/courtside/internal/observability/metrics"
	obstracing "github.com/smallbiznis/courtside/internal/observability/tracing"
	"github.com/smallbiznis/courtside/internal/qa"
	qadomain "github.com/smallbiznis/courtside/internal/qa/domain"
	"github.com/smallbiznis/courtside/internal/ratelimit"
	"github.com/smallbiznis/courtside/internal/subscription"
	"github.com/smallbiznis/courtside/internal/usage"
	usagedomain "github.com/smallbiznis/courtside/internal/usage/domain"
	"github.com/smallbiznis/courtside/internal/user"
	userdomain "github.com/smallbiznis/courtside/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	user.Module,
	subscription.Module,
	entitlement.Module,
	auth.Module,
	identity.Module,
	ratelimit.Module,
	usage.Module,
	analytics.Module,
	qa.Module,
	billing.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			s.Drain()
			return err
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	clock        clock.Clock
	resolver     identitydomain.Resolver
	limiter      *ratelimit.Limiter
	authsvc      authdomain.Service
	users        userdomain.Repository
	entitlements entdomain.Service
	usage        usagedomain.Service
	qasvc        qadomain.Service
	billingsvc   billingdomain.Service
	checkout     billingdomain.CheckoutProvider
	metrics      *obsmetrics.Metrics

	// pending tracks background usage writes so shutdown can wait for them.
	pending sync.WaitGroup
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	Clock        clock.Clock
	Resolver     identitydomain.Resolver
	Limiter      *ratelimit.Limiter
	Authsvc      authdomain.Service
	Users        userdomain.Repository
	Entitlements entdomain.Service
	Usage        usagedomain.Service
	QAsvc        qadomain.Service
	Billingsvc   billingdomain.Service
	Checkout     billingdomain.CheckoutProvider
	Metrics      *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		clock:        p.Clock,
		resolver:     p.Resolver,
		limiter:      p.Limiter,
		authsvc:      p.Authsvc,
		users:        p.Users,
		entitlements: p.Entitlements,
		usage:        p.Usage,
		qasvc:        p.QAsvc,
		billingsvc:   p.Billingsvc,
		checkout:     p.Checkout,
		metrics:      p.Metrics,
	}

	svc.registerRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Drain blocks until background usage writes have finished.
func (s *Server) Drain() {
	s.pending.Wait()
}

func (s *Server) registerRoutes() {
	// Identity, then admission, then metering. Installed on the engine so the
	// fallback handler runs behind them as well.
	s.engine.Use(s.ResolveIdentity(), s.RateLimit(), s.TrackUsage())

	s.engine.GET("/health", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.POST("/billing/webhook", s.HandleBillingWebhook)
	s.engine.POST("/billing/checkout", s.Checkout)
	s.engine.POST("/billing/create-checkout-session", s.Checkout)

	s.engine.POST("/auth/register", s.Register)
	s.engine.POST("/auth/login", s.Login)
	s.engine.GET("/auth/me", s.AuthMe)

	s.engine.GET("/me", s.Me)
	s.engine.POST("/qa/ask", s.Ask)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"service":   s.cfg.AppName,
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339Nano),
	})
}
