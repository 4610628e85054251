package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/clientdir/internal/config"
	"github.com/smallbiznis/clientdir/internal/department"
	departmentdomain "github.com/smallbiznis/clientdir/internal/department/domain"
	"github.com/smallbiznis/clientdir/internal/legalentity"
	legalentitydomain "github.com/smallbiznis/clientdir/internal/legalentity/domain"
	obsmiddleware "github.com/smallbiznis/clientdir/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/clientdir/internal/observability/metrics"
	obstracing "github.com/smallbiznis/clientdir/internal/observability/tracing"
	"github.com/smallbiznis/clientdir/internal/person"
	persondomain "github.com/smallbiznis/clientdir/internal/person/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module wires the HTTP server and the domain modules it serves.
var Module = fx.Module("http.server",
	person.Module,
	legalentity.Module,
	department.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

// Server holds the listing API handlers.
type Server struct {
	cfg            config.Config
	db             *gorm.DB
	log            *zap.Logger
	personSvc      persondomain.Service
	legalEntitySvc legalentitydomain.Service
	departmentSvc  departmentdomain.Service
}

type ServerParams struct {
	fx.In

	Cfg            config.Config
	DB             *gorm.DB
	Log            *zap.Logger
	PersonSvc      persondomain.Service
	LegalEntitySvc legalentitydomain.Service
	DepartmentSvc  departmentdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		cfg:            p.Cfg,
		db:             p.DB,
		log:            p.Log.Named("server"),
		personSvc:      p.PersonSvc,
		legalEntitySvc: p.LegalEntitySvc,
		departmentSvc:  p.DepartmentSvc,
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !cfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           cfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerRoutes(r *gin.Engine, s *Server) {
	s.RegisterAPIRoutes(r)
}

// RegisterAPIRoutes mounts the read-only listing surface.
func (s *Server) RegisterAPIRoutes(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/natural_persons", s.ListNaturalPersons)
	api.GET("/legal_entity", s.ListLegalEntities)
	api.GET("/department", s.ListDepartments)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server started", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
