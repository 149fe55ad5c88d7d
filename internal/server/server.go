package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/royalty/internal/config"
	"github.com/licensedesk/royalty/internal/contract"
	contractdomain "github.com/licensedesk/royalty/internal/contract/domain"
	"github.com/licensedesk/royalty/internal/inference"
	"github.com/licensedesk/royalty/internal/mapping"
	mappingdomain "github.com/licensedesk/royalty/internal/mapping/domain"
	obslogger "github.com/licensedesk/royalty/internal/observability/logger"
	obsmetrics "github.com/licensedesk/royalty/internal/observability/metrics"
	"github.com/licensedesk/royalty/internal/period"
	perioddomain "github.com/licensedesk/royalty/internal/period/domain"
	"github.com/licensedesk/royalty/internal/report"
	reportdomain "github.com/licensedesk/royalty/internal/report/domain"
	"github.com/licensedesk/royalty/internal/ytd"
	ytddomain "github.com/licensedesk/royalty/internal/ytd/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	contract.Module,
	mapping.Module,
	inference.Module,
	period.Module,
	report.Module,
	ytd.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           !cfg.IsProduction(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(cfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	contractSvc contractdomain.Service
	mappingSvc  mappingdomain.Service
	periodSvc   perioddomain.Service
	reportSvc   reportdomain.Service
	ytdSvc      ytddomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	ContractSvc contractdomain.Service
	MappingSvc  mappingdomain.Service
	PeriodSvc   perioddomain.Service
	ReportSvc   reportdomain.Service
	YTDSvc      ytddomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		contractSvc: p.ContractSvc,
		mappingSvc:  p.MappingSvc,
		periodSvc:   p.PeriodSvc,
		reportSvc:   p.ReportSvc,
		ytdSvc:      p.YTDSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Contracts --------
	api.GET("/contracts", s.ListContracts)
	api.POST("/contracts", s.CreateContract)
	api.GET("/contracts/:id", s.GetContractByID)
	api.PATCH("/contracts/:id", s.UpdateContract)

	// -------- Field Mappings --------
	api.POST("/contracts/:id/mappings/resolve", s.ResolveMapping)
	api.GET("/contracts/:id/mappings", s.GetSavedMapping)
	api.PUT("/contracts/:id/mappings", s.SaveMapping)

	// -------- Category Aliases --------
	api.GET("/contracts/:id/aliases", s.GetSavedAliases)
	api.PUT("/contracts/:id/aliases", s.SaveAliases)

	// -------- Sales Reports --------
	api.POST("/contracts/:id/reports/preview", s.PreviewReport)
	api.POST("/contracts/:id/reports", s.SubmitReport)
	api.POST("/contracts/:id/reports/batch", s.SubmitReportBatch)

	// -------- Periods --------
	api.POST("/contracts/:id/periods/overlap", s.CheckOverlap)
	api.GET("/contracts/:id/periods", s.ListPeriods)
	api.GET("/periods/:id", s.GetPeriodByID)
	api.DELETE("/periods/:id", s.DeletePeriod)

	// -------- Year To Date --------
	api.GET("/contracts/:id/ytd/:year", s.GetYearSummary)
}
