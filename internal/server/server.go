package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/goldbook/internal/account"
	accountdomain "github.com/smallbiznis/goldbook/internal/account/domain"
	"github.com/smallbiznis/goldbook/internal/audit"
	auditdomain "github.com/smallbiznis/goldbook/internal/audit/domain"
	"github.com/smallbiznis/goldbook/internal/config"
	"github.com/smallbiznis/goldbook/internal/journal"
	journaldomain "github.com/smallbiznis/goldbook/internal/journal/domain"
	"github.com/smallbiznis/goldbook/internal/observability"
	obsmiddleware "github.com/smallbiznis/goldbook/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/goldbook/internal/observability/metrics"
	obstracing "github.com/smallbiznis/goldbook/internal/observability/tracing"
	"github.com/smallbiznis/goldbook/internal/ratelimit"
	"github.com/smallbiznis/goldbook/internal/report"
	reportdomain "github.com/smallbiznis/goldbook/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	audit.Module,
	account.Module,
	journal.Module,
	report.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	// Client IPs come from the socket unless proxies are trusted explicitly.
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(obstracing.MiddlewareConfig{
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

func registerGin(cfg config.Config, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) (*gin.Engine, error) {
	r := NewEngine(obsCfg, httpMetrics)
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	return r, nil
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	accountSvc   accountdomain.Service
	journalSvc   journaldomain.Service
	reportSvc    reportdomain.Service
	auditSvc     auditdomain.Service
	obsMetrics   *obsmetrics.Metrics
	writeLimiter *ratelimit.WriteLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	AccountSvc   accountdomain.Service
	JournalSvc   journaldomain.Service
	ReportSvc    reportdomain.Service
	AuditSvc     auditdomain.Service
	ObsMetrics   *obsmetrics.Metrics     `optional:"true"`
	WriteLimiter *ratelimit.WriteLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		accountSvc:   p.AccountSvc,
		journalSvc:   p.JournalSvc,
		reportSvc:    p.ReportSvc,
		auditSvc:     p.AuditSvc,
		obsMetrics:   p.ObsMetrics,
		writeLimiter: p.WriteLimiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	write := s.WriteRateLimit()

	// -------- Accounts --------
	api.GET("/accounts", s.ListAccounts)
	api.POST("/accounts", write, s.CreateAccount)
	api.GET("/accounts/:id", s.GetAccountByID)
	api.PATCH("/accounts/:id", write, s.UpdateAccount)
	api.POST("/accounts/:id/deactivate", write, s.DeactivateAccount)

	// -------- Journal Entries --------
	api.GET("/journal-entries", s.ListJournalEntries)
	api.POST("/journal-entries", write, s.CreateJournalEntry)
	api.GET("/journal-entries/:id", s.GetJournalEntryByID)
	api.GET("/journal-entries/:id/lines", s.GetJournalEntryLines)

	// -------- Cash & Bank --------
	api.POST("/cash-transactions", write, s.RecordCashTransaction)
	api.POST("/bank-transactions", write, s.RecordBankTransaction)

	// -------- Reports --------
	api.GET("/reports/trial-balance", s.GetTrialBalance)
	api.GET("/reports/profit-loss", s.GetProfitLoss)
	api.GET("/reports/balance-sheet", s.GetBalanceSheet)
	api.GET("/reports/accounts-payable", s.GetAccountsPayable)
	api.GET("/reports/accounts-receivable", s.GetAccountsReceivable)

	// -------- Audit --------
	api.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
