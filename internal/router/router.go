package router

import (
	"time"

	"github.com/ACRERP/acr-commerce-suite-sub005/internal/config"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/handler"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/infra"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/middleware"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/repository"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/service"
	"github.com/ACRERP/acr-commerce-suite-sub005/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	operatorRepo := repository.NewOperatorRepository(db)
	productRepo := repository.NewProductRepository(db)
	adjustmentRepo := repository.NewStockAdjustmentRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	registerRepo := repository.NewRegisterRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(operatorRepo, cfg)
	stockSvc := service.NewStockService(productRepo, adjustmentRepo, dispatcher)
	registerSvc := service.NewRegisterService(registerRepo)
	saleSvc := service.NewSaleService(saleRepo, registerSvc, registerRepo, productRepo, stockSvc, dispatcher, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	registerH := handler.NewRegisterHandler(registerSvc)
	stockH := handler.NewStockHandler(stockSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per-endpoint
		sales := v1.Group("/sales")
		{
			sales.POST("", middleware.RequireRole("cashier", "supervisor", "admin"), salesH.Finalize)
			sales.GET("", middleware.RequireRole("cashier", "supervisor", "admin"), salesH.List)
			sales.GET("/:id", middleware.RequireRole("cashier", "supervisor", "admin"), salesH.Get)
			sales.DELETE("/:id", middleware.RequireRole("supervisor", "admin"), salesH.Cancel)

			sales.POST("/drafts", middleware.RequireRole("cashier", "supervisor", "admin"), salesH.SaveDraft)
			sales.POST("/drafts/:id/finalize", middleware.RequireRole("cashier", "supervisor", "admin"), salesH.FinalizeDraft)
			sales.POST("/drafts/:id/suspend", middleware.RequireRole("cashier", "supervisor", "admin"), salesH.Suspend)
			sales.DELETE("/drafts/:id", middleware.RequireRole("cashier", "supervisor", "admin"), salesH.DeleteDraft)
		}

		register := v1.Group("/register")
		{
			register.POST("/open", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Open)
			register.POST("/close", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Close)
			register.POST("/movements", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Movement)
			register.GET("/current", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Current)
			register.GET("/sessions/:id", middleware.RequireRole("cashier", "supervisor", "admin"), registerH.Report)
			register.GET("/sessions", middleware.RequireRole("supervisor", "admin"), registerH.History)
		}

		stock := v1.Group("/stock")
		{
			stock.POST("/products/:id/adjust", middleware.RequireRole("supervisor", "admin"), stockH.Adjust)
			stock.POST("/receive", middleware.RequireRole("supervisor", "admin"), stockH.Receive)
			stock.GET("/adjustments", middleware.RequireRole("cashier", "supervisor", "admin"), stockH.History)
			stock.GET("/products/:id/verify", middleware.RequireRole("supervisor", "admin"), stockH.Verify)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
